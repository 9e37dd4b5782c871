package bitpack

import (
	"math"
	"testing"
	"testing/quick"
)

func TestUnpackBitsKnownValues(t *testing.T) {
	fields := []Field{
		{Min: -2500, Max: 2500, Bits: 11},
		{Min: -2500, Max: 2500, Bits: 11},
	}

	got := UnpackBits(0, fields)
	if got[0] != -2500 || got[1] != -2500 {
		t.Errorf("raw 0 should decode to the minimum of each field, got %v", got)
	}

	maxRaw := uint64(1<<11 - 1)
	packed := maxRaw | maxRaw<<11
	got = UnpackBits(packed, fields)
	if got[0] != 2500 || got[1] != 2500 {
		t.Errorf("all-ones raw should decode to the maximum of each field, got %v", got)
	}
}

func TestUnpackPlaneIDKnownValue(t *testing.T) {
	// S3: schema [32,3,3,1], low bits first: avatar_id=0x2AB in bits 0-31,
	// index=0 in bits 32-34, purpose=3 in bits 35-37, departures=0 in bit 38,
	// which packs to 0x2AB | 3<<35 = 0x18000002AB.
	got := UnpackPlaneID(0x18000002AB)
	want := PlaneID{AvatarID: 0x2AB, Index: 0, Purpose: 3, Departures: 0}
	if got != want {
		t.Errorf("UnpackPlaneID(0x18000002AB) = %+v, want %+v", got, want)
	}
}

func TestPlaneIDRoundTrip(t *testing.T) {
	f := func(avatarID uint32, index, purpose uint8, departures bool) bool {
		p := PlaneID{
			AvatarID:   avatarID,
			Index:      index & 0x7,
			Purpose:    purpose & 0x7,
			Departures: boolToU8(departures),
		}
		got := UnpackPlaneID(PackPlaneID(p))
		return got == p
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func TestUnpackBitsRoundTrip(t *testing.T) {
	// Quantizing a value already aligned to the grid and re-decoding it
	// must reproduce the same float, for a fixed field width.
	field := Field{Min: -10, Max: 10, Bits: 8}
	denom := float64(uint64(1)<<field.Bits - 1)

	f := func(step uint8) bool {
		raw := uint64(step) % (uint64(denom) + 1)
		got := UnpackBits(raw, []Field{field})[0]

		// Re-quantize the decoded value back to raw bits and confirm it
		// lands on the same grid point, within float32 rounding.
		span := 20.0
		recomputedRaw := math.Round((float64(got) + 10) / span * denom)
		return uint64(recomputedRaw) == raw
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}
