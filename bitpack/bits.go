package bitpack

// Field describes one entry of a bit-packed tuple: the value occupies the
// low Bits bits of whatever remains of the shift register, and decodes to
// a float in [Min, Max] via the formula in UnpackBits.
type Field struct {
	Min, Max float64
	Bits     uint
}

// UnpackBits decodes a shift-register-packed value against an ordered list
// of bit-field descriptors, consuming the low bits first (LSB-first) and
// shifting the remainder right after each field. Each field's raw bits
// quantize to a float via:
//
//	raw/(2^bits-1) * (|min|+|max|) - |min|
//
// matching the client's POSITION_AND_YAW_PATTERN-style packed minimap
// diffs. Plane ids are integer fields and go through UnpackPlaneID instead.
func UnpackBits(value uint64, fields []Field) []float32 {
	out := make([]float32, len(fields))
	for i, f := range fields {
		mask := uint64(1)<<f.Bits - 1
		raw := value & mask
		value >>= f.Bits
		out[i] = unpackOne(raw, f.Min, f.Max, f.Bits)
	}
	return out
}

func unpackOne(raw uint64, min, max float64, bits uint) float32 {
	span := absF(min) + absF(max)
	denom := float64(uint64(1)<<bits - 1)
	return float32(float64(raw)/denom*span - absF(min))
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// PlaneID is the decoded shape of a packed minimap squadron identifier.
type PlaneID struct {
	AvatarID   uint32
	Index      uint8
	Purpose    uint8
	Departures uint8
}

// planeIDBits is the fixed bit layout of a packed plane id: 32 bits of
// avatar id, 3 bits squadron index, 3 bits purpose, 1 bit departures.
var planeIDBits = []uint{32, 3, 3, 1}

// UnpackPlaneID splits a packed 64-bit plane id into its four fields,
// consuming planeIDBits low-bits-first.
func UnpackPlaneID(packed uint64) PlaneID {
	vals := make([]uint64, len(planeIDBits))
	for i, bits := range planeIDBits {
		mask := uint64(1)<<bits - 1
		vals[i] = packed & mask
		packed >>= bits
	}
	return PlaneID{
		AvatarID:   uint32(vals[0]),
		Index:      uint8(vals[1]),
		Purpose:    uint8(vals[2]),
		Departures: uint8(vals[3]),
	}
}

// PackPlaneID is the inverse of UnpackPlaneID; used by round-trip tests.
func PackPlaneID(p PlaneID) uint64 {
	var packed uint64
	vals := []uint64{uint64(p.AvatarID), uint64(p.Index), uint64(p.Purpose), uint64(p.Departures)}
	var shift uint
	for i, bits := range planeIDBits {
		packed |= (vals[i] & (uint64(1)<<bits - 1)) << shift
		shift += bits
	}
	return packed
}
