package netpacket

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func appendFrame(buf []byte, typ uint32, t float32, payload []byte) []byte {
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(hdr[4:], typ)
	binary.LittleEndian.PutUint32(hdr[8:], math.Float32bits(t))
	buf = append(buf, hdr[:]...)
	buf = append(buf, payload...)
	return buf
}

func TestFrameReaderRoundTrip(t *testing.T) {
	var stream []byte
	stream = appendFrame(stream, uint32(KindMap), 1.5, []byte("spaces/42_Neighbors\x00"))
	stream = appendFrame(stream, uint32(KindPlayerEntity), 2.0, []byte{7, 0, 0, 0})

	fr := NewFrameReader(stream)

	f1, err := fr.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f1.Type != uint32(KindMap) || f1.Time != 1.5 {
		t.Errorf("frame 1 = %+v", f1)
	}

	f2, err := fr.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if f2.Type != uint32(KindPlayerEntity) || f2.Time != 2.0 {
		t.Errorf("frame 2 = %+v", f2)
	}

	if !fr.Done() {
		t.Errorf("expected stream exhausted")
	}
}

func TestFrameReaderTruncated(t *testing.T) {
	fr := NewFrameReader([]byte{1, 2, 3})
	_, err := fr.Next()
	if !errors.Is(err, ErrTruncatedFrame) {
		t.Fatalf("expected ErrTruncatedFrame, got %v", err)
	}
}

func TestDecodeKnownTags(t *testing.T) {
	mapping := DefaultMapping12_6_0()

	f := Frame{Type: uint32(KindMap), Payload: []byte("42_Neighbors\x00")}
	rec, exhausted, ok, err := Decode(f, mapping)
	if err != nil || !ok || !exhausted {
		t.Fatalf("Decode Map: rec=%v exhausted=%v ok=%v err=%v", rec, exhausted, ok, err)
	}
	m, isMap := rec.(Map)
	if !isMap || m.Name != "42_Neighbors" {
		t.Errorf("got %+v", rec)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	mapping := DefaultMapping12_6_0()
	f := Frame{Type: 0x99, Payload: []byte{1, 2, 3}}
	_, _, ok, err := Decode(f, mapping)
	if ok || err != nil {
		t.Fatalf("expected unknown tag, got ok=%v err=%v", ok, err)
	}
}

func TestDecodePlayerPosition(t *testing.T) {
	mapping := DefaultMapping12_6_0()
	var payload []byte
	var buf [4]byte
	writeI32 := func(v int32) {
		binary.LittleEndian.PutUint32(buf[:], uint32(v))
		payload = append(payload, buf[:]...)
	}
	writeF32 := func(v float32) {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		payload = append(payload, buf[:]...)
	}
	writeI32(10)
	writeI32(20)
	writeF32(1)
	writeF32(2)
	writeF32(3)
	writeF32(0.1)
	writeF32(0.2)
	writeF32(0.3)

	f := Frame{Type: uint32(KindPlayerPosition), Payload: payload}
	rec, exhausted, ok, err := Decode(f, mapping)
	if err != nil || !ok || !exhausted {
		t.Fatalf("Decode PlayerPosition: exhausted=%v ok=%v err=%v", exhausted, ok, err)
	}
	pp := rec.(PlayerPosition)
	if pp.EntityID1 != 10 || pp.EntityID2 != 20 {
		t.Errorf("got %+v", pp)
	}
}
