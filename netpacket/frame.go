/*

Package netpacket demultiplexes the inflated packet stream produced by
wowscipher into typed records: frame-level header fields (ids, times,
scalar values) are decoded here; payload that needs an entity's schema
to interpret (EntityCreate's property values, EntityProperty/EntityMethod
arguments) is handed on as raw bytes for the entity package to decode
against the right EntityDef. NestedProperty edits are also handed on as
raw bytes; the battle controller decodes those.

*/
package netpacket

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncatedFrame is returned when the stream ends mid-frame.
var ErrTruncatedFrame = errors.New("netpacket: truncated frame header")

// Frame is one size/type/time-framed record off the inflated stream.
type Frame struct {
	Type    uint32
	Time    float32
	Payload []byte
}

// FrameReader iterates frames of the form size:u32 type:u32 time:f32
// payload:size-bytes until the stream is exhausted.
type FrameReader struct {
	b   []byte
	pos int
}

// NewFrameReader creates a FrameReader over the full inflated stream.
func NewFrameReader(b []byte) *FrameReader {
	return &FrameReader{b: b}
}

// Done reports whether every frame has been consumed.
func (fr *FrameReader) Done() bool {
	return fr.pos >= len(fr.b)
}

// Next reads the next frame, or returns ErrTruncatedFrame if the stream
// ends mid-header or mid-payload.
func (fr *FrameReader) Next() (Frame, error) {
	if fr.pos+12 > len(fr.b) {
		return Frame{}, fmt.Errorf("%w: at offset %d", ErrTruncatedFrame, fr.pos)
	}
	size := binary.LittleEndian.Uint32(fr.b[fr.pos:])
	typ := binary.LittleEndian.Uint32(fr.b[fr.pos+4:])
	timeBits := binary.LittleEndian.Uint32(fr.b[fr.pos+8:])
	fr.pos += 12

	if fr.pos+int(size) > len(fr.b) {
		return Frame{}, fmt.Errorf("%w: payload of %d bytes at offset %d exceeds stream", ErrTruncatedFrame, size, fr.pos)
	}
	payload := fr.b[fr.pos : fr.pos+int(size)]
	fr.pos += int(size)

	return Frame{
		Type:    typ,
		Time:    math.Float32frombits(timeBits),
		Payload: payload,
	}, nil
}
