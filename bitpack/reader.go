/*

Package bitpack implements the low-level decoding primitives shared by the
replay container decoder and the entity property/method codecs: fixed-width
little-endian integers and floats, length-prefixed blobs, bit-packed tuples,
and a restricted object-graph (pickle-shaped) decoder for the small blobs the
game embeds as Python pickle payloads (player rosters, damage stat matrices,
consumable dumps).

*/
package bitpack

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrTruncated is returned when a read would run past the end of the buffer.
var ErrTruncated = errors.New("bitpack: truncated payload")

// Reader reads little-endian primitives from a byte slice, advancing an
// internal cursor. It never panics on short input; every read method
// reports ErrTruncated via the Err() accessor once the slice is exhausted,
// and subsequent reads return zero values. This lets call sites decode a
// whole record and check Err() once at the end instead of threading error
// returns through every field read.
type Reader struct {
	b   []byte
	pos int
	err error
}

// NewReader creates a Reader over b.
func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Err returns the first error encountered, if any.
func (r *Reader) Err() error {
	return r.err
}

// Pos returns the current read cursor.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	if r.pos >= len(r.b) {
		return 0
	}
	return len(r.b) - r.pos
}

// Exhausted tells whether every byte has been consumed (and no error
// occurred). Entity property decoding uses this to detect trailing bytes.
func (r *Reader) Exhausted() bool {
	return r.err == nil && r.pos == len(r.b)
}

func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.b) {
		r.err = fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, len(r.b)-r.pos)
		return nil
	}
	s := r.b[r.pos : r.pos+n]
	r.pos += n
	return s
}

// U8 reads an unsigned byte.
func (r *Reader) U8() uint8 {
	s := r.take(1)
	if s == nil {
		return 0
	}
	return s[0]
}

// U16 reads a little-endian uint16.
func (r *Reader) U16() uint16 {
	s := r.take(2)
	if s == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(s)
}

// U32 reads a little-endian uint32.
func (r *Reader) U32() uint32 {
	s := r.take(4)
	if s == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(s)
}

// U64 reads a little-endian uint64.
func (r *Reader) U64() uint64 {
	s := r.take(8)
	if s == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(s)
}

// I32 reads a little-endian int32.
func (r *Reader) I32() int32 {
	return int32(r.U32())
}

// F32 reads a little-endian IEEE-754 single.
func (r *Reader) F32() float32 {
	return math.Float32frombits(r.U32())
}

// F64 reads a little-endian IEEE-754 double.
func (r *Reader) F64() float64 {
	return math.Float64frombits(r.U64())
}

// Bytes reads n raw bytes.
func (r *Reader) Bytes(n int) []byte {
	s := r.take(n)
	if s == nil {
		return nil
	}
	cp := make([]byte, n)
	copy(cp, s)
	return cp
}

// String reads n bytes and returns them as a string (no trimming).
func (r *Reader) String(n int) string {
	s := r.take(n)
	return string(s)
}

// Blob reads a uint32 length prefix followed by that many bytes.
func (r *Reader) Blob() []byte {
	n := r.U32()
	return r.Bytes(int(n))
}
