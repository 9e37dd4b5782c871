/*

Package wowscipher implements the .wowsreplay container format: magic
check, arena-info/extras framing, Blowfish-ECB decryption with
XOR-chained blocks, and zlib inflation of the resulting packet stream.

*/
package wowscipher

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/crypto/blowfish"
)

// Fatal container-decode errors (spec §7 "Fatal").
var (
	ErrInvalidSignature = errors.New("wowscipher: invalid signature")
	ErrTruncatedCipher  = errors.New("wowscipher: ciphertext is not a multiple of the block size")
	ErrSizeMismatch     = errors.New("wowscipher: inflated size does not match the recorded raw size")
)

// magic is the fixed 4-byte header every .wowsreplay file starts with.
var magic = [4]byte{0x12, 0x32, 0x34, 0x11}

// blowfishKey is the fixed 16-byte key used to decrypt the packet stream.
var blowfishKey = []byte{
	0x29, 0xB7, 0xC9, 0x09, 0x38, 0x3F, 0x84, 0x88,
	0xFA, 0x98, 0xEC, 0x4E, 0x13, 0x19, 0x79, 0xFB,
}

const blockSize = 8

// Container is the result of decoding a .wowsreplay file's outer shell:
// the arena-info JSON block, any extra length-prefixed blobs, and the
// fully decrypted and inflated packet stream.
type Container struct {
	ArenaInfo map[string]any
	Extras    [][]byte
	Stream    []byte
}

// Decode parses the full .wowsreplay container shell from b.
func Decode(b []byte) (*Container, error) {
	r := &reader{b: b}

	var sig [4]byte
	if !r.read(sig[:]) {
		return nil, fmt.Errorf("%w: file shorter than the magic header", ErrInvalidSignature)
	}
	if sig != magic {
		return nil, ErrInvalidSignature
	}

	count, ok := r.i32()
	if !ok {
		return nil, fmt.Errorf("%w: truncated before count", ErrInvalidSignature)
	}
	blockLen, ok := r.i32()
	if !ok {
		return nil, fmt.Errorf("%w: truncated before block_size", ErrInvalidSignature)
	}
	if blockLen < 0 {
		return nil, fmt.Errorf("%w: negative arena_info block size", ErrInvalidSignature)
	}
	arenaInfoRaw, ok := r.bytes(int(blockLen))
	if !ok {
		return nil, fmt.Errorf("%w: truncated arena_info block", ErrInvalidSignature)
	}

	var arenaInfo map[string]any
	if err := json.Unmarshal(arenaInfoRaw, &arenaInfo); err != nil {
		return nil, fmt.Errorf("wowscipher: arena_info is not valid JSON: %w", err)
	}

	if count < 1 {
		return nil, fmt.Errorf("%w: count must be at least 1, got %d", ErrInvalidSignature, count)
	}
	extras := make([][]byte, 0, count-1)
	for i := int32(0); i < count-1; i++ {
		blob, ok := r.blob()
		if !ok {
			return nil, fmt.Errorf("wowscipher: truncated extras blob %d", i)
		}
		extras = append(extras, blob)
	}

	rawSize, ok := r.i32()
	if !ok {
		return nil, fmt.Errorf("wowscipher: truncated before raw_size")
	}
	_, ok = r.i32() // compressed_size: not needed to decode, present for parity with the format
	if !ok {
		return nil, fmt.Errorf("wowscipher: truncated before compressed_size")
	}
	ciphertext := r.rest()

	plaintext, err := decrypt(ciphertext)
	if err != nil {
		return nil, err
	}

	stream, err := inflate(plaintext, int(rawSize))
	if err != nil {
		return nil, err
	}

	return &Container{
		ArenaInfo: arenaInfo,
		Extras:    extras,
		Stream:    stream,
	}, nil
}

// decrypt applies Blowfish-ECB to each 8-byte block and XOR-chains the
// decrypted blocks: P_0 = D_0, P_i = D_i XOR P_{i-1} for i > 0.
func decrypt(ciphertext []byte) ([]byte, error) {
	if len(ciphertext)%blockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedCipher, len(ciphertext))
	}
	cipher, err := blowfish.NewCipher(blowfishKey)
	if err != nil {
		return nil, fmt.Errorf("wowscipher: blowfish key setup: %w", err)
	}

	out := make([]byte, len(ciphertext))
	var prev [blockSize]byte
	var decoded [blockSize]byte
	for off := 0; off < len(ciphertext); off += blockSize {
		cipher.Decrypt(decoded[:], ciphertext[off:off+blockSize])
		block := out[off : off+blockSize]
		for i := 0; i < blockSize; i++ {
			if off == 0 {
				block[i] = decoded[i]
			} else {
				block[i] = decoded[i] ^ prev[i]
			}
		}
		copy(prev[:], block)
	}
	return out, nil
}

// encrypt is the inverse of decrypt. The decode path never calls it;
// tests use it, directly and through the exported Encrypt, to build
// ciphertext fixtures and to check the round trip.
func encrypt(plaintext []byte) ([]byte, error) {
	if len(plaintext)%blockSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedCipher, len(plaintext))
	}
	cipher, err := blowfish.NewCipher(blowfishKey)
	if err != nil {
		return nil, fmt.Errorf("wowscipher: blowfish key setup: %w", err)
	}

	out := make([]byte, len(plaintext))
	var prev [blockSize]byte
	var d [blockSize]byte
	for off := 0; off < len(plaintext); off += blockSize {
		block := plaintext[off : off+blockSize]
		for i := 0; i < blockSize; i++ {
			if off == 0 {
				d[i] = block[i]
			} else {
				d[i] = block[i] ^ prev[i]
			}
		}
		copy(prev[:], block)
		cipher.Encrypt(out[off:off+blockSize], d[:])
	}
	return out, nil
}

// Encrypt packages encrypt for use by tests in other packages of the
// module (e.g. fixture generation for the orchestrator's happy-path
// scenario test).
func Encrypt(plaintext []byte) ([]byte, error) { return encrypt(plaintext) }

func inflate(compressed []byte, rawSize int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("wowscipher: zlib init: %w", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("wowscipher: zlib inflate: %w", err)
	}
	if len(out) != rawSize {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrSizeMismatch, rawSize, len(out))
	}
	return out, nil
}

// reader is a small forward-only cursor over the container's byte shell.
// Unlike bitpack.Reader it reports failures via bool returns rather than
// a sticky error, since the container decode needs distinct error
// messages at each framing step.
type reader struct {
	b   []byte
	pos int
}

func (r *reader) read(dst []byte) bool {
	if r.pos+len(dst) > len(r.b) {
		return false
	}
	copy(dst, r.b[r.pos:r.pos+len(dst)])
	r.pos += len(dst)
	return true
}

func (r *reader) bytes(n int) ([]byte, bool) {
	if n < 0 || r.pos+n > len(r.b) {
		return nil, false
	}
	s := r.b[r.pos : r.pos+n]
	r.pos += n
	return s, true
}

func (r *reader) i32() (int32, bool) {
	var b [4]byte
	if !r.read(b[:]) {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(b[:])), true
}

func (r *reader) blob() ([]byte, bool) {
	n, ok := r.i32()
	if !ok || n < 0 {
		return nil, false
	}
	return r.bytes(int(n))
}

func (r *reader) rest() []byte {
	return r.b[r.pos:]
}
