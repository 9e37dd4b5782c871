package wowscipher

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"
	"testing/quick"
)

func TestDecodeInvalidSignature(t *testing.T) {
	_, err := Decode(bytes.Repeat([]byte{0x00}, 16))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestDecryptEncryptRoundTrip(t *testing.T) {
	f := func(blocks []byte) bool {
		n := len(blocks) - len(blocks)%blockSize
		plaintext := blocks[:n]

		ciphertext, err := encrypt(plaintext)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		got, err := decrypt(ciphertext)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		return bytes.Equal(got, plaintext)
	}
	if err := quick.Check(f, nil); err != nil {
		t.Error(err)
	}
}

func TestDecryptTruncatedCipher(t *testing.T) {
	_, err := decrypt([]byte{1, 2, 3})
	if !errors.Is(err, ErrTruncatedCipher) {
		t.Fatalf("expected ErrTruncatedCipher, got %v", err)
	}
}

// buildReplay assembles a minimal, well-formed .wowsreplay byte stream
// for Decode to parse, so the framing/decrypt/inflate pipeline can be
// exercised end-to-end without a real game-produced file.
func buildReplay(t *testing.T, arenaInfo map[string]any, extras [][]byte, packetStream []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(magic[:])

	count := int32(len(extras) + 1)
	binary.Write(&buf, binary.LittleEndian, count)

	arenaJSON, err := json.Marshal(arenaInfo)
	if err != nil {
		t.Fatalf("marshal arena info: %v", err)
	}
	binary.Write(&buf, binary.LittleEndian, int32(len(arenaJSON)))
	buf.Write(arenaJSON)

	for _, e := range extras {
		binary.Write(&buf, binary.LittleEndian, int32(len(e)))
		buf.Write(e)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(packetStream); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	// Pad to a multiple of the block size the way the client's encoder
	// would; Decode checks the inflated length against raw_size, ignores
	// compressed_size, and never looks at the padding.
	plaintext := compressed.Bytes()
	for len(plaintext)%blockSize != 0 {
		plaintext = append(plaintext, 0)
	}
	ciphertext, err := encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	binary.Write(&buf, binary.LittleEndian, int32(len(packetStream)))
	binary.Write(&buf, binary.LittleEndian, int32(len(ciphertext)))
	buf.Write(ciphertext)

	return buf.Bytes()
}

func TestDecodeHappyPath(t *testing.T) {
	arenaInfo := map[string]any{"arenaUniqueID": float64(7), "clientVersionFromXml": "12,6,0"}
	extras := [][]byte{[]byte("extra-blob")}
	packetStream := []byte("fake packet stream bytes")

	data := buildReplay(t, arenaInfo, extras, packetStream)

	c, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if c.ArenaInfo["clientVersionFromXml"] != "12,6,0" {
		t.Errorf("arena info = %+v", c.ArenaInfo)
	}
	if len(c.Extras) != 1 || string(c.Extras[0]) != "extra-blob" {
		t.Errorf("extras = %+v", c.Extras)
	}
	if !bytes.Equal(c.Stream, packetStream) {
		t.Errorf("stream = %q, want %q", c.Stream, packetStream)
	}
}

func TestDecodeSizeMismatch(t *testing.T) {
	arenaInfo := map[string]any{"arenaUniqueID": float64(1)}
	arenaJSON, err := json.Marshal(arenaInfo)
	if err != nil {
		t.Fatalf("marshal arena info: %v", err)
	}
	data := buildReplay(t, arenaInfo, nil, []byte("some bytes"))

	// raw_size is the first int32 after magic(4) + count(4) + block_size(4)
	// + arena_info JSON; corrupt it so inflate's length assertion fails.
	rawSizeOffset := 4 + 4 + 4 + len(arenaJSON)
	corrupted := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(corrupted[rawSizeOffset:], 999)

	_, err = Decode(corrupted)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch, got %v", err)
	}
}
