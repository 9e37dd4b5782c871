package wowsparser

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/klauspost/compress/zlib"

	"github.com/icza/wowsreplay/netpacket"
	"github.com/icza/wowsreplay/schema"
	"github.com/icza/wowsreplay/wowscipher"
)

var containerMagic = [4]byte{0x12, 0x32, 0x34, 0x11}

// -- minimal schema.Provider fixture, enough to decode the BattleLogic
// entity's "state" property as a JSON-encoded map. --

type jsonCodec struct{}

func (jsonCodec) Decode(r schema.ByteCursor) (any, error) {
	b := r.Blob()
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

type fakeConstants struct{}

func (fakeConstants) Table(string) (any, bool) { return nil, false }

type fakeDefs struct {
	battleLogic *schema.EntityDef
}

func (d fakeDefs) ByName(name string) (*schema.EntityDef, bool) {
	if name == "BattleLogic" {
		return d.battleLogic, true
	}
	return nil, false
}

func (d fakeDefs) ByIndex(i int) (*schema.EntityDef, bool) {
	if i == 0 {
		return d.battleLogic, true
	}
	return nil, false
}

type fakeProvider struct {
	version string
	ver     *schema.Version
}

func (p fakeProvider) For(version string) (*schema.Version, error) {
	if version != p.version {
		return nil, fmt.Errorf("%w: %s", schema.ErrUnsupportedVersion, version)
	}
	return p.ver, nil
}

func newFixtureProvider() fakeProvider {
	def := &schema.EntityDef{
		Name:   "BattleLogic",
		Client: []schema.PropertyDef{{Name: "state", Codec: jsonCodec{}}},
	}
	return fakeProvider{
		version: "12.6.0",
		ver: &schema.Version{
			Constants:   fakeConstants{},
			Definitions: fakeDefs{battleLogic: def},
		},
	}
}

// -- wire-building helpers --

func frameBytes(kind netpacket.Kind, t float32, payload []byte) []byte {
	buf := make([]byte, 12+len(payload))
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(buf[4:], uint32(kind))
	binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(t))
	copy(buf[12:], payload)
	return buf
}

func blobBytes(b []byte) []byte {
	out := make([]byte, 4+len(b))
	binary.LittleEndian.PutUint32(out, uint32(len(b)))
	copy(out[4:], b)
	return out
}

func i32Bytes(v int32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(v))
	return b
}

// buildContainer packages arenaInfo and a plaintext packet stream into a
// valid .wowsreplay byte buffer: magic, arena-info JSON, zlib-compressed
// and Blowfish-ECB+XOR-chain-encrypted stream.
func buildContainer(t *testing.T, arenaInfo map[string]any, stream []byte) []byte {
	t.Helper()

	arenaJSON, err := json.Marshal(arenaInfo)
	if err != nil {
		t.Fatalf("marshal arena info: %v", err)
	}

	var compressedBuf bytes.Buffer
	zw := zlib.NewWriter(&compressedBuf)
	if _, err := zw.Write(stream); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	compressed := compressedBuf.Bytes()
	for len(compressed)%8 != 0 {
		compressed = append(compressed, 0)
	}

	cipher, err := wowscipher.Encrypt(compressed)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	var buf bytes.Buffer
	buf.Write(containerMagic[:])
	buf.Write(i32Bytes(1)) // count: no extras blobs
	buf.Write(i32Bytes(int32(len(arenaJSON))))
	buf.Write(arenaJSON)
	buf.Write(i32Bytes(int32(len(stream))))      // raw_size
	buf.Write(i32Bytes(int32(len(compressed))))  // compressed_size (unchecked)
	buf.Write(cipher)
	return buf.Bytes()
}

// TestParseInvalidSignature covers spec.md §8 scenario S1.
func TestParseInvalidSignature(t *testing.T) {
	prov := newFixtureProvider()
	_, err := Parse([]byte{0, 0, 0, 0, 0, 0, 0, 0}, prov)
	if !errors.Is(err, ErrNotReplayFile) {
		t.Fatalf("Parse() error = %v, want wrapping ErrNotReplayFile", err)
	}
}

// TestParseMinimalHappyPath covers spec.md §8 scenario S2.
func TestParseMinimalHappyPath(t *testing.T) {
	teamsScoreJSON, err := json.Marshal(map[string]any{
		"missions": map[string]any{
			"teamsScore": []map[string]any{
				{"teamId": 0, "score": 0},
				{"teamId": 1, "score": 0},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal teamsScore: %v", err)
	}
	entityState := append([]byte{0x01, 0x00}, blobBytes(teamsScoreJSON)...)
	entityCreatePayload := append(append(i32Bytes(1), i32Bytes(0)...), make([]byte, 12)...)
	entityCreatePayload = append(entityCreatePayload, entityState...)

	resultsJSON, err := json.Marshal(map[string]any{
		"arenaUniqueID": 7,
		"accountDBID":   1,
		"winnerTeamId":  0,
		"finishReason":  "1",
	})
	if err != nil {
		t.Fatalf("marshal battle results: %v", err)
	}
	battleResultsPayload := append(i32Bytes(int32(len(resultsJSON))), resultsJSON...)

	var stream []byte
	stream = append(stream, frameBytes(netpacket.KindVersion, 0, []byte("12,6,0"))...)
	stream = append(stream, frameBytes(netpacket.KindMap, 0, []byte("spaces/42_Neighbors"))...)
	stream = append(stream, frameBytes(netpacket.KindEntityCreate, 0, entityCreatePayload)...)
	stream = append(stream, frameBytes(netpacket.KindBattleResults, 0, battleResultsPayload)...)

	container := buildContainer(t, map[string]any{"clientVersionFromXml": "12,6,0"}, stream)

	result, err := Parse(container, newFixtureProvider())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if result.Data.Map != "42_Neighbors" {
		t.Errorf("Map = %q, want %q", result.Data.Map, "42_Neighbors")
	}
	if result.Data.ArenaID != 7 {
		t.Errorf("ArenaID = %d, want 7", result.Data.ArenaID)
	}
	if len(result.Data.Snapshots) != 0 {
		t.Errorf("len(Snapshots) = %d, want 0 (period=0 disables snapshots, boundary case 10)", len(result.Data.Snapshots))
	}
}

// TestParseUnsupportedVersion exercises schema.ErrUnsupportedVersion
// surfacing through the orchestrator when no schema is registered for
// the replay's client version.
func TestParseUnsupportedVersion(t *testing.T) {
	container := buildContainer(t, map[string]any{"clientVersionFromXml": "0,0,1"}, nil)

	_, err := Parse(container, newFixtureProvider())
	if !errors.Is(err, schema.ErrUnsupportedVersion) {
		t.Fatalf("Parse() error = %v, want wrapping ErrUnsupportedVersion", err)
	}
}
