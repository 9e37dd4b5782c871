package netpacket

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/icza/wowsreplay/bitpack"
)

// Kind is a frame's wire-level type tag.
type Kind uint32

// Known tags for client version 12.6.0 (spec.md §4.4).
const (
	KindBasePlayerCreate Kind = 0x00
	KindCellPlayerCreate Kind = 0x01
	KindEntityControl    Kind = 0x02
	KindEntityEnter      Kind = 0x03
	KindEntityLeave      Kind = 0x04
	KindEntityCreate     Kind = 0x05
	KindEntityProperty   Kind = 0x07
	KindEntityMethod     Kind = 0x08
	KindPosition         Kind = 0x0A
	KindVersion          Kind = 0x16
	KindPlayerEntity     Kind = 0x20
	KindBattleResults    Kind = 0x22
	KindNestedProperty   Kind = 0x23
	KindCamera           Kind = 0x25
	KindCameraMode       Kind = 0x27
	KindMap              Kind = 0x28
	KindPlayerPosition   Kind = 0x2C
	KindCameraFreeLook   Kind = 0x2F
	KindCruiseState      Kind = 0x32
	KindEndOfGame        Kind = 0xFFFFFFFF
)

// SilentUnknownTags are wire tags observed in the wild whose payload
// shape is unverified (spec.md §9 Open Questions); the demux loop skips
// them without logging, unlike a genuinely unrecognized tag which logs
// at debug level.
var SilentUnknownTags = map[Kind]bool{
	0x18: true,
	0x1D: true,
	0x26: true,
	0x2A: true,
	0x30: true,
}

// Record is any decoded packet. Kind reports which wire tag produced it.
type Record interface {
	Kind() Kind
}

// Vec3 is a three-component float vector, used for positions.
type Vec3 struct {
	X, Y, Z float32
}

func readVec3(r *bitpack.Reader) Vec3 {
	return Vec3{X: r.F32(), Y: r.F32(), Z: r.F32()}
}

// BasePlayerCreate carries the base-property blob for the avatar entity
// the replay owner controls.
type BasePlayerCreate struct {
	EntityID int32
	Value    []byte
}

func (BasePlayerCreate) Kind() Kind { return KindBasePlayerCreate }

// CellPlayerCreate carries the client-internal-property blob for the
// replay owner's avatar.
type CellPlayerCreate struct {
	EntityID int32
	Value    []byte
}

func (CellPlayerCreate) Kind() Kind { return KindCellPlayerCreate }

// EntityControl marks an entity as (not) controlled by this client.
// The controller doesn't subscribe to it; it's parsed only so the
// demultiplexer doesn't misclassify it as unknown.
type EntityControl struct {
	EntityID     int32
	IsControlled bool
}

func (EntityControl) Kind() Kind { return KindEntityControl }

// EntityEnter toggles an entity's area-of-interest membership on.
type EntityEnter struct {
	EntityID int32
}

func (EntityEnter) Kind() Kind { return KindEntityEnter }

// EntityLeave toggles an entity's area-of-interest membership off.
type EntityLeave struct {
	EntityID int32
}

func (EntityLeave) Kind() Kind { return KindEntityLeave }

// EntityCreate constructs a new entity of the given schema type at a
// fixed spawn position. State carries the values_count-prefixed stream
// of (index, encoded value) client properties; the entity package
// decodes it against the EntityDef the type index resolves to.
type EntityCreate struct {
	EntityID int32
	Type     int32
	Position Vec3
	State    []byte
}

func (EntityCreate) Kind() Kind { return KindEntityCreate }

// EntityProperty sets one client property by its schema index. Data is
// the codec-encoded value, decoded by the entity package.
type EntityProperty struct {
	ObjectID  int32
	MessageID uint8
	Data      []byte
}

func (EntityProperty) Kind() Kind { return KindEntityProperty }

// EntityMethod invokes one client method by its schema index. Data is
// the codec-encoded argument list, decoded by the entity package.
type EntityMethod struct {
	EntityID  int32
	MessageID uint8
	Data      []byte
}

func (EntityMethod) Kind() Kind { return KindEntityMethod }

// Position is an absolute position/orientation update for an entity.
type Position struct {
	EntityID int32
	Position Vec3
	Yaw      float32
	Pitch    float32
	Roll     float32
}

func (Position) Kind() Kind { return KindPosition }

// Version carries the client version string embedded in the packet
// stream (redundant with arena_info's clientVersionFromXml, but the
// demultiplexer still surfaces it per the known tag table).
type Version struct {
	Version string
}

func (Version) Kind() Kind { return KindVersion }

// PlayerEntity names the vehicle entity the replay owner is piloting.
type PlayerEntity struct {
	VehicleID int32
}

func (PlayerEntity) Kind() Kind { return KindPlayerEntity }

// BattleResults carries the end-of-match JSON results blob.
type BattleResults struct {
	Data map[string]any
}

func (BattleResults) Kind() Kind { return KindBattleResults }

// NestedProperty is a structured dotted-path edit to an existing
// entity's nested state (e.g. state.missions.teamsScore). Raw retains
// the undecoded payload; the battle controller decodes it into a root
// name, a dotted path and a restricted-pickled leaf value.
type NestedProperty struct {
	EntityID int32
	Raw      []byte
}

func (NestedProperty) Kind() Kind { return KindNestedProperty }

// Camera is a full camera-state sample. The controller never reads it;
// it's decoded fully (grounded on the one concrete layout the original
// client exposes) so the demultiplexer classifies it instead of
// treating it as unknown.
type Camera struct {
	Unknown1         Vec3
	Unknown2         float32
	AbsolutePosition Vec3
	FOV              float32
	Position         Vec3
	Direction        Vec3
	Unknown3         float32
}

func (Camera) Kind() Kind { return KindCamera }

// CameraMode reports which camera mode is active; ignored by the
// controller.
type CameraMode struct {
	Mode int32
}

func (CameraMode) Kind() Kind { return KindCameraMode }

// Map names the battle's space (map) resource.
type Map struct {
	Name string
}

func (Map) Kind() Kind { return KindMap }

// PlayerPosition carries the avatar/vehicle position-mirroring update;
// see entity/battlecontroller wiring for the entityId2 indirection.
type PlayerPosition struct {
	EntityID1 int32
	EntityID2 int32
	Position  Vec3
	Yaw       float32
	Pitch     float32
	Roll      float32
}

func (PlayerPosition) Kind() Kind { return KindPlayerPosition }

// CameraFreeLook reports whether the free-look camera is locked;
// ignored by the controller.
type CameraFreeLook struct {
	Locked bool
}

func (CameraFreeLook) Kind() Kind { return KindCameraFreeLook }

// CruiseState reports a cruise-control key/value pair; ignored by the
// controller.
type CruiseState struct {
	Key   int32
	Value int32
}

func (CruiseState) Kind() Kind { return KindCruiseState }

// EndOfGame is the sentinel 0xFFFFFFFF tag emitted once at the end of
// the stream. Its payload shape is unverified (spec.md §9); it is
// surfaced as an opaque record rather than decoded further.
type EndOfGame struct {
	Raw []byte
}

func (EndOfGame) Kind() Kind { return KindEndOfGame }

// ErrPayloadNotExhausted signals over/under-consumption of a frame's
// payload: strict mode surfaces it, non-strict mode logs and keeps the
// decoded record.
var ErrPayloadNotExhausted = errors.New("netpacket: payload not fully consumed")

// DecodeFunc decodes one frame's payload into a typed Record, reading
// from r. Fixed-shape decoders read exactly their known fields and
// leave exhaustion checking to Decode; decoders whose payload is
// opaque to C4 (entity property/method/state blobs a schema interprets
// later) consume the remainder explicitly via r.Bytes(r.Len()).
type DecodeFunc func(r *bitpack.Reader) (Record, error)

// Mapping is a version-keyed type -> decoder table (PACKETS_MAPPING).
type Mapping map[Kind]DecodeFunc

// DefaultMapping12_6_0 is the known packet tag table for client version
// 12.6.0 (spec.md §4.4).
func DefaultMapping12_6_0() Mapping {
	return Mapping{
		KindBasePlayerCreate: decodeBasePlayerCreate,
		KindCellPlayerCreate: decodeCellPlayerCreate,
		KindEntityControl:    decodeEntityControl,
		KindEntityEnter:      decodeEntityEnter,
		KindEntityLeave:      decodeEntityLeave,
		KindEntityCreate:     decodeEntityCreate,
		KindEntityProperty:   decodeEntityProperty,
		KindEntityMethod:     decodeEntityMethod,
		KindPosition:         decodePosition,
		KindVersion:          decodeVersion,
		KindPlayerEntity:     decodePlayerEntity,
		KindBattleResults:    decodeBattleResults,
		KindNestedProperty:   decodeNestedProperty,
		KindCamera:           decodeCamera,
		KindCameraMode:       decodeCameraMode,
		KindMap:              decodeMap,
		KindPlayerPosition:   decodePlayerPosition,
		KindCameraFreeLook:   decodeCameraFreeLook,
		KindCruiseState:      decodeCruiseState,
		KindEndOfGame:        decodeEndOfGame,
	}
}

// Decode looks up f.Type in mapping and decodes its payload. ok reports
// whether the tag was recognized at all (false means "unknown tag",
// distinct from a recognized-but-malformed payload, which returns a
// non-nil error instead). exhausted is only meaningful when err==nil;
// it's false when the decoder left trailing bytes unconsumed, which the
// caller treats as ErrPayloadNotExhausted under strict/non-strict policy.
func Decode(f Frame, mapping Mapping) (rec Record, exhausted bool, ok bool, err error) {
	decode, known := mapping[Kind(f.Type)]
	if !known {
		return nil, false, false, nil
	}
	r := bitpack.NewReader(f.Payload)
	rec, err = decode(r)
	if err != nil {
		return nil, false, true, err
	}
	if err := r.Err(); err != nil {
		return nil, false, true, err
	}
	return rec, r.Exhausted(), true, nil
}

func decodeBasePlayerCreate(r *bitpack.Reader) (Record, error) {
	id := r.I32()
	value := r.Bytes(r.Len())
	return BasePlayerCreate{EntityID: id, Value: value}, nil
}

func decodeCellPlayerCreate(r *bitpack.Reader) (Record, error) {
	id := r.I32()
	value := r.Bytes(r.Len())
	return CellPlayerCreate{EntityID: id, Value: value}, nil
}

func decodeEntityControl(r *bitpack.Reader) (Record, error) {
	id := r.I32()
	controlled := r.U8() != 0
	return EntityControl{EntityID: id, IsControlled: controlled}, nil
}

func decodeEntityEnter(r *bitpack.Reader) (Record, error) {
	id := r.I32()
	return EntityEnter{EntityID: id}, nil
}

func decodeEntityLeave(r *bitpack.Reader) (Record, error) {
	id := r.I32()
	return EntityLeave{EntityID: id}, nil
}

func decodeEntityCreate(r *bitpack.Reader) (Record, error) {
	id := r.I32()
	typ := r.I32()
	pos := readVec3(r)
	state := r.Bytes(r.Len())
	return EntityCreate{EntityID: id, Type: typ, Position: pos, State: state}, nil
}

func decodeEntityProperty(r *bitpack.Reader) (Record, error) {
	objectID := r.I32()
	messageID := r.U8()
	data := r.Bytes(r.Len())
	return EntityProperty{ObjectID: objectID, MessageID: messageID, Data: data}, nil
}

func decodeEntityMethod(r *bitpack.Reader) (Record, error) {
	entityID := r.I32()
	messageID := r.U8()
	data := r.Bytes(r.Len())
	return EntityMethod{EntityID: entityID, MessageID: messageID, Data: data}, nil
}

func decodePosition(r *bitpack.Reader) (Record, error) {
	id := r.I32()
	pos := readVec3(r)
	yaw, pitch, roll := r.F32(), r.F32(), r.F32()
	return Position{EntityID: id, Position: pos, Yaw: yaw, Pitch: pitch, Roll: roll}, nil
}

func decodeVersion(r *bitpack.Reader) (Record, error) {
	rest := r.Bytes(r.Len())
	return Version{Version: strings.TrimRight(string(rest), "\x00")}, nil
}

func decodePlayerEntity(r *bitpack.Reader) (Record, error) {
	id := r.I32()
	return PlayerEntity{VehicleID: id}, nil
}

func decodeBattleResults(r *bitpack.Reader) (Record, error) {
	size := r.I32()
	if size < 0 || int(size) > r.Len() {
		return nil, fmt.Errorf("netpacket: BattleResults size %d exceeds payload", size)
	}
	body := r.Bytes(int(size))
	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("netpacket: BattleResults is not valid JSON: %w", err)
	}
	return BattleResults{Data: data}, nil
}

func decodeNestedProperty(r *bitpack.Reader) (Record, error) {
	id := r.I32()
	rest := r.Bytes(r.Len())
	return NestedProperty{EntityID: id, Raw: rest}, nil
}

func decodeCamera(r *bitpack.Reader) (Record, error) {
	c := Camera{
		Unknown1: readVec3(r),
		Unknown2: r.F32(),
	}
	c.AbsolutePosition = readVec3(r)
	c.FOV = r.F32()
	c.Position = readVec3(r)
	c.Direction = readVec3(r)
	c.Unknown3 = r.F32()
	return c, nil
}

func decodeCameraMode(r *bitpack.Reader) (Record, error) {
	mode := r.I32()
	return CameraMode{Mode: mode}, nil
}

func decodeMap(r *bitpack.Reader) (Record, error) {
	rest := r.Bytes(r.Len())
	return Map{Name: strings.TrimRight(string(rest), "\x00")}, nil
}

func decodePlayerPosition(r *bitpack.Reader) (Record, error) {
	id1 := r.I32()
	id2 := r.I32()
	pos := readVec3(r)
	yaw, pitch, roll := r.F32(), r.F32(), r.F32()
	return PlayerPosition{EntityID1: id1, EntityID2: id2, Position: pos, Yaw: yaw, Pitch: pitch, Roll: roll}, nil
}

func decodeCameraFreeLook(r *bitpack.Reader) (Record, error) {
	locked := r.U8() != 0
	return CameraFreeLook{Locked: locked}, nil
}

func decodeCruiseState(r *bitpack.Reader) (Record, error) {
	key := r.I32()
	value := r.I32()
	return CruiseState{Key: key, Value: value}, nil
}

func decodeEndOfGame(r *bitpack.Reader) (Record, error) {
	return EndOfGame{Raw: r.Bytes(r.Len())}, nil
}
