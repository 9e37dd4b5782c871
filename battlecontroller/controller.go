/*

Package battlecontroller implements the stateful reducer that turns
decoded entity events into a complete replay.ReplayData tree: players,
buildings, squadrons, zones, smokes, scores, and the periodic snapshots
that anchor every per-tick timeline.

A Controller owns the id -> *entity.Entity map (the decoder's only
owner, per the no-back-pointer design) and a static entity.Registry of
(type, member) -> handler subscriptions built once at construction.
Dispatch feeds it one decoded netpacket.Record at a time; the
controller never reads ahead or reorders.

*/
package battlecontroller

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/icza/wowsreplay/bitpack"
	"github.com/icza/wowsreplay/entity"
	"github.com/icza/wowsreplay/netpacket"
	"github.com/icza/wowsreplay/replay"
	"github.com/icza/wowsreplay/schema"
)

// Fatal errors (spec.md §7 "Fatal").
var (
	ErrArenaIDMismatch  = errors.New("battlecontroller: battle results arenaUniqueID does not match arena_id")
	ErrIncompleteReplay = errors.New("battlecontroller: no battle_results ever arrived")
)

// Per-packet recoverable errors (spec.md §7).
var (
	ErrUnknownPacketType = errors.New("battlecontroller: unknown packet type")
	ErrDispatchFailure   = errors.New("battlecontroller: dispatch failure")
)

// Entity type names the controller's hooks are registered against.
// These are the WoWS client's own entity class names, carried verbatim
// from the wire (schema.Definitions resolves them); the controller
// hardcodes them only as subscription keys, never as decoding logic.
const (
	typeAvatar          = "Avatar"
	typeVehicle         = "Vehicle"
	typeBuilding        = "Building"
	typeBattleLogic     = "BattleLogic"
	typeInteractiveZone = "InteractiveZone"
	typeSmokeScreen     = "SmokeScreen"
)

// Controller reduces a decoded packet stream into replay.ReplayData.
type Controller struct {
	schema   *schema.Version
	registry *entity.Registry
	strict   bool
	logger   zerolog.Logger

	entities map[int32]*entity.Entity

	period      float32
	currentTime float32
	previousBar float32
	timeLeft    int32
	battleStage int32

	arenaID           int64
	arenaIDSet        bool
	version           string
	mapName           string
	gameMode          string
	ownerAvatarID     int
	ownerAccountID    int
	ownerID           int
	ownerVehicleID    int
	battleLogic       *replay.BattleLogic
	battleResultsSeen bool

	players       map[int]*replay.Player
	buildings     map[int]*replay.Building
	vehicleStates map[int]*replay.VehicleState
	buildingState map[int]*replay.BuildingState
	squadrons     map[int]*replay.Squadron
	squadronPos   map[int][2]float32
	crewSkills    map[int]replay.CrewSkills
	drops         map[int]replay.DropData
	zoneScalars   map[int]*zoneScalar

	teams          []int
	currentScore   map[int]int16
	focusedBy      int
	currentStats   map[string]float64
	currentRibbons map[string]int

	events    replay.Events
	snapshots []replay.Snapshot

	// err is set by a hook handler when it encounters a malformed or
	// schema-mismatched payload; Dispatch clears it before applying a
	// record and checks it after firing subscribers, per the registry's error-less handler
	// signature (spec.md §9: subscribers are plain callbacks, so
	// failures surface through this sticky field instead of a return
	// value threaded through FireMethod/FireProperty/FireNested).
	err error
}

// Config configures a Controller.
type Config struct {
	Schema *schema.Version
	Period float32
	Strict bool
	Logger zerolog.Logger
}

// New builds a Controller and registers its fixed hook set against a
// fresh entity.Registry.
func New(cfg Config) *Controller {
	c := &Controller{
		schema:        cfg.Schema,
		registry:      entity.NewRegistry(),
		strict:        cfg.Strict,
		logger:        cfg.Logger,
		entities:      make(map[int32]*entity.Entity),
		period:        cfg.Period,
		battleStage:   -1,
		players:       make(map[int]*replay.Player),
		buildings:     make(map[int]*replay.Building),
		vehicleStates: make(map[int]*replay.VehicleState),
		buildingState: make(map[int]*replay.BuildingState),
		squadrons:     make(map[int]*replay.Squadron),
		squadronPos:   make(map[int][2]float32),
		crewSkills:    make(map[int]replay.CrewSkills),
		drops:         make(map[int]replay.DropData),
		zoneScalars:   make(map[int]*zoneScalar),
		currentScore:  make(map[int]int16),
		currentStats:  make(map[string]float64),
		currentRibbons: make(map[string]int),
		events: replay.Events{
			BuildingStates: make(map[int]*replay.BuildingStates),
			DeadBuildings:  make(map[int]float32),
			DeadVehicles:   make(map[int]float32),
			Score:          make(map[int][]int16),
			Smokes:         make(map[int]*replay.SmokeScreen),
			VehicleStates:  make(map[int]*replay.VehicleStates),
			Zones:          make(map[int]*replay.InteractiveZone),
		},
	}
	c.subscribe()
	return c
}

// fail records err on the controller for Dispatch to surface after the
// current handler returns; it never overwrites an earlier error within
// the same packet so the first failure wins.
func (c *Controller) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

// entityDef resolves a wire type index to its schema definition,
// failing with SchemaError-shaped context the caller turns into a
// recoverable dispatch error.
func (c *Controller) entityDef(typeIndex int32) (*schema.EntityDef, error) {
	def, ok := c.schema.Definitions.ByIndex(int(typeIndex))
	if !ok {
		return nil, fmt.Errorf("%w: no entity definition for type index %d", ErrDispatchFailure, typeIndex)
	}
	return def, nil
}

func (c *Controller) entityByName(name string) (*schema.EntityDef, error) {
	def, ok := c.schema.Definitions.ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: no entity definition named %q", ErrDispatchFailure, name)
	}
	return def, nil
}

func (c *Controller) getOrCreate(id int32, typeName string) (*entity.Entity, error) {
	if e, ok := c.entities[id]; ok {
		return e, nil
	}
	def, err := c.entityByName(typeName)
	if err != nil {
		return nil, err
	}
	e := entity.New(id, def)
	c.entities[id] = e
	return e, nil
}

// Dispatch applies one decoded record, at the given stream time, to the
// controller's state. Errors returned here are per-packet recoverable
// (spec.md §7): the caller decides strict/non-strict handling.
func (c *Controller) Dispatch(rec netpacket.Record, t float32) error {
	c.setCurrentTime(t)
	c.err = nil

	switch r := rec.(type) {
	case netpacket.BasePlayerCreate:
		e, err := c.getOrCreate(r.EntityID, typeAvatar)
		if err != nil {
			return err
		}
		if _, err := e.ApplyBasePropertyState(r.Value); err != nil {
			return err
		}
		c.onEntityCreated(e)
	case netpacket.CellPlayerCreate:
		e, err := c.getOrCreate(r.EntityID, typeAvatar)
		if err != nil {
			return err
		}
		if _, err := e.ApplyClientInternalPropertyState(r.Value); err != nil {
			return err
		}
	case netpacket.EntityEnter:
		if e, ok := c.entities[r.EntityID]; ok {
			e.InAOI = true
		}
	case netpacket.EntityLeave:
		if e, ok := c.entities[r.EntityID]; ok {
			e.InAOI = false
		}
		if s, ok := c.events.Smokes[int(r.EntityID)]; ok && s.DespawnTime == nil {
			now := c.currentTime
			s.DespawnTime = &now
		}
	case netpacket.EntityCreate:
		def, err := c.entityDef(r.Type)
		if err != nil {
			return err
		}
		e := entity.New(r.EntityID, def)
		e.Position = [3]float32{r.Position.X, r.Position.Y, r.Position.Z}
		c.entities[r.EntityID] = e
		edits, err := e.ApplyEntityCreateState(r.State)
		if err != nil {
			return err
		}
		c.onEntityCreated(e)
		for _, edit := range edits {
			c.registry.FireProperty(e, edit.Name, edit.Value)
		}
	case netpacket.EntityProperty:
		e, ok := c.entities[r.ObjectID]
		if !ok {
			return nil // silent: property for an entity we haven't seen (AOI race), spec.md §7
		}
		rr := bitpack.NewReader(r.Data)
		name, value, err := e.SetClientProperty(int(r.MessageID), rr)
		if err != nil {
			return err
		}
		c.registry.FireProperty(e, name, value)
	case netpacket.EntityMethod:
		e, ok := c.entities[r.EntityID]
		if !ok {
			return nil // silent, see above
		}
		rr := bitpack.NewReader(r.Data)
		name, args, err := e.CallClientMethod(int(r.MessageID), rr)
		if err != nil {
			return err
		}
		c.registry.FireMethod(e, name, args)
	case netpacket.NestedProperty:
		e, ok := c.entities[r.EntityID]
		if !ok {
			return nil
		}
		root, path, value, err := decodeNestedEdit(r.Raw)
		if err != nil {
			return fmt.Errorf("%w: nested property: %v", ErrDispatchFailure, err)
		}
		dotted := root
		if len(path) > 0 {
			dotted = root + "." + joinDots(path)
		}
		c.registry.FireNested(e, dotted, path, value)
	case netpacket.Position:
		if e, ok := c.entities[r.EntityID]; ok {
			e.Position = [3]float32{r.Position.X, r.Position.Y, r.Position.Z}
			e.Yaw, e.Pitch, e.Roll = r.Yaw, r.Pitch, r.Roll
		}
	case netpacket.PlayerPosition:
		// Supplemented from original_source: with EntityID2 unset the
		// packet's own position applies to EntityID1; with EntityID2 set,
		// EntityID1 (an avatar) takes on the position and orientation of
		// EntityID2 (the vehicle it is linked to).
		e1, ok := c.entities[r.EntityID1]
		if !ok {
			break
		}
		if r.EntityID2 == 0 {
			e1.Position = [3]float32{r.Position.X, r.Position.Y, r.Position.Z}
			e1.Yaw, e1.Pitch, e1.Roll = r.Yaw, r.Pitch, r.Roll
		} else if e2, ok := c.entities[r.EntityID2]; ok {
			e1.Position, e1.Yaw, e1.Pitch, e1.Roll = e2.Position, e2.Yaw, e2.Pitch, e2.Roll
		}
	case netpacket.Version:
		c.version = r.Version
	case netpacket.Map:
		c.mapName = stripSpacesPrefix(r.Name)
	case netpacket.PlayerEntity:
		c.ownerVehicleID = int(r.VehicleID)
	case netpacket.BattleResults:
		if err := c.ingestBattleResults(r.Data); err != nil {
			return err
		}
	case netpacket.EntityControl, netpacket.Camera, netpacket.CameraMode,
		netpacket.CameraFreeLook, netpacket.CruiseState, netpacket.EndOfGame:
		// No battle-state signal; parsed only so the demux classifies
		// the tag instead of treating it as unknown (spec.md §4.4,
		// SPEC_FULL.md supplement 4).
	default:
		return fmt.Errorf("%w: %T", ErrUnknownPacketType, rec)
	}

	if c.err != nil {
		return c.err
	}
	return nil
}

func stripSpacesPrefix(name string) string {
	const prefix = "spaces/"
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):]
	}
	return name
}

func joinDots(path []string) string {
	out := path[0]
	for _, p := range path[1:] {
		out += "." + p
	}
	return out
}

// GetData asserts completeness and assembles the final ReplayData. It
// must be called exactly once, after the packet stream is exhausted.
func (c *Controller) GetData() (*replay.ReplayData, error) {
	if !c.battleResultsSeen {
		return nil, ErrIncompleteReplay
	}
	if c.period > 0 {
		c.snapshot()
	}

	return &replay.ReplayData{
		Version:        c.version,
		ArenaID:        c.arenaID,
		Map:            c.mapName,
		BattleLogic:    c.battleLogic,
		GameMode:       c.gameMode,
		OwnerAccountID: c.ownerAccountID,
		OwnerAvatarID:  c.ownerAvatarID,
		OwnerID:        c.ownerID,
		OwnerVehicleID: c.ownerVehicleID,
		CrewSkills:     c.crewSkills,
		Drops:          c.drops,
		Players:        c.players,
		Buildings:      c.buildings,
		Squadrons:      c.squadrons,
		Snapshots:      c.snapshots,
		Events:         c.events,
	}, nil
}
