/*

Package replay holds the data model the battle controller assembles and
the orchestrator returns: the decoded arena info, the raw extras blobs,
and the typed ReplayData tree (players, buildings, squadrons, timelines,
and periodic snapshots).

*/
package replay

// Counts anchors a Snapshot into the append-only event arrays: the
// length each array had at the moment the snapshot was taken.
type Counts struct {
	Achievements int
	ChatMessages int
	Deaths       int
	Ribbons      int
	Stats        int
}

// Snapshot is one periodic (or terminal) anchor into the timeline
// arrays held by Events.
type Snapshot struct {
	CurrentTime float32
	TimeLeft    int32
	BattleStage int32
	Counts      Counts
}

// BattleResult is the final outcome of the match.
type BattleResult struct {
	WinnerTeamID int
	FinishReason string
}

// BattleType describes the mode the battle was played under.
type BattleType struct {
	PlayersPerTeam int
	Name           string
	Scenario       string
	TeamsCount     int
}

// BattleLogic bundles the match's outcome and mode metadata.
type BattleLogic struct {
	Result   BattleResult
	Type     BattleType
	Duration int
	LoseScore int
	WinScore int
}

// CrewSkills is a player's captain build, keyed by ship (vehicle entity)
// id at the ReplayData level.
type CrewSkills struct {
	ParamsID       int
	IsInAdaptation bool
	LearnedSkills  [][]int
}

// ShipConfiguration is the decoded shipConfigDump: modules, upgrades,
// camouflage, consumables, ensigns, boosters, and the nation flag a
// player's ship was fitted with.
type ShipConfiguration struct {
	ShipID           int
	Units            map[string]int
	Modernization    []int
	Exterior         []int
	AutoSupplyState  int
	ColorScheme      []int
	Abilities        []int
	Ensigns          []int
	Boosters         []int
	NationFlag       int
}

// Player is one match participant, bot or human.
type Player struct {
	AccountID      int
	AvatarID       *int // nil for bots
	ClanColor      int
	ClanID         int
	ClanTag        string
	ID             int
	IsBot          bool
	MaxHealth      float64
	Name           string
	PrebattleID    int
	Realm          *string // nil for bots
	Relation       Relation
	ShipComponents map[string]string
	ShipConfig     ShipConfiguration
	ShipID         int
	ShipParamsID   int
	TeamID         int
}

// Building is a non-movable participant (a capturable structure).
type Building struct {
	ID       int
	Name     string
	ParamsID int
	Relation Relation
	TeamID   int
	UniqueID int
}

// Achievement records one achievement earned by any player, timestamped.
type Achievement struct {
	CurrentTime   float32
	PlayerID      int
	AchievementID int
}

// ChatMessage is one chat line; SenderID is 0 or -1 for system messages.
type ChatMessage struct {
	CurrentTime float32
	SenderID    int
	ChannelID   string
	Message     string
}

// Death records one vehicle's death and its cause.
type Death struct {
	CurrentTime     float32
	KilledVehicleID int
	FraggerVehicleID int
	TypeDeath       int
	DeathIcon       string
	DeathName       string
}

// BuildingState is the scalar, always-current state of a building.
type BuildingState struct {
	Suppressed bool
	Visible    bool
}

// BuildingStates is a building's per-snapshot timeline. A dead building
// is recorded in Events.DeadVehicles, while the snapshot loop skips only
// ids in Events.DeadBuildings, so the timeline keeps growing after death.
type BuildingStates struct {
	SpawnTime  float32
	Position   *[3]float32 // buildings don't move; set once
	Suppressed []uint8
	Visible    []uint8
}

// ConsumableState is the scalar, always-current state of one equipped
// consumable slot.
type ConsumableState struct {
	Count  int
	Expiry float32 // -1 means never used
}

// IsActiveAt reports whether the consumable is active at t.
func (c ConsumableState) IsActiveAt(t float32) bool {
	if c.Expiry < 0 {
		return false
	}
	return t < c.Expiry
}

// ConsumableStates is one consumable slot's per-snapshot timeline.
type ConsumableStates struct {
	AddedAt float32
	Active  []uint8
	Count   []int8
}

// VehicleState is the scalar, always-current state of a ship.
type VehicleState struct {
	Health             float32
	MaxHealth          float32
	RegenerationHealth float32
	RegenCrewHPLimit   float32
	BurningFlags       int
	VisibilityFlags    int
	Appeared           bool
	Consumables        map[int]*ConsumableState
}

// VehicleStates is a ship's per-snapshot timeline; frozen once the ship
// is recorded dead (Events.DeadVehicles).
type VehicleStates struct {
	SpawnTime          float32
	PositionDiff       []float32
	PositionCounter    []uint32
	Health             []float32
	MaxHealth          []float32
	RegenerationHealth []float32
	RegenCrewHPLimit   []float32
	BurningFlags       []uint32
	VisibilityFlags    []uint32
	Appeared           []uint8
	Consumables        map[int]*ConsumableStates
}

// DropData is a contested resource that appeared at a map zone.
type DropData struct {
	AppearTime int
	ParamsID   int
	StartTime  int
}

// InteractiveZone is a capture point, with its per-snapshot timeline.
type InteractiveZone struct {
	SpawnTime   float32
	Type        int
	Position    [2]float32 // caps don't move
	Index       *int
	TeamID      []int32
	InvaderTeam []int32
	Radius      []float32
	Progress    []float32
	HasInvaders []uint8
	IsVisible   []uint8
}

// SmokeScreen is a smoke cloud's shape over time.
type SmokeScreen struct {
	SpawnTime   float32
	Radius      float32
	Points      [][2]float32
	BoundLeft   int
	BoundRight  int
	Bounds      []uint8
	DespawnTime *float32
}

// Squadron is one airborne flight of planes.
type Squadron struct {
	PlaneID    uint64
	OwnerID    int
	Index      int
	Purpose    int
	Departures int
	TeamID     int
	ParamsID   int
}

// Ward is a short-lived reconnaissance marker.
type Ward struct {
	SpawnTime   float32
	SquadronID  int
	Position    [2]float32
	Duration    float32
	Radius      float32
	TeamID      int
	OwnerID     int
	DespawnTime *float32
}

// Events aggregates every growable, timestamped fact the controller
// accumulates over the course of the battle.
type Events struct {
	Achievements    []Achievement
	BuildingStates  map[int]*BuildingStates
	ChatMessages    []ChatMessage
	DeadBuildings   map[int]float32 // written only by reads in the original; kept for parity
	DeadVehicles    map[int]float32
	Deaths          []Death
	FocusedBy       []int
	Ribbons         []map[string]int
	Stats           []map[string]float64
	Score           map[int][]int16
	Smokes          map[int]*SmokeScreen
	SquadronCounter []uint32
	SquadronPlaneID []uint64
	SquadronPosition []float32
	VehicleStates   map[int]*VehicleStates
	Wards           []Ward
	Zones           map[int]*InteractiveZone
}

// ReplayData is the fully reconstructed battle-state tree.
type ReplayData struct {
	Version         string
	ArenaID         int64
	Map             string
	BattleLogic     *BattleLogic
	GameMode        string
	OwnerAccountID  int
	OwnerAvatarID   int
	OwnerID         int
	OwnerVehicleID  int
	CrewSkills      map[int]CrewSkills
	Drops           map[int]DropData
	Players         map[int]*Player
	Buildings       map[int]*Building
	Squadrons       map[int]*Squadron
	Snapshots       []Snapshot
	Events          Events
}

// Replay is the top-level decode result returned to callers.
type Replay struct {
	ArenaInfo map[string]any
	Extras    [][]byte
	Data      *ReplayData
}
