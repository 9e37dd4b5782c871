/*

Package schema defines the contract the decoding core consumes to learn
a replay version's wire shape: named constant tables and per-entity-type
property/method codec orderings. Authoring the per-version schema files
themselves (constants.json and the entity definitions) is out of scope;
this package only defines the interface and the errors a provider may
report.

*/
package schema

import (
	"errors"
	"fmt"
)

// ErrUnsupportedVersion is returned by Provider.For when no schema is
// registered for the requested version.
var ErrUnsupportedVersion = errors.New("schema: unsupported version")

// SchemaError reports an internal inconsistency in a supplied schema
// (e.g. a method/property ordering that doesn't match the codec table
// built for it). It is always fatal; the decoding core never attempts
// to guess past it.
type SchemaError struct {
	Version string
	Reason  string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Version, e.Reason)
}

// Required constant table names (spec.md §4.3); a Provider must supply
// all of these for every version it serves.
const (
	TableFinishReasons                  = "FINISH_REASONS"
	TableBattleTypes                    = "BATTLE_TYPES"
	TableGameModes                      = "GAME_MODES"
	TableDeathReasons                   = "DEATH_REASONS"
	TablePlayerFullResults              = "PLAYER_FULL_RESULTS"
	TablePlayerPrivateResults           = "PLAYER_PRIVATE_RESULTS"
	TableCommonResults                  = "COMMON_RESULTS"
	TableClientPublicResults            = "CLIENT_PUBLIC_RESULTS"
	TableClientVehInteractionDetails    = "CLIENT_VEH_INTERACTION_DETAILS"
	TableClientBuildingInteractionDetails = "CLIENT_BUILDING_INTERACTION_DETAILS"
	TableSharedDataClientBuildingData   = "SHARED_DATA_CONSTANTS.CLIENT_BUILDING_DATA"
	TablePlayerNumMemberMap             = "PLAYER_NUM_MEMBER_MAP"
	TableBotNumMemberMap                = "BOT_NUM_MEMBER_MAP"
	TableObserverNumMemberMap           = "OBSERVER_NUM_MEMBER_MAP"
	TableUnitTypes                      = "UNIT_TYPES"
)

// Constants is a versioned set of named lookup tables. Entries are
// either flat string lists (ordered field maps), string-to-string
// dictionaries, or nested maps of the same; callers type-assert the
// shape they expect for a given table name.
type Constants interface {
	// Table returns the table registered under name, or ok=false if
	// this version doesn't define it.
	Table(name string) (value any, ok bool)
}

// Codec decodes one property or method argument's wire-encoded value
// from a byte cursor. Implementations live alongside the schema that
// defines them; the core only calls Decode.
type Codec interface {
	// Decode consumes exactly the codec's encoding from r and returns
	// the decoded value. Returning an error aborts the enclosing
	// EntityCreate/EntityProperty/EntityMethod frame with a
	// SchemaMismatch or TruncatedPayload, per the core's error policy.
	Decode(r ByteCursor) (any, error)
}

// ByteCursor is the minimal read surface a Codec needs; bitpack.Reader
// satisfies it. Kept as an interface here so schema doesn't import
// bitpack, avoiding a cross-package coupling the spec doesn't require.
type ByteCursor interface {
	U8() uint8
	U16() uint16
	U32() uint32
	U64() uint64
	I32() int32
	F32() float32
	F64() float64
	Bytes(n int) []byte
	String(n int) string
	Blob() []byte
	Err() error
	Len() int
}

// PropertyDef is one named, ordered entry of an EntityDef's property
// lists.
type PropertyDef struct {
	Name  string
	Codec Codec
}

// MethodDef is one named, ordered entry of an EntityDef's method list.
// Args decode in order; the decoded values are delivered to subscribers
// as a single slice.
type MethodDef struct {
	Name string
	Args []Codec
}

// EntityDef is a named entity type: four ordered property-codec lists
// plus one ordered method-codec list. The orderings are the only source
// of truth for stream decoding — wire frames carry positional indices,
// never names.
type EntityDef struct {
	Name            string
	Base            []PropertyDef
	Client          []PropertyDef
	ClientInternal  []PropertyDef
	Cell            []PropertyDef
	Methods         []MethodDef
}

// Definitions resolves an EntityDef by its name or its compact numeric
// index, both of which appear on the wire depending on packet type.
type Definitions interface {
	ByName(name string) (*EntityDef, bool)
	ByIndex(index int) (*EntityDef, bool)
}

// Version is a fully resolved schema for one replay client version: its
// constant tables plus its entity definitions.
type Version struct {
	Constants   Constants
	Definitions Definitions
}

// Provider resolves a replay's client version string (either
// "major_minor_micro" or release-joined-by-underscore form) to a
// Version. Implementations are supplied externally; authoring them is
// out of scope for this module.
type Provider interface {
	// For returns the schema for version, or ErrUnsupportedVersion
	// wrapped with the requested string if none is registered.
	For(version string) (*Version, error)
}
