/*

Package entity implements the property-and-method runtime driven by a
schema.Version: constructing entities, decoding base/client/internal
property edits and client method calls against the right ordered codec
list, and fanning decoded edits out to a static subscription registry.

The controller (not this package) owns the id -> *Entity map and all
subscriber callbacks; Entity itself holds no back-pointer, per the
decoder's single-owner design.

*/
package entity

import (
	"errors"
	"fmt"

	"github.com/icza/wowsreplay/bitpack"
	"github.com/icza/wowsreplay/schema"
)

// Per-packet recoverable errors (spec.md §7).
var (
	ErrSchemaMismatch  = errors.New("entity: schema mismatch")
	ErrTruncatedPayload = errors.New("entity: truncated payload")
)

// Entity is one runtime instance of a schema-defined type.
type Entity struct {
	ID       int32
	TypeName string
	Def      *schema.EntityDef

	BaseProps     map[string]any
	ClientProps   map[string]any
	InternalProps map[string]any

	Position        [3]float32
	Yaw, Pitch, Roll float32
	InAOI           bool
}

// New constructs an entity of the given schema type.
func New(id int32, def *schema.EntityDef) *Entity {
	return &Entity{
		ID:            id,
		TypeName:      def.Name,
		Def:           def,
		BaseProps:     make(map[string]any),
		ClientProps:   make(map[string]any),
		InternalProps: make(map[string]any),
	}
}

func decodeAt(list []schema.PropertyDef, index int, r *bitpack.Reader) (name string, value any, err error) {
	if index < 0 || index >= len(list) {
		return "", nil, fmt.Errorf("%w: property index %d out of range (have %d)", ErrSchemaMismatch, index, len(list))
	}
	pd := list[index]
	value, err = pd.Codec.Decode(r)
	if err != nil {
		return "", nil, fmt.Errorf("%w: property %q: %v", ErrTruncatedPayload, pd.Name, err)
	}
	return pd.Name, value, nil
}

// SetBaseProperty decodes the value at codec index i from r against the
// entity's ordered Base property list and stores it.
func (e *Entity) SetBaseProperty(i int, r *bitpack.Reader) error {
	name, value, err := decodeAt(e.Def.Base, i, r)
	if err != nil {
		return err
	}
	e.BaseProps[name] = value
	return nil
}

// SetClientPropertyInternal decodes the value at codec index i from r
// against the entity's ordered ClientInternal property list.
func (e *Entity) SetClientPropertyInternal(i int, r *bitpack.Reader) error {
	name, value, err := decodeAt(e.Def.ClientInternal, i, r)
	if err != nil {
		return err
	}
	e.InternalProps[name] = value
	return nil
}

// SetClientProperty decodes the value at codec index i from r against
// the entity's ordered Client property list.
func (e *Entity) SetClientProperty(i int, r *bitpack.Reader) (name string, value any, err error) {
	name, value, err = decodeAt(e.Def.Client, i, r)
	if err != nil {
		return "", nil, err
	}
	e.ClientProps[name] = value
	return name, value, nil
}

// ApplyEntityCreateState decodes an EntityCreate packet's state blob:
// values_count:u8 followed by that many (index:u8, encoded value)
// pairs, applied as client properties. Trailing bytes are an error.
// Returns the decoded (name, value) pairs in wire order so the caller
// can fire property-change subscribers after every edit in the packet
// has been applied, per the spec's ordering rule.
func (e *Entity) ApplyEntityCreateState(state []byte) ([]PropertyEdit, error) {
	return applyValuesCountState(state, func(idx int, r *bitpack.Reader) (string, any, error) {
		return e.SetClientProperty(idx, r)
	})
}

// PropertyEdit is one decoded (name, value) pair from a property-bearing
// packet, in wire order.
type PropertyEdit struct {
	Name  string
	Value any
}

// applyValuesCountState decodes the common values_count:u8 followed by
// (index:u8, encoded value) wire shape shared by EntityCreate,
// BasePlayerCreate and CellPlayerCreate, dispatching each decoded value
// through set.
func applyValuesCountState(state []byte, set func(idx int, r *bitpack.Reader) (string, any, error)) ([]PropertyEdit, error) {
	r := bitpack.NewReader(state)
	count := r.U8()
	edits := make([]PropertyEdit, 0, count)
	for i := 0; i < int(count); i++ {
		idx := r.U8()
		if r.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrTruncatedPayload, r.Err())
		}
		name, value, err := set(int(idx), r)
		if err != nil {
			return nil, err
		}
		edits = append(edits, PropertyEdit{Name: name, Value: value})
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncatedPayload, r.Err())
	}
	if !r.Exhausted() {
		return nil, fmt.Errorf("%w: %d trailing bytes after values_count=%d", ErrTruncatedPayload, r.Len(), count)
	}
	return edits, nil
}

// ApplyBasePropertyState decodes a BasePlayerCreate packet's blob: the
// same values_count-prefixed shape as ApplyEntityCreateState, but
// applied against the entity's ordered Base property list.
func (e *Entity) ApplyBasePropertyState(state []byte) ([]PropertyEdit, error) {
	return applyValuesCountState(state, func(idx int, r *bitpack.Reader) (string, any, error) {
		name, value, err := decodeAt(e.Def.Base, idx, r)
		if err != nil {
			return "", nil, err
		}
		e.BaseProps[name] = value
		return name, value, nil
	})
}

// ApplyClientInternalPropertyState decodes a CellPlayerCreate packet's
// blob against the entity's ordered ClientInternal property list.
func (e *Entity) ApplyClientInternalPropertyState(state []byte) ([]PropertyEdit, error) {
	return applyValuesCountState(state, func(idx int, r *bitpack.Reader) (string, any, error) {
		name, value, err := decodeAt(e.Def.ClientInternal, idx, r)
		if err != nil {
			return "", nil, err
		}
		e.InternalProps[name] = value
		return name, value, nil
	})
}

// CallClientMethod decodes the argument list at codec index i from r
// against the entity's ordered Methods list and returns the method's
// name and decoded arguments; the caller fans these out to subscribers.
func (e *Entity) CallClientMethod(i int, r *bitpack.Reader) (name string, args []any, err error) {
	if i < 0 || i >= len(e.Def.Methods) {
		return "", nil, fmt.Errorf("%w: method index %d out of range (have %d)", ErrSchemaMismatch, i, len(e.Def.Methods))
	}
	md := e.Def.Methods[i]
	args = make([]any, len(md.Args))
	for argIdx, codec := range md.Args {
		v, err := codec.Decode(r)
		if err != nil {
			return "", nil, fmt.Errorf("%w: method %q arg %d: %v", ErrTruncatedPayload, md.Name, argIdx, err)
		}
		args[argIdx] = v
	}
	if r.Err() != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrTruncatedPayload, r.Err())
	}
	return md.Name, args, nil
}
