package entity

import (
	"testing"

	"github.com/icza/wowsreplay/bitpack"
	"github.com/icza/wowsreplay/schema"
)

type u8Codec struct{}

func (u8Codec) Decode(r schema.ByteCursor) (any, error) {
	return int(r.U8()), nil
}

func testDef() *schema.EntityDef {
	return &schema.EntityDef{
		Name: "Vehicle",
		Client: []schema.PropertyDef{
			{Name: "health", Codec: u8Codec{}},
			{Name: "isAlive", Codec: u8Codec{}},
		},
		Methods: []schema.MethodDef{
			{Name: "setConsumables", Args: []schema.Codec{u8Codec{}}},
		},
	}
}

func TestApplyEntityCreateState(t *testing.T) {
	e := New(1, testDef())

	// values_count=2, then (index=0, value=200), (index=1, value=1)
	state := []byte{2, 0, 200, 1, 1}
	edits, err := e.ApplyEntityCreateState(state)
	if err != nil {
		t.Fatalf("ApplyEntityCreateState: %v", err)
	}
	if len(edits) != 2 || edits[0].Name != "health" || edits[0].Value != 200 {
		t.Errorf("edit 0 = %+v", edits[0])
	}
	if edits[1].Name != "isAlive" || edits[1].Value != 1 {
		t.Errorf("edit 1 = %+v", edits[1])
	}
	if e.ClientProps["health"] != 200 {
		t.Errorf("ClientProps not updated: %+v", e.ClientProps)
	}
}

func TestApplyEntityCreateStateTrailingBytes(t *testing.T) {
	e := New(1, testDef())
	state := []byte{1, 0, 200, 0xFF} // trailing byte after the single declared edit
	_, err := e.ApplyEntityCreateState(state)
	if err == nil {
		t.Fatal("expected an error for trailing bytes")
	}
}

func TestSetClientPropertyUnknownIndex(t *testing.T) {
	e := New(1, testDef())
	r := bitpack.NewReader([]byte{1})
	_, _, err := e.SetClientProperty(5, r)
	if err == nil {
		t.Fatal("expected ErrSchemaMismatch for an out-of-range index")
	}
}

func TestCallClientMethodDispatch(t *testing.T) {
	e := New(1, testDef())
	reg := NewRegistry()

	var gotArgs []any
	reg.OnMethod("Vehicle", "setConsumables", func(e *Entity, args []any) {
		gotArgs = args
	})

	r := bitpack.NewReader([]byte{42})
	name, args, err := e.CallClientMethod(0, r)
	if err != nil {
		t.Fatalf("CallClientMethod: %v", err)
	}
	reg.FireMethod(e, name, args)

	if len(gotArgs) != 1 || gotArgs[0] != 42 {
		t.Errorf("got args %+v", gotArgs)
	}
}

func TestRegistrySubscriptionOrder(t *testing.T) {
	reg := NewRegistry()
	e := New(1, testDef())

	var order []int
	reg.OnProperty("Vehicle", "health", func(e *Entity, v any) { order = append(order, 1) })
	reg.OnProperty("Vehicle", "health", func(e *Entity, v any) { order = append(order, 2) })

	reg.FireProperty(e, "health", 100)

	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("subscribers fired out of order: %v", order)
	}
}
