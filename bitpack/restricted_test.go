package bitpack

import (
	"bytes"
	"errors"
	"testing"
)

// buildPickle assembles a minimal protocol-2 pickle byte stream by hand;
// the restricted decoder is exercised against the same opcode shapes
// CPython's pickler actually emits for small dicts/lists/tuples.
func buildPickle(parts ...[]byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(0x80)
	buf.WriteByte(2) // PROTO 2
	for _, p := range parts {
		buf.Write(p)
	}
	buf.WriteByte('.') // STOP
	return buf.Bytes()
}

func binint1(n byte) []byte { return []byte{'K', n} }

func shortUnicode(s string) []byte {
	return append([]byte{0x8c, byte(len(s))}, []byte(s)...)
}

func TestLoadsSimpleDict(t *testing.T) {
	// {"a": 1, "b": 2}
	data := buildPickle(
		[]byte{'}', '('},
		shortUnicode("a"), binint1(1),
		shortUnicode("b"), binint1(2),
		[]byte{'u'},
	)

	v, err := Loads(data)
	if err != nil {
		t.Fatalf("Loads: %v", err)
	}
	if v.Kind != KindDict || len(v.Dict) != 2 {
		t.Fatalf("got %+v", v)
	}
	if v.Dict[0].Key.Str != "a" || v.Dict[0].Val.Int != 1 {
		t.Errorf("entry 0 = %+v", v.Dict[0])
	}
	if v.Dict[1].Key.Str != "b" || v.Dict[1].Val.Int != 2 {
		t.Errorf("entry 1 = %+v", v.Dict[1])
	}
}

func TestLoadsListOfTuples(t *testing.T) {
	// [(1, 2), (3, 4)]
	tuple := func(a, b byte) []byte {
		return append(append([]byte{}, binint1(a)...), append(binint1(b), 0x86)...)
	}
	data := buildPickle(
		[]byte{']', '('},
		tuple(1, 2),
		tuple(3, 4),
		[]byte{'e'},
	)

	v, err := Loads(data)
	if err != nil {
		t.Fatalf("Loads: %v", err)
	}
	if v.Kind != KindList || len(v.List) != 2 {
		t.Fatalf("got %+v", v)
	}
	if v.List[0].Kind != KindTuple || v.List[0].List[0].Int != 1 || v.List[0].List[1].Int != 2 {
		t.Errorf("tuple 0 = %+v", v.List[0])
	}
}

func TestLoadsForbiddenGlobal(t *testing.T) {
	global := func(module, name string) []byte {
		return append(append([]byte{'c'}, []byte(module+"\n")...), []byte(name+"\n")...)
	}
	data := buildPickle(global("os", "system"))

	_, err := Loads(data)
	if !errors.Is(err, ErrForbiddenGlobal) {
		t.Fatalf("expected ErrForbiddenGlobal, got %v", err)
	}
}

func TestLoadsAllowlistedSet(t *testing.T) {
	global := func(module, name string) []byte {
		return append(append([]byte{'c'}, []byte(module+"\n")...), []byte(name+"\n")...)
	}
	// set([1, 2])
	data := buildPickle(
		global("builtins", "set"),
		[]byte{']', '('},
		binint1(1), binint1(2),
		[]byte{'e'},
		[]byte{0x85}, // TUPLE1
		[]byte{'R'},  // REDUCE
	)

	v, err := Loads(data)
	if err != nil {
		t.Fatalf("Loads: %v", err)
	}
	if v.Kind != KindSet || len(v.List) != 2 {
		t.Fatalf("got %+v", v)
	}
}
