package bitpack

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrForbiddenGlobal is returned when a pickled payload references a
// global (module.name) that isn't on the fixed allowlist.
var ErrForbiddenGlobal = errors.New("bitpack: forbidden global")

// Kind identifies the shape of a decoded Value.
type Kind int

// Possible Value kinds produced by the restricted object-graph decoder.
const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindBytes
	KindStr
	KindList
	KindTuple
	KindDict
	KindSet
	KindFrozenSet
	KindSlice
	KindComplex
	KindRange
	KindObject
)

// DictEntry is one key/value pair of a decoded dict, in insertion order.
type DictEntry struct {
	Key, Val Value
}

// SliceVal is the decoded shape of a Python slice(start, stop, step) call.
type SliceVal struct {
	Start, Stop, Step Value
}

// RangeVal is the decoded shape of a Python range(start, stop, step) call.
type RangeVal struct {
	Start, Stop, Step int64
}

// ObjectVal is an instance of one of the allowlisted opaque placeholder
// classes (CamouflageInfo, PlayerMode). The restricted decoder never
// interprets their fields; they're carried only so the graph shape is
// preserved for callers that want to skip over them.
type ObjectVal struct {
	ClassName string
	Args      []Value
}

// Value is one node of the tagged value tree the restricted decoder
// produces: a map, list, tuple, int, float, bytes, str, or one of the
// allowlisted constructed objects (range, complex, set, frozenset, slice,
// CamouflageInfo, PlayerMode).
type Value struct {
	Kind   Kind
	Bool   bool
	Int    int64
	Float  float64
	Bytes  []byte
	Str    string
	List   []Value
	Dict   []DictEntry
	Slice  *SliceVal
	Range  RangeVal
	Object ObjectVal
	Imag   float64 // imaginary part when Kind == KindComplex (Float holds the real part)
}

// ToAny converts a decoded Value into a generic JSON-like Go value:
// nil, bool, int64, float64, []byte, string, []any (list/tuple/set), or
// map[string]any (dict, keyed by the string form of its keys). Ranges,
// complex numbers and allowlisted objects come back as RangeVal,
// complex128 and ObjectVal; slices come back as nil. Handlers
// that only need to pattern-match shapes (not distinguish set from
// list, say) use this instead of walking Kind directly.
func (v Value) ToAny() any {
	switch v.Kind {
	case KindNone:
		return nil
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBytes:
		return v.Bytes
	case KindStr:
		return v.Str
	case KindList, KindTuple, KindSet, KindFrozenSet:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = e.ToAny()
		}
		return out
	case KindDict:
		out := make(map[string]any, len(v.Dict))
		for _, e := range v.Dict {
			out[e.Key.stringKey()] = e.Val.ToAny()
		}
		return out
	case KindRange:
		return v.Range
	case KindComplex:
		return complex(v.Float, v.Imag)
	case KindObject:
		return v.Object
	}
	return nil
}

// stringKey renders a Value as a map key the way Python's str() would
// for the key types pickled payloads actually use (ints and strings).
func (v Value) stringKey() string {
	switch v.Kind {
	case KindStr:
		return v.Str
	case KindInt:
		return itoa(v.Int)
	default:
		return itoa(int64(v.Kind))
	}
}

func itoa(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Len returns the number of elements for List/Tuple/Dict/Set-kinded values.
func (v Value) Len() int {
	switch v.Kind {
	case KindList, KindTuple, KindSet, KindFrozenSet:
		return len(v.List)
	case KindDict:
		return len(v.Dict)
	}
	return 0
}

// Index returns the i'th element of a List/Tuple/Set-kinded value.
func (v Value) Index(i int) Value {
	return v.List[i]
}

// allowlisted global constructors. Module/name pairs that resolve to a
// builtin are recorded as "builtin:<name>"; opaque placeholder classes as
// "object:<name>". Anything else is forbidden.
func allowedGlobal(module, name string) (tag string, ok bool) {
	if module == "builtins" || module == "__builtin__" {
		switch name {
		case "range", "complex", "set", "frozenset", "slice":
			return "builtin:" + name, true
		}
		return "", false
	}
	if module == "CamouflageInfo" && name == "CamouflageInfo" {
		return "object:CamouflageInfo", true
	}
	if module == "PlayerModeDef" && name == "PlayerMode" {
		return "object:PlayerMode", true
	}
	return "", false
}

// globalRef is an internal marker pushed onto the decode stack by GLOBAL /
// STACK_GLOBAL; it never escapes as a user-visible Value.
type globalRef struct {
	tag string
}

// Loads decodes a single restricted pickle-shaped object graph from data.
// It accepts only the fixed allowlist of constructors documented in
// allowedGlobal; any other global reference returns ErrForbiddenGlobal.
// Output is deterministic for identical input.
func Loads(data []byte) (Value, error) {
	d := &unpickler{b: data}
	v, err := d.run()
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

type unpickler struct {
	b    []byte
	pos  int
	memo []any // indices store Value or globalRef
	// stack holds Value and globalRef entries, plus *markT sentinels.
	stack []any
}

type markT struct{}

var mark = &markT{}

func (u *unpickler) eof() bool { return u.pos >= len(u.b) }

func (u *unpickler) byte() (byte, error) {
	if u.eof() {
		return 0, fmt.Errorf("%w: unpickle: unexpected end of stream", ErrTruncated)
	}
	c := u.b[u.pos]
	u.pos++
	return c, nil
}

func (u *unpickler) take(n int) ([]byte, error) {
	if u.pos+n > len(u.b) {
		return nil, fmt.Errorf("%w: unpickle: need %d bytes", ErrTruncated, n)
	}
	s := u.b[u.pos : u.pos+n]
	u.pos += n
	return s, nil
}

func (u *unpickler) line() (string, error) {
	start := u.pos
	for u.pos < len(u.b) && u.b[u.pos] != '\n' {
		u.pos++
	}
	if u.pos >= len(u.b) {
		return "", fmt.Errorf("%w: unpickle: unterminated text opcode", ErrTruncated)
	}
	s := string(u.b[start:u.pos])
	u.pos++ // skip '\n'
	return s, nil
}

func u16le(b []byte) uint16  { return uint16(b[0]) | uint16(b[1])<<8 }
func u32le(b []byte) uint32  { return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24 }
func f64be(b []byte) float64 {
	var bits uint64
	for _, c := range b {
		bits = bits<<8 | uint64(c)
	}
	return math.Float64frombits(bits)
}

func (u *unpickler) push(v any) { u.stack = append(u.stack, v) }

func (u *unpickler) pop() (any, error) {
	if len(u.stack) == 0 {
		return nil, fmt.Errorf("unpickle: stack underflow")
	}
	v := u.stack[len(u.stack)-1]
	u.stack = u.stack[:len(u.stack)-1]
	return v, nil
}

// popMark pops back to (and including) the last MARK, returning the
// popped items in original order.
func (u *unpickler) popMark() ([]any, error) {
	for i := len(u.stack) - 1; i >= 0; i-- {
		if u.stack[i] == mark {
			items := make([]any, len(u.stack)-i-1)
			copy(items, u.stack[i+1:])
			u.stack = u.stack[:i]
			return items, nil
		}
	}
	return nil, fmt.Errorf("unpickle: no mark on stack")
}

func asValue(x any) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case globalRef:
		return Value{}, fmt.Errorf("unpickle: unresolved global %s used as a value", t.tag)
	default:
		return Value{}, fmt.Errorf("unpickle: unexpected stack item %T", x)
	}
}

func asValues(xs []any) ([]Value, error) {
	out := make([]Value, len(xs))
	for i, x := range xs {
		v, err := asValue(x)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// run executes opcodes until STOP and returns the final decoded value.
func (u *unpickler) run() (Value, error) {
	for {
		op, err := u.byte()
		if err != nil {
			return Value{}, err
		}

		switch op {
		case 0x80: // PROTO
			if _, err := u.byte(); err != nil {
				return Value{}, err
			}
		case 0x95: // FRAME
			if _, err := u.take(8); err != nil {
				return Value{}, err
			}
		case '.': // STOP
			top, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			return asValue(top)
		case '(': // MARK
			u.push(mark)
		case 'N': // NONE
			u.push(Value{Kind: KindNone})
		case 0x88: // NEWTRUE
			u.push(Value{Kind: KindBool, Bool: true})
		case 0x89: // NEWFALSE
			u.push(Value{Kind: KindBool, Bool: false})

		case 'K': // BININT1 (unsigned byte)
			b, err := u.byte()
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindInt, Int: int64(b)})
		case 'M': // BININT2 (unsigned short)
			s, err := u.take(2)
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindInt, Int: int64(u16le(s))})
		case 'J': // BININT (signed 4-byte)
			s, err := u.take(4)
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindInt, Int: int64(int32(u32le(s)))})
		case 'I': // INT (text)
			line, err := u.line()
			if err != nil {
				return Value{}, err
			}
			if line == "00" || line == "01" {
				u.push(Value{Kind: KindBool, Bool: line == "01"})
				break
			}
			n, err := strconv.ParseInt(line, 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("unpickle: bad INT literal %q: %w", line, err)
			}
			u.push(Value{Kind: KindInt, Int: n})
		case 'L': // LONG (text, trailing 'L')
			line, err := u.line()
			if err != nil {
				return Value{}, err
			}
			n, err := strconv.ParseInt(strings.TrimSuffix(line, "L"), 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("unpickle: bad LONG literal %q: %w", line, err)
			}
			u.push(Value{Kind: KindInt, Int: n})
		case 0x8a: // LONG1
			n, err := u.byte()
			if err != nil {
				return Value{}, err
			}
			s, err := u.take(int(n))
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindInt, Int: decodeLong(s)})
		case 0x8b: // LONG4
			s, err := u.take(4)
			if err != nil {
				return Value{}, err
			}
			n := int32(u32le(s))
			body, err := u.take(int(n))
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindInt, Int: decodeLong(body)})

		case 'G': // BINFLOAT (big-endian 8 bytes)
			s, err := u.take(8)
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindFloat, Float: f64be(s)})
		case 'F': // FLOAT (text)
			line, err := u.line()
			if err != nil {
				return Value{}, err
			}
			f, err := strconv.ParseFloat(line, 64)
			if err != nil {
				return Value{}, fmt.Errorf("unpickle: bad FLOAT literal %q: %w", line, err)
			}
			u.push(Value{Kind: KindFloat, Float: f})

		case 'U': // SHORT_BINSTRING
			n, err := u.byte()
			if err != nil {
				return Value{}, err
			}
			s, err := u.take(int(n))
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindStr, Str: string(s)})
		case 'T': // BINSTRING
			s, err := u.take(4)
			if err != nil {
				return Value{}, err
			}
			n := int32(u32le(s))
			body, err := u.take(int(n))
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindStr, Str: string(body)})

		case 0x8c: // SHORT_BINUNICODE
			n, err := u.byte()
			if err != nil {
				return Value{}, err
			}
			s, err := u.take(int(n))
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindStr, Str: string(s)})
		case 'X': // BINUNICODE
			s, err := u.take(4)
			if err != nil {
				return Value{}, err
			}
			n := u32le(s)
			body, err := u.take(int(n))
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindStr, Str: string(body)})

		case 'C': // SHORT_BINBYTES
			n, err := u.byte()
			if err != nil {
				return Value{}, err
			}
			s, err := u.take(int(n))
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindBytes, Bytes: append([]byte(nil), s...)})
		case 'B': // BINBYTES
			s, err := u.take(4)
			if err != nil {
				return Value{}, err
			}
			n := u32le(s)
			body, err := u.take(int(n))
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindBytes, Bytes: append([]byte(nil), body...)})

		case ']': // EMPTY_LIST
			u.push(Value{Kind: KindList})
		case ')': // EMPTY_TUPLE
			u.push(Value{Kind: KindTuple})
		case '}': // EMPTY_DICT
			u.push(Value{Kind: KindDict})

		case 'l': // LIST (from mark)
			items, err := u.popMark()
			if err != nil {
				return Value{}, err
			}
			vals, err := asValues(items)
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindList, List: vals})
		case 't': // TUPLE (from mark)
			items, err := u.popMark()
			if err != nil {
				return Value{}, err
			}
			vals, err := asValues(items)
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindTuple, List: vals})
		case 0x85, 0x86, 0x87: // TUPLE1, TUPLE2, TUPLE3
			n := 1
			if op == 0x86 {
				n = 2
			} else if op == 0x87 {
				n = 3
			}
			items := make([]any, n)
			for i := n - 1; i >= 0; i-- {
				it, err := u.pop()
				if err != nil {
					return Value{}, err
				}
				items[i] = it
			}
			vals, err := asValues(items)
			if err != nil {
				return Value{}, err
			}
			u.push(Value{Kind: KindTuple, List: vals})
		case 'd': // DICT (from mark)
			items, err := u.popMark()
			if err != nil {
				return Value{}, err
			}
			if len(items)%2 != 0 {
				return Value{}, fmt.Errorf("unpickle: odd dict items")
			}
			entries := make([]DictEntry, 0, len(items)/2)
			for i := 0; i < len(items); i += 2 {
				k, err := asValue(items[i])
				if err != nil {
					return Value{}, err
				}
				v, err := asValue(items[i+1])
				if err != nil {
					return Value{}, err
				}
				entries = append(entries, DictEntry{Key: k, Val: v})
			}
			u.push(Value{Kind: KindDict, Dict: entries})

		case 'a': // APPEND
			item, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			v, err := asValue(item)
			if err != nil {
				return Value{}, err
			}
			if err := u.appendToTopList(v); err != nil {
				return Value{}, err
			}
		case 'e': // APPENDS
			items, err := u.popMark()
			if err != nil {
				return Value{}, err
			}
			vals, err := asValues(items)
			if err != nil {
				return Value{}, err
			}
			for _, v := range vals {
				if err := u.appendToTopList(v); err != nil {
					return Value{}, err
				}
			}
		case 's': // SETITEM
			val, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			key, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			kv, err := asValue(key)
			if err != nil {
				return Value{}, err
			}
			vv, err := asValue(val)
			if err != nil {
				return Value{}, err
			}
			if err := u.setItemOnTopDict(kv, vv); err != nil {
				return Value{}, err
			}
		case 'u': // SETITEMS
			items, err := u.popMark()
			if err != nil {
				return Value{}, err
			}
			if len(items)%2 != 0 {
				return Value{}, fmt.Errorf("unpickle: odd setitems")
			}
			for i := 0; i < len(items); i += 2 {
				k, err := asValue(items[i])
				if err != nil {
					return Value{}, err
				}
				v, err := asValue(items[i+1])
				if err != nil {
					return Value{}, err
				}
				if err := u.setItemOnTopDict(k, v); err != nil {
					return Value{}, err
				}
			}

		case 'q': // BINPUT
			if _, err := u.byte(); err != nil {
				return Value{}, err
			}
			u.memoTop()
		case 'r': // LONG_BINPUT
			if _, err := u.take(4); err != nil {
				return Value{}, err
			}
			u.memoTop()
		case 'p': // PUT (text)
			if _, err := u.line(); err != nil {
				return Value{}, err
			}
			u.memoTop()
		case 'h': // BINGET
			idx, err := u.byte()
			if err != nil {
				return Value{}, err
			}
			if err := u.pushMemo(int(idx)); err != nil {
				return Value{}, err
			}
		case 'j': // LONG_BINGET
			s, err := u.take(4)
			if err != nil {
				return Value{}, err
			}
			if err := u.pushMemo(int(u32le(s))); err != nil {
				return Value{}, err
			}
		case 'g': // GET (text)
			line, err := u.line()
			if err != nil {
				return Value{}, err
			}
			idx, err := strconv.Atoi(line)
			if err != nil {
				return Value{}, err
			}
			if err := u.pushMemo(idx); err != nil {
				return Value{}, err
			}

		case 'c': // GLOBAL (text module\nname\n)
			module, err := u.line()
			if err != nil {
				return Value{}, err
			}
			name, err := u.line()
			if err != nil {
				return Value{}, err
			}
			tag, ok := allowedGlobal(module, name)
			if !ok {
				return Value{}, fmt.Errorf("%w: %s.%s", ErrForbiddenGlobal, module, name)
			}
			u.push(globalRef{tag: tag})
		case 0x93: // STACK_GLOBAL
			nameAny, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			moduleAny, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			nameV, err := asValue(nameAny)
			if err != nil {
				return Value{}, err
			}
			moduleV, err := asValue(moduleAny)
			if err != nil {
				return Value{}, err
			}
			tag, ok := allowedGlobal(moduleV.Str, nameV.Str)
			if !ok {
				return Value{}, fmt.Errorf("%w: %s.%s", ErrForbiddenGlobal, moduleV.Str, nameV.Str)
			}
			u.push(globalRef{tag: tag})

		case 0x81: // NEWOBJ
			argsAny, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			clsAny, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			v, err := u.construct(clsAny, argsAny)
			if err != nil {
				return Value{}, err
			}
			u.push(v)
		case 'R': // REDUCE
			argsAny, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			clsAny, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			v, err := u.construct(clsAny, argsAny)
			if err != nil {
				return Value{}, err
			}
			u.push(v)

		case '0': // POP
			if _, err := u.pop(); err != nil {
				return Value{}, err
			}
		case '2': // DUP
			top, err := u.pop()
			if err != nil {
				return Value{}, err
			}
			u.push(top)
			u.push(top)

		default:
			return Value{}, fmt.Errorf("unpickle: unsupported opcode 0x%02x", op)
		}
	}
}

func decodeLong(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	var n int64
	for i := len(b) - 1; i >= 0; i-- {
		n = n<<8 | int64(b[i])
	}
	// sign-extend if high bit of the most significant byte is set
	if b[len(b)-1]&0x80 != 0 && len(b) < 8 {
		n -= int64(1) << (8 * uint(len(b)))
	}
	return n
}

func (u *unpickler) memoTop() {
	if len(u.stack) == 0 {
		return
	}
	u.memo = append(u.memo, u.stack[len(u.stack)-1])
}

func (u *unpickler) pushMemo(idx int) error {
	if idx < 0 || idx >= len(u.memo) {
		return fmt.Errorf("unpickle: memo index %d out of range", idx)
	}
	u.push(u.memo[idx])
	return nil
}

func (u *unpickler) appendToTopList(v Value) error {
	if len(u.stack) == 0 {
		return fmt.Errorf("unpickle: APPEND with empty stack")
	}
	top, err := asValue(u.stack[len(u.stack)-1])
	if err != nil {
		return err
	}
	if top.Kind != KindList {
		return fmt.Errorf("unpickle: APPEND onto non-list")
	}
	top.List = append(top.List, v)
	u.stack[len(u.stack)-1] = top
	return nil
}

func (u *unpickler) setItemOnTopDict(k, v Value) error {
	if len(u.stack) == 0 {
		return fmt.Errorf("unpickle: SETITEM with empty stack")
	}
	top, err := asValue(u.stack[len(u.stack)-1])
	if err != nil {
		return err
	}
	if top.Kind != KindDict {
		return fmt.Errorf("unpickle: SETITEM onto non-dict")
	}
	top.Dict = append(top.Dict, DictEntry{Key: k, Val: v})
	u.stack[len(u.stack)-1] = top
	return nil
}

// construct applies one of the allowlisted builtin constructors, or
// builds an opaque ObjectVal for the placeholder classes.
func (u *unpickler) construct(clsAny, argsAny any) (Value, error) {
	ref, ok := clsAny.(globalRef)
	if !ok {
		return Value{}, fmt.Errorf("unpickle: REDUCE/NEWOBJ callable is not a resolved global")
	}
	args, err := asValue(argsAny)
	if err != nil {
		return Value{}, err
	}
	if args.Kind != KindTuple && args.Kind != KindList {
		return Value{}, fmt.Errorf("unpickle: constructor args is not a tuple")
	}
	a := args.List

	switch ref.tag {
	case "builtin:range":
		start, stop, step := int64(0), int64(0), int64(1)
		switch len(a) {
		case 1:
			stop = a[0].Int
		case 2:
			start, stop = a[0].Int, a[1].Int
		case 3:
			start, stop, step = a[0].Int, a[1].Int, a[2].Int
		default:
			return Value{}, fmt.Errorf("unpickle: range() takes 1-3 args, got %d", len(a))
		}
		return Value{Kind: KindRange, Range: RangeVal{Start: start, Stop: stop, Step: step}}, nil
	case "builtin:complex":
		if len(a) != 2 {
			return Value{}, fmt.Errorf("unpickle: complex() takes 2 args, got %d", len(a))
		}
		return Value{Kind: KindComplex, Float: a[0].Float, Imag: a[1].Float}, nil
	case "builtin:set":
		items, err := iterableItems(a)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindSet, List: items}, nil
	case "builtin:frozenset":
		items, err := iterableItems(a)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindFrozenSet, List: items}, nil
	case "builtin:slice":
		switch len(a) {
		case 1:
			return Value{Kind: KindSlice, Slice: &SliceVal{Stop: a[0]}}, nil
		case 2:
			return Value{Kind: KindSlice, Slice: &SliceVal{Start: a[0], Stop: a[1]}}, nil
		case 3:
			return Value{Kind: KindSlice, Slice: &SliceVal{Start: a[0], Stop: a[1], Step: a[2]}}, nil
		default:
			return Value{}, fmt.Errorf("unpickle: slice() takes 1-3 args, got %d", len(a))
		}
	case "object:CamouflageInfo":
		return Value{Kind: KindObject, Object: ObjectVal{ClassName: "CamouflageInfo", Args: a}}, nil
	case "object:PlayerMode":
		return Value{Kind: KindObject, Object: ObjectVal{ClassName: "PlayerMode", Args: a}}, nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrForbiddenGlobal, ref.tag)
	}
}

func iterableItems(args []Value) ([]Value, error) {
	if len(args) == 0 {
		return nil, nil
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("unpickle: expected a single iterable argument, got %d", len(args))
	}
	switch args[0].Kind {
	case KindList, KindTuple, KindSet, KindFrozenSet:
		return args[0].List, nil
	default:
		return nil, fmt.Errorf("unpickle: argument is not iterable (kind=%d)", args[0].Kind)
	}
}
