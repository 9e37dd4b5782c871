package battlecontroller

import (
	"fmt"

	"github.com/icza/wowsreplay/bitpack"
)

// decodeNestedEdit decodes a NestedProperty packet's raw payload (after
// the frame-level entity id) into its root property name, dotted
// subscript path, and restricted-decoded leaf value.
//
// Wire shape (this module's resolution of spec.md §4.4/§9's "structured
// edit (path + new value)", which doesn't pin an exact byte layout):
//
//	root_len:u8  root:root_len bytes
//	seg_count:u8 (seg_len:u8 seg:seg_len bytes){seg_count}
//	value: a restricted-pickle-encoded payload (bitpack.Loads) to EOF
func decodeNestedEdit(raw []byte) (root string, path []string, value any, err error) {
	r := bitpack.NewReader(raw)
	rootLen := r.U8()
	root = r.String(int(rootLen))
	segCount := r.U8()
	path = make([]string, 0, segCount)
	for i := 0; i < int(segCount); i++ {
		segLen := r.U8()
		path = append(path, r.String(int(segLen)))
	}
	if r.Err() != nil {
		return "", nil, nil, fmt.Errorf("nested property header: %w", r.Err())
	}
	rest := r.Bytes(r.Len())
	v, err := bitpack.Loads(rest)
	if err != nil {
		return "", nil, nil, fmt.Errorf("nested property value: %w", err)
	}
	return root, path, v.ToAny(), nil
}
