package battlecontroller

import (
	"fmt"

	"github.com/icza/wowsreplay/bitpack"
)

// planeID bundles the raw packed plane id with its unpacked fields, so
// callers can key state by the packed value while still reading its
// parts (spec.md §4.1 unpack_plane_id).
type planeID struct {
	planeID uint64
	id      bitpack.PlaneID
}

func decodePlaneID(packed uint64) planeID {
	return planeID{planeID: packed, id: bitpack.UnpackPlaneID(packed)}
}

// errArgs reports a method/property handler receiving fewer arguments
// than its expected shape.
func errArgs(member string, want, got int) error {
	return fmt.Errorf("%w: %s: expected %d argument(s), got %d", ErrDispatchFailure, member, want, got)
}
