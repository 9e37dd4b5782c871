package battlecontroller

import (
	"encoding/binary"
	"fmt"

	"github.com/icza/wowsreplay/replay"
	"github.com/icza/wowsreplay/schema"
)

// shipConfigDumpBytes recovers the raw byte blob from a roster entry's
// shipConfigDump field. The restricted decoder may hand it back either
// as bytes directly, or (mirroring the original, which re-encodes a str
// via latin1) as a string whose code points are themselves byte values.
func shipConfigDumpBytes(v any) ([]byte, bool) {
	switch t := v.(type) {
	case []byte:
		return t, true
	case string:
		b := make([]byte, 0, len(t))
		for _, r := range t {
			b = append(b, byte(r))
		}
		return b, true
	}
	return nil, false
}

// unpackShipConfig decodes a shipConfigDump blob: a little-endian u32
// stream (spec.md §4.6 "Ship config unpack").
func (c *Controller) unpackShipConfig(dump []byte) (replay.ShipConfiguration, error) {
	var cfg replay.ShipConfiguration
	r := &u32Reader{buf: dump}

	shipIDLen, err := r.one()
	if err != nil {
		return cfg, err
	}
	if shipIDLen != 1 {
		return cfg, fmt.Errorf("%w: shipConfigDump: ship_id_length=%d, want 1", ErrDispatchFailure, shipIDLen)
	}
	shipID, err := r.one()
	if err != nil {
		return cfg, err
	}
	cfg.ShipID = int(shipID)

	payloadLen, err := r.one()
	if err != nil {
		return cfg, err
	}
	if int(payloadLen)*4 != len(dump)-r.pos {
		return cfg, fmt.Errorf("%w: shipConfigDump: payload_length*4=%d, remaining=%d",
			ErrDispatchFailure, int(payloadLen)*4, len(dump)-r.pos)
	}

	unitTypes := c.unitTypesTable()
	unitsLen, err := r.one()
	if err != nil {
		return cfg, err
	}
	if int(unitsLen) != len(unitTypes) {
		return cfg, fmt.Errorf("%w: shipConfigDump: units_length=%d, want %d",
			ErrDispatchFailure, unitsLen, len(unitTypes))
	}
	cfg.Units = make(map[string]int)
	for i := 0; i < int(unitsLen); i++ {
		slot, err := r.one()
		if err != nil {
			return cfg, err
		}
		if slot != 0 {
			cfg.Units[unitTypes[i]] = int(slot)
		}
	}

	if cfg.Modernization, err = r.list(); err != nil {
		return cfg, err
	}
	if cfg.Exterior, err = r.list(); err != nil {
		return cfg, err
	}
	autoSupply, err := r.one()
	if err != nil {
		return cfg, err
	}
	cfg.AutoSupplyState = int(autoSupply)
	if cfg.ColorScheme, err = r.list(); err != nil {
		return cfg, err
	}

	a, err := r.one()
	if err != nil {
		return cfg, err
	}
	b, err := r.one()
	if err != nil {
		return cfg, err
	}
	if b > 64 {
		tail, err := r.exactly(int(a) - 1)
		if err != nil {
			return cfg, err
		}
		cfg.Abilities = append([]int{int(b)}, tail...)
	} else {
		cfg.Abilities, err = r.exactly(int(b))
		if err != nil {
			return cfg, err
		}
	}

	if cfg.Ensigns, err = r.list(); err != nil {
		return cfg, err
	}
	if cfg.Boosters, err = r.list(); err != nil {
		return cfg, err
	}
	if _, err := r.one(); err != nil { // EcoboostSlots.dumpAutoBuyInfo
		return cfg, err
	}
	nationFlag, err := r.one()
	if err != nil {
		return cfg, err
	}
	cfg.NationFlag = int(nationFlag)

	return cfg, nil
}

func (c *Controller) unitTypesTable() []string {
	v, ok := c.constantsTable(schema.TableUnitTypes)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := asString(e); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// u32Reader reads a flat little-endian u32 stream, as consumed by
// unpack_ship_config in the original.
type u32Reader struct {
	buf []byte
	pos int
}

func (r *u32Reader) one() (uint32, error) {
	if r.pos+4 > len(r.buf) {
		return 0, fmt.Errorf("%w: shipConfigDump: truncated", ErrDispatchFailure)
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *u32Reader) exactly(n int) ([]int, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: shipConfigDump: negative count", ErrDispatchFailure)
	}
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		v, err := r.one()
		if err != nil {
			return nil, err
		}
		out = append(out, int(v))
	}
	return out, nil
}

// list reads a u32 count followed by that many u32s.
func (r *u32Reader) list() ([]int, error) {
	n, err := r.one()
	if err != nil {
		return nil, err
	}
	return r.exactly(int(n))
}
