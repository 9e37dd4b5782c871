package battlecontroller

import (
	"encoding/binary"
	"testing"

	"github.com/rs/zerolog"

	"github.com/icza/wowsreplay/schema"
)

type fixtureConstants struct {
	unitTypes []string
}

func (f fixtureConstants) Table(name string) (any, bool) {
	if name == schema.TableUnitTypes {
		return f.unitTypes, true
	}
	return nil, false
}

// buildShipConfigDump assembles a shipConfigDump blob with a single
// unit slot, no modernization/exterior/color-scheme/ensign/booster
// entries, and the given ability-count fields a/b followed by
// abilityWords (spec.md §4.6 "Ship config unpack" a/b disambiguation).
func buildShipConfigDump(t *testing.T, a, b uint32, abilityWords []uint32) []byte {
	t.Helper()
	rest := []uint32{
		1,    // units_length (one unit type registered)
		0,    // unit slot value
		0,    // modernization count
		0,    // exterior count
		0,    // auto supply state
		0,    // color scheme count
		a, b, // ability a/b fields
	}
	rest = append(rest, abilityWords...)
	rest = append(rest,
		0, // ensigns count
		0, // boosters count
		0, // EcoboostSlots.dumpAutoBuyInfo
		7, // nation flag
	)

	words := []uint32{1, 12345, uint32(len(rest))}
	words = append(words, rest...)

	buf := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func newFixtureController() *Controller {
	return New(Config{
		Schema: &schema.Version{Constants: fixtureConstants{unitTypes: []string{"hull"}}},
		Logger: zerolog.Nop(),
	})
}

// TestUnpackShipConfigLowAbilityCount covers spec.md §8 scenario S4's
// b<=64 branch: abilities is exactly b entries read after b itself.
func TestUnpackShipConfigLowAbilityCount(t *testing.T) {
	c := newFixtureController()
	dump := buildShipConfigDump(t, 5, 2, []uint32{100, 200})

	cfg, err := c.unpackShipConfig(dump)
	if err != nil {
		t.Fatalf("unpackShipConfig() error = %v", err)
	}
	want := []int{100, 200}
	if !intsEqual(cfg.Abilities, want) {
		t.Errorf("Abilities = %v, want %v", cfg.Abilities, want)
	}
}

// TestUnpackShipConfigHighAbilityCount covers spec.md §8 scenario S4's
// b>64 branch: b itself is the first ability, followed by a-1 more.
func TestUnpackShipConfigHighAbilityCount(t *testing.T) {
	c := newFixtureController()
	dump := buildShipConfigDump(t, 3, 100, []uint32{11, 22})

	cfg, err := c.unpackShipConfig(dump)
	if err != nil {
		t.Fatalf("unpackShipConfig() error = %v", err)
	}
	want := []int{100, 11, 22}
	if !intsEqual(cfg.Abilities, want) {
		t.Errorf("Abilities = %v, want %v", cfg.Abilities, want)
	}
}

func TestUnpackShipConfigNationFlagAndShipID(t *testing.T) {
	c := newFixtureController()
	dump := buildShipConfigDump(t, 0, 0, nil)

	cfg, err := c.unpackShipConfig(dump)
	if err != nil {
		t.Fatalf("unpackShipConfig() error = %v", err)
	}
	if cfg.ShipID != 12345 {
		t.Errorf("ShipID = %d, want 12345", cfg.ShipID)
	}
	if cfg.NationFlag != 7 {
		t.Errorf("NationFlag = %d, want 7", cfg.NationFlag)
	}
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
