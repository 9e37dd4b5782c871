package battlecontroller

import (
	"testing"

	"github.com/icza/wowsreplay/entity"
	"github.com/icza/wowsreplay/schema"
)

func vehicleEntity(id int32) *entity.Entity {
	return entity.New(id, &schema.EntityDef{Name: typeVehicle})
}

// TestVehicleDeathFreezesHealthTimeline covers spec.md §8 scenario S6
// and §3 invariant 4: once isAlive reports false, later health/maxHealth
// edits for that ship must be dropped, not appended.
func TestVehicleDeathFreezesHealthTimeline(t *testing.T) {
	c := newFixtureController()
	e := vehicleEntity(7)

	c.setCurrentTime(5)
	c.onHealth(e, float64(8000))
	if got := c.vehicleState(7).Health; got != 8000 {
		t.Fatalf("Health before death = %v, want 8000", got)
	}

	c.setCurrentTime(10)
	c.onVehicleIsAlive(e, false)
	if !c.vehicleDead(7) {
		t.Fatalf("vehicleDead(7) = false after isAlive=false")
	}
	if got := c.events.DeadVehicles[7]; got != 10 {
		t.Errorf("DeadVehicles[7] = %v, want 10", got)
	}

	c.setCurrentTime(12)
	c.onHealth(e, float64(0))
	if got := c.vehicleState(7).Health; got != 8000 {
		t.Errorf("Health after death = %v, want frozen at 8000", got)
	}

	c.onMaxHealth(e, float64(50000))
	if got := c.vehicleState(7).MaxHealth; got != 0 {
		t.Errorf("MaxHealth after death = %v, want frozen at 0 (never set)", got)
	}
}

// TestVehicleIsAliveIdempotent confirms a second isAlive=false for an
// already-dead ship doesn't reset its recorded death time.
func TestVehicleIsAliveIdempotent(t *testing.T) {
	c := newFixtureController()
	e := vehicleEntity(9)

	c.setCurrentTime(3)
	c.onVehicleIsAlive(e, false)
	c.setCurrentTime(99)
	c.onVehicleIsAlive(e, false)

	if got := c.events.DeadVehicles[9]; got != 3 {
		t.Errorf("DeadVehicles[9] = %v, want 3 (first death time kept)", got)
	}
}
