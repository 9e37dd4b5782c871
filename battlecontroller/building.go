package battlecontroller

import (
	"github.com/icza/wowsreplay/entity"
	"github.com/icza/wowsreplay/replay"
)

func (c *Controller) buildingStateFor(id int) *replay.BuildingState {
	bs, ok := c.buildingState[id]
	if !ok {
		bs = &replay.BuildingState{}
		c.buildingState[id] = bs
	}
	return bs
}

func (c *Controller) buildingTimeline(id int) *replay.BuildingStates {
	bt, ok := c.events.BuildingStates[id]
	if !ok {
		bt = &replay.BuildingStates{SpawnTime: c.currentTime}
		c.events.BuildingStates[id] = bt
	}
	return bt
}

// onBuildingIsAlive is bug-compatible with the original: a dead building
// is recorded into dead_vehicles, not a dead_buildings map (spec.md
// §4.6, flagged in §9).
func (c *Controller) onBuildingIsAlive(e *entity.Entity, value any) {
	alive, ok := asBool(value)
	if !ok {
		c.fail(errArgs("Building.isAlive", 1, 0))
		return
	}
	if alive {
		return
	}
	id := int(e.ID)
	if c.vehicleDead(id) {
		return
	}
	c.events.DeadVehicles[id] = c.currentTime
}

func (c *Controller) onBuildingIsSuppressed(e *entity.Entity, value any) {
	id := int(e.ID)
	if c.vehicleDead(id) {
		return
	}
	b, ok := asBool(value)
	if !ok {
		c.fail(errArgs("Building.isSuppressed", 1, 0))
		return
	}
	c.buildingStateFor(id).Suppressed = b
}
