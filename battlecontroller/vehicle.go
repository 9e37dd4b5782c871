package battlecontroller

import (
	"github.com/icza/wowsreplay/bitpack"
	"github.com/icza/wowsreplay/entity"
	"github.com/icza/wowsreplay/replay"
)

// positionAndYawPattern is POSITION_AND_YAW_PATTERN (spec.md §4.6): x in
// [-2500,2500] over 11 bits, y the same, yaw in [-pi,pi] over 8 bits.
var positionAndYawPattern = []bitpack.Field{
	{Min: -2500, Max: 2500, Bits: 11},
	{Min: -2500, Max: 2500, Bits: 11},
	{Min: -3.14159265, Max: 3.14159265, Bits: 8},
}

const sentinelHidden = -2500

func (c *Controller) vehicleState(shipID int) *replay.VehicleState {
	vs, ok := c.vehicleStates[shipID]
	if !ok {
		vs = &replay.VehicleState{Consumables: map[int]*replay.ConsumableState{}}
		c.vehicleStates[shipID] = vs
	}
	return vs
}

func (c *Controller) vehicleTimeline(shipID int) *replay.VehicleStates {
	vt, ok := c.events.VehicleStates[shipID]
	if !ok {
		vt = &replay.VehicleStates{SpawnTime: c.currentTime, Consumables: map[int]*replay.ConsumableStates{}}
		c.events.VehicleStates[shipID] = vt
	}
	return vt
}

// vehicleDead reports whether shipID was already recorded dead; dead
// vehicles' timeline arrays must not be extended further (spec.md §3
// invariant 4).
func (c *Controller) vehicleDead(shipID int) bool {
	_, dead := c.events.DeadVehicles[shipID]
	return dead
}

func (c *Controller) onSetConsumables(e *entity.Entity, args []any) {
	if len(args) < 1 {
		c.fail(errArgs("setConsumables", 1, len(args)))
		return
	}
	entries, err := mustList(args[0], "setConsumables")
	if err != nil {
		c.fail(err)
		return
	}
	shipID := int(e.ID)
	vs := c.vehicleState(shipID)
	vt := c.vehicleTimeline(shipID)
	for _, raw := range entries {
		pair, err := mustList(raw, "setConsumables entry")
		if err != nil {
			c.fail(err)
			return
		}
		if len(pair) != 2 {
			c.fail(errArgs("setConsumables entry", 2, len(pair)))
			return
		}
		typeID, err := mustInt(pair[0], "setConsumables.typeId")
		if err != nil {
			c.fail(err)
			return
		}
		inner, err := mustList(pair[1], "setConsumables.(_,count)")
		if err != nil {
			c.fail(err)
			return
		}
		if len(inner) != 2 {
			c.fail(errArgs("setConsumables.(_,count)", 2, len(inner)))
			return
		}
		count, err := mustInt(inner[1], "setConsumables.count")
		if err != nil {
			c.fail(err)
			return
		}
		if _, ok := vs.Consumables[typeID]; !ok {
			vs.Consumables[typeID] = &replay.ConsumableState{Expiry: -1}
			vt.Consumables[typeID] = &replay.ConsumableStates{AddedAt: c.currentTime}
		}
		vs.Consumables[typeID].Count = count
	}
}

func (c *Controller) onConsumableUsed(e *entity.Entity, args []any) {
	if len(args) < 2 {
		c.fail(errArgs("consumableUsed", 2, len(args)))
		return
	}
	typeID, err := mustInt(args[0], "consumableUsed.type")
	if err != nil {
		c.fail(err)
		return
	}
	workTimeLeft, err := mustFloat(args[1], "consumableUsed.workTimeLeft")
	if err != nil {
		c.fail(err)
		return
	}
	vs := c.vehicleState(int(e.ID))
	cs, ok := vs.Consumables[typeID]
	if !ok {
		cs = &replay.ConsumableState{Expiry: -1}
		vs.Consumables[typeID] = cs
	}
	cs.Expiry = c.currentTime + float32(workTimeLeft)
	if cs.Count > 0 {
		cs.Count--
	}
}

func (c *Controller) onBurningFlags(e *entity.Entity, value any) {
	shipID := int(e.ID)
	if c.vehicleDead(shipID) {
		return
	}
	n, ok := asInt(value)
	if !ok {
		c.fail(errArgs("burningFlags", 1, 0))
		return
	}
	c.vehicleState(shipID).BurningFlags = n
}

func (c *Controller) onHealth(e *entity.Entity, value any) {
	shipID := int(e.ID)
	if c.vehicleDead(shipID) {
		return
	}
	f, ok := asFloat(value)
	if !ok {
		c.fail(errArgs("health", 1, 0))
		return
	}
	c.vehicleState(shipID).Health = float32(f)
}

func (c *Controller) onMaxHealth(e *entity.Entity, value any) {
	shipID := int(e.ID)
	if c.vehicleDead(shipID) {
		return
	}
	f, ok := asFloat(value)
	if !ok {
		c.fail(errArgs("maxHealth", 1, 0))
		return
	}
	c.vehicleState(shipID).MaxHealth = float32(f)
}

func (c *Controller) onRegenerationHealth(e *entity.Entity, value any) {
	shipID := int(e.ID)
	if c.vehicleDead(shipID) {
		return
	}
	f, ok := asFloat(value)
	if !ok {
		c.fail(errArgs("regenerationHealth", 1, 0))
		return
	}
	c.vehicleState(shipID).RegenerationHealth = float32(f)
}

func (c *Controller) onRegenCrewHPLimit(e *entity.Entity, value any) {
	shipID := int(e.ID)
	if c.vehicleDead(shipID) {
		return
	}
	f, ok := asFloat(value)
	if !ok {
		c.fail(errArgs("regenCrewHpLimit", 1, 0))
		return
	}
	c.vehicleState(shipID).RegenCrewHPLimit = float32(f)
}

func (c *Controller) onVisibilityFlags(e *entity.Entity, value any) {
	shipID := int(e.ID)
	if c.vehicleDead(shipID) {
		return
	}
	n, ok := asInt(value)
	if !ok {
		c.fail(errArgs("visibilityFlags", 1, 0))
		return
	}
	c.vehicleState(shipID).VisibilityFlags = n
}

func (c *Controller) onUIEnabled(e *entity.Entity, value any) {
	shipID := int(e.ID)
	if c.vehicleDead(shipID) {
		return
	}
	n, ok := asInt(value)
	if !ok || n != 1 {
		c.fail(errArgs("uiEnabled", 1, 0))
		return
	}
	c.vehicleState(shipID).Appeared = true
}

func (c *Controller) onVehicleIsAlive(e *entity.Entity, value any) {
	alive, ok := asBool(value)
	if !ok {
		c.fail(errArgs("Vehicle.isAlive", 1, 0))
		return
	}
	if alive {
		return
	}
	shipID := int(e.ID)
	if c.vehicleDead(shipID) {
		return
	}
	c.events.DeadVehicles[shipID] = c.currentTime
}

func (c *Controller) onCrewModifiersCompactParams(e *entity.Entity, args []any) {
	if len(args) < 1 {
		return
	}
	m, ok := asMap(args[0])
	if !ok {
		return
	}
	var skills replay.CrewSkills
	if v, ok := mapGet(m, "paramsId"); ok {
		if n, ok := asInt(v); ok {
			skills.ParamsID = n
		}
	}
	if v, ok := mapGet(m, "isInAdaptation"); ok {
		if b, ok := asBool(v); ok {
			skills.IsInAdaptation = b
		}
	}
	if v, ok := mapGet(m, "learnedSkills"); ok {
		if outer, ok := asList(v); ok {
			for _, group := range outer {
				if inner, ok := asList(group); ok {
					row := make([]int, 0, len(inner))
					for _, item := range inner {
						if n, ok := asInt(item); ok {
							row = append(row, n)
						}
					}
					skills.LearnedSkills = append(skills.LearnedSkills, row)
				}
			}
		}
	}
	c.crewSkills[int(e.ID)] = skills
}

// onUpdateMinimapVisionInfo decodes shipsMinimapDiff and buildingsMinimapDiff
// (spec.md §4.6 "Position updates"): two separate argument lists, each entry
// a {"vehicleID": id, "packedData": packed} map.
func (c *Controller) onUpdateMinimapVisionInfo(e *entity.Entity, args []any) {
	if len(args) < 1 {
		return
	}
	if ships, ok := asList(args[0]); ok {
		for _, raw := range ships {
			id, packed, ok := decodeMinimapDiffEntry(raw)
			if !ok {
				continue
			}
			fields := bitpack.UnpackBits(packed, positionAndYawPattern)
			x, y, yaw := fields[0], fields[1], fields[2]
			c.applyVehiclePosition(id, x, y, yaw, x == sentinelHidden && y == sentinelHidden)
		}
	}
	if len(args) < 2 {
		return
	}
	if buildings, ok := asList(args[1]); ok {
		for _, raw := range buildings {
			id, packed, ok := decodeMinimapDiffEntry(raw)
			if !ok {
				continue
			}
			fields := bitpack.UnpackBits(packed, positionAndYawPattern)
			x, y, yaw := fields[0], fields[1], fields[2]
			c.applyBuildingPosition(id, x, y, yaw, x == sentinelHidden && y == sentinelHidden)
		}
	}
}

// decodeMinimapDiffEntry extracts vehicleID/packedData from a
// shipsMinimapDiff/buildingsMinimapDiff entry.
func decodeMinimapDiffEntry(raw any) (id int, packed uint64, ok bool) {
	m, ok := asMap(raw)
	if !ok {
		return 0, 0, false
	}
	idv, ok := mapGet(m, "vehicleID")
	if !ok {
		return 0, 0, false
	}
	id, ok = asInt(idv)
	if !ok {
		return 0, 0, false
	}
	pv, ok := mapGet(m, "packedData")
	if !ok {
		return 0, 0, false
	}
	if v, ok := pv.(uint64); ok {
		return id, v, true
	}
	n, ok := asInt(pv)
	if !ok {
		return 0, 0, false
	}
	return id, uint64(n), true
}

func (c *Controller) applyVehiclePosition(shipID int, x, y, yaw float32, hidden bool) {
	if hidden {
		vs := c.vehicleState(shipID)
		vs.VisibilityFlags = 0
		vs.Appeared = false
		return
	}
	vt := c.vehicleTimeline(shipID)
	vt.PositionDiff = append(vt.PositionDiff, x, y, yaw)
}

func (c *Controller) applyBuildingPosition(id int, x, y, yaw float32, hidden bool) {
	if hidden {
		c.buildingStateFor(id).Visible = false
		return
	}
	bs := c.buildingStateFor(id)
	bs.Visible = true
	bt := c.buildingTimeline(id)
	pos := [3]float32{x, y, yaw}
	bt.Position = &pos
}
