package battlecontroller

import (
	"sort"

	"github.com/icza/wowsreplay/replay"
)

// setCurrentTime advances current_time, taking a snapshot at every
// period boundary crossed since the last call (spec.md §4.6
// "Period/snapshot algorithm").
func (c *Controller) setCurrentTime(t float32) {
	if c.period > 0 {
		for c.previousBar+c.period < t {
			c.snapshot()
			c.previousBar += c.period
		}
	}
	c.currentTime = t
}

// snapshot appends one Snapshot and the matching per-entity timeline
// samples. It is a no-op before the battle has started (battle_stage ==
// -1) (spec.md §4.6 "Snapshot action").
func (c *Controller) snapshot() {
	if c.battleStage == -1 {
		return
	}

	c.snapshots = append(c.snapshots, replay.Snapshot{
		CurrentTime: c.currentTime,
		TimeLeft:    c.timeLeft,
		BattleStage: c.battleStage,
		Counts: replay.Counts{
			Achievements: len(c.events.Achievements),
			ChatMessages: len(c.events.ChatMessages),
			// Deaths intentionally mirrors ChatMessages' length, not
			// len(c.events.Deaths): bug-compatible with the original
			// (spec.md §4.6 "[sic]", flagged in §9).
			Deaths:  len(c.events.ChatMessages),
			Ribbons: len(c.events.Ribbons),
			Stats:   len(c.events.Stats),
		},
	})

	c.events.FocusedBy = append(c.events.FocusedBy, c.focusedBy)

	for _, team := range sortedInts(c.teams) {
		c.events.Score[team] = append(c.events.Score[team], c.currentScore[team])
	}

	for _, id := range sortedIntKeysB(c.buildings) {
		// Checked against DeadBuildings, not DeadVehicles: building_is_alive
		// writes into DeadVehicles (bug-compatible, see building.go), so
		// DeadBuildings never gains an entry and buildings never freeze here.
		if _, dead := c.events.DeadBuildings[id]; dead {
			continue
		}
		bs := c.buildingStateFor(id)
		bt := c.buildingTimeline(id)
		bt.Suppressed = append(bt.Suppressed, boolToU8(bs.Suppressed))
		bt.Visible = append(bt.Visible, boolToU8(bs.Visible))
	}

	for _, shipID := range sortedIntKeysVT(c.events.VehicleStates) {
		if c.vehicleDead(shipID) {
			continue
		}
		vs := c.vehicleState(shipID)
		vt := c.events.VehicleStates[shipID]
		vt.PositionCounter = append(vt.PositionCounter, uint32(len(vt.PositionDiff)))
		vt.Health = append(vt.Health, vs.Health)
		vt.MaxHealth = append(vt.MaxHealth, vs.MaxHealth)
		vt.RegenerationHealth = append(vt.RegenerationHealth, vs.RegenerationHealth)
		vt.RegenCrewHPLimit = append(vt.RegenCrewHPLimit, vs.RegenCrewHPLimit)
		vt.BurningFlags = append(vt.BurningFlags, uint32(vs.BurningFlags))
		vt.VisibilityFlags = append(vt.VisibilityFlags, uint32(vs.VisibilityFlags))
		vt.Appeared = append(vt.Appeared, boolToU8(vs.Appeared))

		for _, typeID := range sortedConsumableKeys(vs.Consumables) {
			cs := vs.Consumables[typeID]
			cts, ok := vt.Consumables[typeID]
			if !ok {
				cts = &replay.ConsumableStates{AddedAt: c.currentTime}
				vt.Consumables[typeID] = cts
			}
			active := cs.Expiry >= 0 && cs.Expiry > c.currentTime
			cts.Active = append(cts.Active, boolToU8(active))
			cts.Count = append(cts.Count, int8(cs.Count))
		}
	}

	for _, id := range sortedIntKeysZ(c.events.Zones) {
		z := c.events.Zones[id]
		zs := c.zoneScalarFor(id)
		z.TeamID = append(z.TeamID, zs.teamID)
		z.Radius = append(z.Radius, zs.radius)
		if zs.hasCaptureLogic {
			z.InvaderTeam = append(z.InvaderTeam, zs.invaderTeam)
			z.Progress = append(z.Progress, zs.progress)
			z.HasInvaders = append(z.HasInvaders, boolToU8(zs.hasInvaders))
			z.IsVisible = append(z.IsVisible, boolToU8(zs.isVisible))
		}
	}

	for _, id := range sortedIntKeysS(c.events.Smokes) {
		s := c.events.Smokes[id]
		s.Bounds = append(s.Bounds, uint8(s.BoundLeft), uint8(s.BoundRight))
	}

	c.events.SquadronCounter = append(c.events.SquadronCounter, uint32(len(c.events.SquadronPlaneID)))
	for _, id := range sortedIntKeysSq(c.squadrons) {
		pos, ok := c.squadronPos[id]
		if !ok {
			continue
		}
		sq := c.squadrons[id]
		c.events.SquadronPlaneID = append(c.events.SquadronPlaneID, sq.PlaneID)
		c.events.SquadronPosition = append(c.events.SquadronPosition, pos[0], pos[1])
	}
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

func sortedInts(in []int) []int {
	out := append([]int(nil), in...)
	sort.Ints(out)
	return out
}

func sortedIntKeysB(m map[int]*replay.Building) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedIntKeysVT(m map[int]*replay.VehicleStates) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedIntKeysZ(m map[int]*replay.InteractiveZone) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedIntKeysS(m map[int]*replay.SmokeScreen) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedIntKeysSq(m map[int]*replay.Squadron) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func sortedConsumableKeys(m map[int]*replay.ConsumableState) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
