package battlecontroller

import (
	"github.com/icza/wowsreplay/entity"
	"github.com/icza/wowsreplay/replay"
)

// zoneScalar is a capture point's always-current scalar state; its
// snapshot-time values are appended onto the InteractiveZone's per-tick
// arrays (spec.md §4.6 "for each zone, append team_id, radius; if
// captureLogic present, append invader_team, progress, has_invaders,
// is_visible").
type zoneScalar struct {
	teamID          int32
	radius          float32
	invaderTeam     int32
	progress        float32
	hasInvaders     bool
	isVisible       bool
	hasCaptureLogic bool
}

func (c *Controller) zoneScalarFor(id int) *zoneScalar {
	z, ok := c.zoneScalars[id]
	if !ok {
		z = &zoneScalar{}
		c.zoneScalars[id] = z
	}
	return z
}

// onZoneComponentsState constructs the InteractiveZone on first arrival
// (static type/position/index) and merges the scalar fields every time
// it fires (spec.md §4.6).
func (c *Controller) onZoneComponentsState(e *entity.Entity, value any) {
	m, ok := asMap(value)
	if !ok {
		c.fail(errArgs("InteractiveZone.componentsState", 1, 0))
		return
	}
	id := int(e.ID)
	if _, exists := c.events.Zones[id]; !exists {
		z := &replay.InteractiveZone{
			SpawnTime: c.currentTime,
			Position:  [2]float32{e.Position[0], e.Position[1]},
		}
		if v, ok := mapGet(m, "type"); ok {
			if n, ok := asInt(v); ok {
				z.Type = n
			}
		}
		if v, ok := mapGet(m, "controlPoint"); ok {
			if cp, ok := asMap(v); ok {
				if iv, ok := mapGet(cp, "index"); ok {
					if n, ok := asInt(iv); ok {
						z.Index = &n
					}
				}
			}
		}
		c.events.Zones[id] = z
	}

	zs := c.zoneScalarFor(id)
	if v, ok := mapGet(m, "teamId"); ok {
		if n, ok := asInt(v); ok {
			zs.teamID = int32(n)
		}
	}
	if v, ok := mapGet(m, "radius"); ok {
		if f, ok := asFloat(v); ok {
			zs.radius = float32(f)
		}
	}
	if v, ok := mapGet(m, "captureLogic"); ok {
		cl, ok := asMap(v)
		if ok {
			zs.hasCaptureLogic = true
			if iv, ok := mapGet(cl, "invaderTeam"); ok {
				if n, ok := asInt(iv); ok {
					zs.invaderTeam = int32(n)
				}
			}
			if iv, ok := mapGet(cl, "progress"); ok {
				if f, ok := asFloat(iv); ok {
					zs.progress = float32(f)
				}
			}
			if iv, ok := mapGet(cl, "hasInvaders"); ok {
				if b, ok := asBool(iv); ok {
					zs.hasInvaders = b
				}
			}
			if iv, ok := mapGet(cl, "isVisible"); ok {
				if b, ok := asBool(iv); ok {
					zs.isVisible = b
				}
			}
		}
	}
}

// onTeamsScore handles the nested state.missions.teamsScore edit,
// updating the running per-team score (spec.md §4.6).
func (c *Controller) onTeamsScore(e *entity.Entity, path []string, value any) {
	updateScore := func(entry any) {
		m, ok := asMap(entry)
		if !ok {
			return
		}
		teamID, ok := mapGet(m, "teamId")
		if !ok {
			return
		}
		team, ok := asInt(teamID)
		if !ok {
			return
		}
		scoreV, ok := mapGet(m, "score")
		if !ok {
			return
		}
		score, ok := asInt(scoreV)
		if !ok {
			return
		}
		c.rememberTeam(team)
		c.currentScore[team] = int16(score)
	}

	if list, ok := asList(value); ok {
		for _, entry := range list {
			updateScore(entry)
		}
		return
	}
	updateScore(value)
}

// onDropData appends a unique DropData keyed by zoneId the first time it
// is seen (spec.md §4.6 "BattleLogic.state.drop.data"); value is a list
// of drop dicts. appear_time is the battle logic's own timeLeft at the
// moment the drop is recorded, not a field of the drop dict itself.
func (c *Controller) onDropData(e *entity.Entity, path []string, value any) {
	entries, ok := asList(value)
	if !ok {
		entries = []any{value}
	}
	for _, entry := range entries {
		m, ok := asMap(entry)
		if !ok {
			continue
		}
		zoneV, ok := mapGet(m, "zoneId")
		if !ok {
			continue
		}
		zoneID, ok := asInt(zoneV)
		if !ok {
			continue
		}
		if _, exists := c.drops[zoneID]; exists {
			continue
		}
		var paramsID int
		if v, ok := mapGet(m, "paramsId"); ok {
			paramsID, _ = asInt(v)
		}
		var startTime int
		if v, ok := mapGet(m, "startTime"); ok {
			startTime, _ = asInt(v)
		}
		c.drops[zoneID] = replay.DropData{
			AppearTime: int(c.timeLeft),
			ParamsID:   paramsID,
			StartTime:  startTime,
		}
	}
}
