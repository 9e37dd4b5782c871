package battlecontroller

import (
	"github.com/icza/wowsreplay/entity"
	"github.com/icza/wowsreplay/replay"
)

// onBattleLogicState handles the BattleLogic entity's full "state"
// property. On first arrival (current_time==0.0, spec.md §3 invariant
// 7) it seeds the per-team score arrays from missions.teamsScore and
// creates battle_logic; every arrival refreshes duration/scores/type
// from whatever fields are present (spec.md §4.6).
func (c *Controller) onBattleLogicState(e *entity.Entity, value any) {
	m, ok := asMap(value)
	if !ok {
		c.fail(errArgs("BattleLogic.state", 1, 0))
		return
	}

	if c.battleLogic == nil {
		c.battleLogic = &replay.BattleLogic{}
		if missions, ok := mapGet(m, "missions"); ok {
			if mm, ok := asMap(missions); ok {
				if ts, ok := mapGet(mm, "teamsScore"); ok {
					if list, ok := asList(ts); ok {
						for _, entry := range list {
							em, ok := asMap(entry)
							if !ok {
								continue
							}
							teamV, ok := mapGet(em, "teamId")
							if !ok {
								continue
							}
							team, ok := asInt(teamV)
							if !ok {
								continue
							}
							c.rememberTeam(team)
							var score int
							if sv, ok := mapGet(em, "score"); ok {
								score, _ = asInt(sv)
							}
							c.currentScore[team] = int16(score)
						}
					}
				}
			}
		}
	}

	if v, ok := mapGet(m, "duration"); ok {
		if n, ok := asInt(v); ok {
			c.battleLogic.Duration = n
		}
	}
	if v, ok := mapGet(m, "winScore"); ok {
		if n, ok := asInt(v); ok {
			c.battleLogic.WinScore = n
		}
	}
	if v, ok := mapGet(m, "loseScore"); ok {
		if n, ok := asInt(v); ok {
			c.battleLogic.LoseScore = n
		}
	}
	if v, ok := mapGet(m, "battleType"); ok {
		if bt, ok := asMap(v); ok {
			if n, ok := mapGet(bt, "playersPerTeam"); ok {
				if i, ok := asInt(n); ok {
					c.battleLogic.Type.PlayersPerTeam = i
				}
			}
			if n, ok := mapGet(bt, "name"); ok {
				if s, ok := asString(n); ok {
					c.battleLogic.Type.Name = s
					c.gameMode = s
				}
			}
			if n, ok := mapGet(bt, "scenario"); ok {
				if s, ok := asString(n); ok {
					c.battleLogic.Type.Scenario = s
				}
			}
			if n, ok := mapGet(bt, "teamsCount"); ok {
				if i, ok := asInt(n); ok {
					c.battleLogic.Type.TeamsCount = i
				}
			}
		}
	}
}

// onBattleStage and onTimeLeft track BattleLogic's client properties
// directly (original: `self.battle_logic.properties["client"]
// ["battleStage"/"timeLeft"]`, read live at snapshot time rather than
// cached from the "state" blob); battle_stage gates whether a snapshot
// is taken at all (spec.md §4.6 "Snapshot action").
func (c *Controller) onBattleStage(e *entity.Entity, value any) {
	if n, ok := asInt(value); ok {
		c.battleStage = int32(n)
	}
}

func (c *Controller) onTimeLeft(e *entity.Entity, value any) {
	if n, ok := asInt(value); ok {
		c.timeLeft = int32(n)
	}
}
