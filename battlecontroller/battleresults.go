package battlecontroller

import (
	"fmt"
	"strings"

	"github.com/icza/wowsreplay/replay"
	"github.com/icza/wowsreplay/schema"
)

// ingestBattleResults decodes the end-of-match JSON (spec.md §4.6
// "Battle-results ingestion"): private_data/common/players are each
// expanded through their constant table (raw field name -> friendly
// name, and, when a friendly name names another known table, the
// value itself through that table). Only the fields ReplayData's fixed
// public shape (spec.md §6) actually surfaces are retained afterwards;
// the rest of the expansion still runs, matching the decode the
// original performs, even though nothing downstream reads it.
func (c *Controller) ingestBattleResults(data map[string]any) error {
	private := subMap(data, "private_data")
	common := subMap(data, "common")
	players := subMap(data, "players")

	expandedPrivate := c.expandResultFields(private, schema.TablePlayerPrivateResults)
	expandedCommon := c.expandResultFields(common, schema.TableCommonResults)

	for _, raw := range players {
		pm, ok := asMap(raw)
		if !ok {
			continue
		}
		expanded := c.expandResultFields(pm, schema.TableClientPublicResults)
		if v, ok := mapGet(expanded, "interactions"); ok {
			if im, ok := asMap(v); ok {
				expanded["interactions"] = c.expandResultFields(im, schema.TableClientVehInteractionDetails)
			}
		}
		if v, ok := mapGet(expanded, "buildingInteractions"); ok {
			if im, ok := asMap(v); ok {
				expanded["buildingInteractions"] = c.expandResultFields(im, schema.TableClientBuildingInteractionDetails)
			}
		}
	}

	if v, ok := mapGet(expandedPrivate, "accountDBID", "accountDbid"); ok {
		if n, ok := asInt(v); ok {
			c.ownerAccountID = n
		}
	} else if v, ok := mapGet(data, "accountDBID"); ok {
		if n, ok := asInt(v); ok {
			c.ownerAccountID = n
		}
	}

	arenaUnique, ok := mapGet(expandedPrivate, "arenaUniqueID", "arenaUniqueId")
	if !ok {
		arenaUnique, ok = mapGet(data, "arenaUniqueID")
	}
	if ok {
		n, ok := asInt(arenaUnique)
		if !ok {
			return fmt.Errorf("%w: battle_results.arenaUniqueID is not numeric", ErrDispatchFailure)
		}
		aid := int64(n)
		if !c.arenaIDSet {
			c.arenaID = aid
			c.arenaIDSet = true
		} else if c.arenaID != aid {
			return fmt.Errorf("%w: arena_id=%d battle_results.arenaUniqueID=%d", ErrArenaIDMismatch, c.arenaID, aid)
		}
	}

	if c.battleLogic == nil {
		c.battleLogic = &replay.BattleLogic{}
	}
	if v, ok := mapGet(expandedCommon, "winnerTeamId", "winnerTeamID"); ok {
		if n, ok := asInt(v); ok {
			c.battleLogic.Result.WinnerTeamID = n
		}
	}
	if v, ok := mapGet(expandedCommon, "finishReason"); ok {
		c.battleLogic.Result.FinishReason = c.finishReasonName(v)
	}

	c.battleResultsSeen = true
	return nil
}

func (c *Controller) finishReasonName(v any) string {
	if n, ok := asInt(v); ok {
		return c.lookupByIndex(schema.TableFinishReasons, n)
	}
	if s, ok := asString(v); ok {
		return s
	}
	return ""
}

func subMap(m map[string]any, key string) map[string]any {
	v, ok := mapGet(m, key)
	if !ok {
		return nil
	}
	sm, _ := asMap(v)
	return sm
}

// expandResultFields maps each raw key through table (a field-name ->
// friendly-name dictionary), then, when the friendly name uppercased
// names another constant table, expands the value through that table
// too (spec.md §4.6).
func (c *Controller) expandResultFields(raw map[string]any, table string) map[string]any {
	out := make(map[string]any, len(raw))
	mapping, _ := c.constantsTable(table)
	for k, v := range raw {
		name := k
		if friendly, ok := fieldFriendlyName(mapping, k); ok {
			name = friendly
		}
		if sub, ok := c.constantsTable(strings.ToUpper(name)); ok {
			v = expandThroughTable(sub, v)
		}
		out[name] = v
	}
	return out
}

func (c *Controller) constantsTable(name string) (any, bool) {
	if c.schema == nil || c.schema.Constants == nil {
		return nil, false
	}
	return c.schema.Constants.Table(name)
}

func fieldFriendlyName(mapping any, key string) (string, bool) {
	switch t := mapping.(type) {
	case map[string]string:
		s, ok := t[key]
		return s, ok
	case map[string]any:
		if v, ok := t[key]; ok {
			return asString(v)
		}
	}
	return "", false
}

func expandThroughTable(table any, v any) any {
	n, ok := asInt(v)
	if !ok {
		return v
	}
	switch t := table.(type) {
	case []string:
		if n >= 0 && n < len(t) {
			return t[n]
		}
	case map[string]string:
		if s, ok := t[itoaFast(n)]; ok {
			return s
		}
	case map[string]any:
		if s, ok := asString(t[itoaFast(n)]); ok {
			return s
		}
	}
	return v
}
