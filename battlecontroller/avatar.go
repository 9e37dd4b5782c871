package battlecontroller

import (
	"fmt"

	"github.com/icza/wowsreplay/bitpack"
	"github.com/icza/wowsreplay/entity"
	"github.com/icza/wowsreplay/replay"
	"github.com/icza/wowsreplay/schema"
)

func (c *Controller) onCapturedAsAGoal(e *entity.Entity, args []any) {
	if len(args) < 1 {
		return
	}
	if n, ok := asInt(args[0]); ok {
		c.focusedBy = n
	}
}

func (c *Controller) onAchievementEarned(e *entity.Entity, args []any) {
	if len(args) < 2 {
		c.fail(errArgs("onAchievementEarned", 2, len(args)))
		return
	}
	playerID, err := mustInt(args[0], "onAchievementEarned.playerId")
	if err != nil {
		c.fail(err)
		return
	}
	achievementID, err := mustInt(args[1], "onAchievementEarned.achievementId")
	if err != nil {
		c.fail(err)
		return
	}
	c.events.Achievements = append(c.events.Achievements, replay.Achievement{
		CurrentTime:   c.currentTime,
		PlayerID:      playerID,
		AchievementID: achievementID,
	})
}

// onArenaStateReceived seeds players_info for PLAYER/BOT/OBSERVER from
// the restricted-decoded roster and BUILDING into the building map,
// resolves owner_id by matching avatar_id == owner_avatar_id (the
// entity the method fired on, since the client never instantiates an
// Avatar entity for anyone but its own owner), then recomputes
// relations for every known player (spec.md §4.6, §3 invariant 1/8).
func (c *Controller) onArenaStateReceived(e *entity.Entity, args []any) {
	if len(args) < 7 {
		c.fail(errArgs("onArenaStateReceived", 7, len(args)))
		return
	}
	if !c.arenaIDSet {
		if id, ok := asInt(args[0]); ok {
			c.arenaID = int64(id)
			c.arenaIDSet = true
		}
	}
	if c.ownerAvatarID == 0 {
		c.ownerAvatarID = int(e.ID)
	}

	roster, err := c.decodeRoster(map[string]rosterGroup{
		"PLAYER":   {args[3], schema.TablePlayerNumMemberMap},
		"BOT":      {args[4], schema.TableBotNumMemberMap},
		"OBSERVER": {args[5], schema.TableObserverNumMemberMap},
		"BUILDING": {args[6], schema.TableSharedDataClientBuildingData},
	})
	if err != nil {
		c.fail(err)
		return
	}
	if c.ownerID == 0 {
		if id, ok := findOwnerID(roster, c.ownerAvatarID); ok {
			c.ownerID = id
		}
	}
	if err := c.updatePlayersFromRoster(roster); err != nil {
		c.fail(err)
		return
	}
	c.updateRelations()
}

func (c *Controller) onGameRoomStateChanged(e *entity.Entity, args []any) {
	if len(args) < 3 {
		return
	}
	roster, err := c.decodeRoster(map[string]rosterGroup{
		"PLAYER":   {args[0], schema.TablePlayerNumMemberMap},
		"BOT":      {args[1], schema.TableBotNumMemberMap},
		"OBSERVER": {args[2], schema.TableObserverNumMemberMap},
	})
	if err != nil {
		c.fail(err)
		return
	}
	if err := c.updatePlayersFromRoster(roster); err != nil {
		c.fail(err)
		return
	}
	c.updateRelations()
}

func (c *Controller) onNewPlayerSpawnedInBattle(e *entity.Entity, args []any) {
	if len(args) < 3 {
		return
	}
	roster, err := c.decodeRoster(map[string]rosterGroup{
		"PLAYER":   {args[0], schema.TablePlayerNumMemberMap},
		"BOT":      {args[1], schema.TableBotNumMemberMap},
		"OBSERVER": {args[2], schema.TableObserverNumMemberMap},
	})
	if err != nil {
		c.fail(err)
		return
	}
	if err := c.updatePlayersFromRoster(roster); err != nil {
		c.fail(err)
		return
	}
	c.updateRelations()
}

// rosterGroup pairs one onArenaStateReceived/onGameRoomStateChanged/
// onNewPlayerSpawnedInBattle argument with the constants table that
// resolves its indexed fields' names.
type rosterGroup struct {
	arg   any
	table string
}

// decodeRoster turns each group's raw argument — either an
// already-decoded list or a restricted-pickled byte blob, schema
// dependent — into a roster map keyed by player_type, each value a list
// of field-name-keyed player records (spec.md §4.6 "seeds players_info
// ... from the restricted-decoded blobs"; original's PlayersInfo.update
// resolves the same (index, value) pairs through *_NUM_MEMBER_MAP /
// SHARED_DATA_CONSTANTS.CLIENT_BUILDING_DATA).
func (c *Controller) decodeRoster(groups map[string]rosterGroup) (map[string]any, error) {
	roster := make(map[string]any, len(groups))
	for key, g := range groups {
		list, err := c.decodeRosterGroup(g.arg, g.table)
		if err != nil {
			return nil, fmt.Errorf("roster.%s: %w", key, err)
		}
		roster[key] = list
	}
	return roster, nil
}

func (c *Controller) decodeRosterGroup(arg any, table string) ([]any, error) {
	raw := arg
	if blob, ok := arg.([]byte); ok {
		v, err := bitpack.Loads(blob)
		if err != nil {
			return nil, err
		}
		raw = v.ToAny()
	}
	list, ok := asList(raw)
	if !ok {
		return nil, fmt.Errorf("%w: roster group: expected a list, got %T", ErrDispatchFailure, raw)
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		pairs, ok := asList(item)
		if !ok {
			continue
		}
		m := make(map[string]any, len(pairs))
		for _, raw := range pairs {
			pair, ok := asList(raw)
			if !ok || len(pair) != 2 {
				continue
			}
			idx, ok := asInt(pair[0])
			if !ok {
				continue
			}
			m[c.lookupByIndex(table, idx)] = pair[1]
		}
		out = append(out, m)
	}
	return out, nil
}

// findOwnerID scans the PLAYER/BOT/OBSERVER roster groups for the
// record whose avatarId equals ownerAvatarID, returning its player id.
func findOwnerID(roster map[string]any, ownerAvatarID int) (int, bool) {
	for _, key := range []string{"PLAYER", "BOT", "OBSERVER"} {
		list, ok := asList(roster[key])
		if !ok {
			continue
		}
		for _, item := range list {
			m, ok := asMap(item)
			if !ok {
				continue
			}
			av, ok := mapGet(m, "avatarId")
			if !ok {
				continue
			}
			if n, ok := asInt(av); ok && n == ownerAvatarID {
				if id, ok := mapGet(m, "id"); ok {
					if idN, ok := asInt(id); ok {
						return idN, true
					}
				}
			}
		}
	}
	return 0, false
}

func (c *Controller) updatePlayersFromRoster(roster map[string]any) error {
	// OBSERVER entries are deliberately not upserted into players: they
	// never own a ship and the original skips them in update_players.
	for _, group := range []struct {
		key   string
		isBot bool
	}{
		{"PLAYER", false},
		{"BOT", true},
	} {
		v, ok := roster[group.key]
		if !ok {
			continue
		}
		list, err := mustList(v, "roster."+group.key)
		if err != nil {
			return err
		}
		for _, item := range list {
			m, err := mustMap(item, "roster."+group.key+" entry")
			if err != nil {
				return err
			}
			if err := c.upsertPlayer(m, group.isBot); err != nil {
				return err
			}
		}
	}
	if v, ok := roster["BUILDING"]; ok {
		list, err := mustList(v, "roster.BUILDING")
		if err != nil {
			return err
		}
		for _, item := range list {
			m, err := mustMap(item, "roster.BUILDING entry")
			if err != nil {
				return err
			}
			if err := c.upsertBuilding(m); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Controller) upsertPlayer(m map[string]any, isBot bool) error {
	id, err := mustInt(firstOr(m, "id", "playerId"), "player.id")
	if err != nil {
		return err
	}
	p, ok := c.players[id]
	if !ok {
		p = &replay.Player{ID: id, ShipComponents: map[string]string{}}
		c.players[id] = p
	}
	if v, ok := mapGet(m, "accountId", "accountDBID"); ok {
		if n, ok := asInt(v); ok {
			p.AccountID = n
		}
	}
	if v, ok := mapGet(m, "avatarId"); ok {
		if n, ok := asInt(v); ok {
			p.AvatarID = &n
		}
	}
	if v, ok := mapGet(m, "name"); ok {
		if s, ok := asString(v); ok {
			p.Name = s
		}
	}
	if v, ok := mapGet(m, "teamId"); ok {
		if n, ok := asInt(v); ok {
			p.TeamID = n
		}
	}
	if v, ok := mapGet(m, "shipId"); ok {
		if n, ok := asInt(v); ok {
			p.ShipID = n
		}
	}
	if v, ok := mapGet(m, "shipParamsId"); ok {
		if n, ok := asInt(v); ok {
			p.ShipParamsID = n
		}
	}
	if v, ok := mapGet(m, "maxHealth"); ok {
		if n, ok := asFloat(v); ok {
			p.MaxHealth = n
		}
	}
	if v, ok := mapGet(m, "prebattleId"); ok {
		if n, ok := asInt(v); ok {
			p.PrebattleID = n
		}
	}
	if v, ok := mapGet(m, "clanId"); ok {
		if n, ok := asInt(v); ok {
			p.ClanID = n
		}
	}
	if v, ok := mapGet(m, "clanTag"); ok {
		if s, ok := asString(v); ok {
			p.ClanTag = s
		}
	}
	if v, ok := mapGet(m, "clanColor"); ok {
		if n, ok := asInt(v); ok {
			p.ClanColor = n
		}
	}
	if v, ok := mapGet(m, "realm"); ok {
		if s, ok := asString(v); ok {
			p.Realm = &s
		}
	}
	p.IsBot = isBot

	if _, exists := c.vehicleStates[p.ShipID]; !exists && p.ShipID != 0 {
		vs := &replay.VehicleState{Consumables: map[int]*replay.ConsumableState{}}
		vs.Health, vs.MaxHealth = float32(p.MaxHealth), float32(p.MaxHealth)
		c.vehicleStates[p.ShipID] = vs
		c.events.VehicleStates[p.ShipID] = &replay.VehicleStates{SpawnTime: c.currentTime, Consumables: map[int]*replay.ConsumableStates{}}
	}
	if v, ok := mapGet(m, "shipConfigDump"); ok {
		if dump, ok := shipConfigDumpBytes(v); ok {
			cfg, err := c.unpackShipConfig(dump)
			if err != nil {
				c.fail(err)
			} else {
				p.ShipConfig = cfg
			}
		}
	}
	c.rememberTeam(p.TeamID)
	return nil
}

func (c *Controller) upsertBuilding(m map[string]any) error {
	id, err := mustInt(firstOr(m, "id", "uniqueId"), "building.id")
	if err != nil {
		return err
	}
	b, ok := c.buildings[id]
	if !ok {
		b = &replay.Building{ID: id}
		c.buildings[id] = b
	}
	if v, ok := mapGet(m, "name"); ok {
		if s, ok := asString(v); ok {
			b.Name = s
		}
	}
	if v, ok := mapGet(m, "paramsId"); ok {
		if n, ok := asInt(v); ok {
			b.ParamsID = n
		}
	}
	if v, ok := mapGet(m, "teamId"); ok {
		if n, ok := asInt(v); ok {
			b.TeamID = n
		}
	}
	if v, ok := mapGet(m, "uniqueId"); ok {
		if n, ok := asInt(v); ok {
			b.UniqueID = n
		}
	}
	c.rememberTeam(b.TeamID)
	if _, exists := c.buildingState[id]; !exists {
		c.buildingState[id] = &replay.BuildingState{Visible: true}
		c.events.BuildingStates[id] = &replay.BuildingStates{SpawnTime: c.currentTime}
	}
	return nil
}

func (c *Controller) rememberTeam(teamID int) {
	for _, t := range c.teams {
		if t == teamID {
			return
		}
	}
	c.teams = append(c.teams, teamID)
	if _, ok := c.currentScore[teamID]; !ok {
		c.currentScore[teamID] = 0
	}
}

// updateRelations recomputes every player's Relation field against the
// current owner identity (spec.md §3 invariant 8). Idempotent: safe to
// call after every roster update since owner identity can only be
// learned incrementally.
func (c *Controller) updateRelations() {
	var ownerTeam int
	if owner, ok := c.players[c.ownerID]; ok {
		ownerTeam = owner.TeamID
	}
	for _, p := range c.players {
		switch {
		case (p.AvatarID != nil && *p.AvatarID == c.ownerAvatarID) || p.ID == c.ownerAvatarID:
			p.Relation = replay.RelationSelf
		case p.TeamID == ownerTeam:
			p.Relation = replay.RelationAlly
		default:
			p.Relation = replay.RelationEnemy
		}
	}
	for _, b := range c.buildings {
		if b.TeamID == ownerTeam {
			b.Relation = replay.RelationAlly
		} else {
			b.Relation = replay.RelationEnemy
		}
	}
}

func (c *Controller) onChatMessage(e *entity.Entity, args []any) {
	if len(args) < 3 {
		c.fail(errArgs("onChatMessage", 3, len(args)))
		return
	}
	senderID, _ := asInt(args[0])
	channel, _ := asString(args[1])
	message, _ := asString(args[2])
	c.events.ChatMessages = append(c.events.ChatMessages, replay.ChatMessage{
		CurrentTime: c.currentTime,
		SenderID:    senderID,
		ChannelID:   channel,
		Message:     message,
	})
}

// onReceiveDamageStat decodes pickledData: a restricted-pickled dict
// keyed by (target, stat) tuples, valued by (_, amount) tuples (the
// stats matrix "{(target, stat) -> amount}" of spec.md §4.6). Tuple keys
// don't survive bitpack.Value.ToAny (it collapses non-str/int keys, see
// stringKey), so this walks the Value tree directly instead of going
// through ToAny.
func (c *Controller) onReceiveDamageStat(e *entity.Entity, args []any) {
	if len(args) < 1 {
		c.fail(errArgs("receiveDamageStat", 1, len(args)))
		return
	}
	blob, ok := args[0].([]byte)
	if !ok {
		c.fail(errArgs("receiveDamageStat.pickledData", 1, 0))
		return
	}
	v, err := bitpack.Loads(blob)
	if err != nil {
		c.fail(fmt.Errorf("receiveDamageStat: %w", err))
		return
	}
	if v.Kind != bitpack.KindDict {
		c.fail(errArgs("receiveDamageStat.pickledData", 1, 0))
		return
	}
	for _, entry := range v.Dict {
		if entry.Key.Kind != bitpack.KindTuple || len(entry.Key.List) != 2 {
			continue
		}
		if entry.Val.Kind != bitpack.KindTuple || len(entry.Val.List) != 2 {
			continue
		}
		target := int(entry.Key.List[0].Int)
		amount := entry.Val.List[1].Float
		c.currentStats[statKey(target, c.damageStatName(entry.Key.List[1]))] = amount
	}
	c.appendStatsSnapshot()
}

// damageStatName resolves a stat slot (the original indexes a fixed
// DAMAGE_STATS_TYPES table by it) through tableDamageStatsTypes; this
// module's required-table list (spec.md §4.3) doesn't reserve that
// name, so it's this module's own gap resolution (documented in
// DESIGN.md, alongside tableRibbonNames).
func (c *Controller) damageStatName(v bitpack.Value) string {
	if v.Kind == bitpack.KindStr {
		return v.Str
	}
	return c.lookupByIndex(tableDamageStatsTypes, int(v.Int))
}

func (c *Controller) onSquadronDamage(e *entity.Entity, args []any) {
	if len(args) < 1 {
		return
	}
	health, ok := asFloat(args[0])
	if !ok {
		return
	}
	c.currentStats[statKey(int(e.ID), "squadron_damage")] += health
	c.appendStatsSnapshot()
}

func (c *Controller) appendStatsSnapshot() {
	snap := make(map[string]float64, len(c.currentStats))
	for k, v := range c.currentStats {
		snap[k] = v
	}
	c.events.Stats = append(c.events.Stats, snap)
}

func (c *Controller) onReceiveVehicleDeath(e *entity.Entity, args []any) {
	if len(args) < 3 {
		c.fail(errArgs("receiveVehicleDeath", 3, len(args)))
		return
	}
	killed, _ := asInt(args[0])
	fragger, _ := asInt(args[1])
	typeDeath, _ := asInt(args[2])
	icon, name := c.deathReasonIconAndName(typeDeath)
	c.events.Deaths = append(c.events.Deaths, replay.Death{
		CurrentTime:      c.currentTime,
		KilledVehicleID:  killed,
		FraggerVehicleID: fragger,
		TypeDeath:        typeDeath,
		DeathIcon:        icon,
		DeathName:        name,
	})
}

func (c *Controller) onAddMinimapSquadron(e *entity.Entity, args []any) {
	if len(args) < 3 {
		c.fail(errArgs("receive_addMinimapSquadron", 3, len(args)))
		return
	}
	packed, ok := args[0].(uint64)
	if !ok {
		n, ok2 := asInt(args[0])
		if !ok2 {
			c.fail(errArgs("receive_addMinimapSquadron.packedPlaneId", 1, 0))
			return
		}
		packed = uint64(n)
	}
	teamID, _ := asInt(args[1])
	paramsID, _ := asInt(args[2])

	p := decodePlaneID(packed)
	c.squadrons[int(p.planeID)] = &replay.Squadron{
		PlaneID:    p.planeID,
		OwnerID:    int(p.id.AvatarID),
		Index:      int(p.id.Index),
		Purpose:    int(p.id.Purpose),
		Departures: int(p.id.Departures),
		TeamID:     teamID,
		ParamsID:   paramsID,
	}
}

func (c *Controller) onUpdateMinimapSquadron(e *entity.Entity, args []any) {
	if len(args) < 3 {
		return
	}
	planeID, ok := asInt(args[0])
	if !ok {
		return
	}
	x, _ := asFloat(args[1])
	y, _ := asFloat(args[2])
	c.squadronPos[planeID] = [2]float32{float32(x), float32(y)}
}

func (c *Controller) onRemoveMinimapSquadron(e *entity.Entity, args []any) {
	if len(args) < 1 {
		return
	}
	planeID, ok := asInt(args[0])
	if !ok {
		return
	}
	delete(c.squadronPos, planeID)
}

// onWardAdded handles receive_wardAdded(sqId, position:(x,y,z), duration,
// radius, teamId, ownerId). Position keeps (x,z) — the horizontal plane,
// matching the original's (position[0], position[2]).
func (c *Controller) onWardAdded(e *entity.Entity, args []any) {
	if len(args) < 6 {
		c.fail(errArgs("receive_wardAdded", 6, len(args)))
		return
	}
	squadronID, _ := asInt(args[0])
	pos, ok := asList(args[1])
	if !ok || len(pos) < 3 {
		c.fail(errArgs("receive_wardAdded.position", 3, len(pos)))
		return
	}
	x, _ := asFloat(pos[0])
	z, _ := asFloat(pos[2])
	duration, _ := asFloat(args[2])
	radius, _ := asFloat(args[3])
	teamID, _ := asInt(args[4])
	ownerID, _ := asInt(args[5])
	c.events.Wards = append(c.events.Wards, replay.Ward{
		SpawnTime:  c.currentTime,
		SquadronID: squadronID,
		Position:   [2]float32{float32(x), float32(z)},
		Duration:   float32(duration),
		Radius:     float32(radius),
		TeamID:     teamID,
		OwnerID:    ownerID,
	})
}

func (c *Controller) onWardRemoved(e *entity.Entity, args []any) {
	if len(args) < 1 {
		return
	}
	squadronID, ok := asInt(args[0])
	if !ok {
		return
	}
	now := c.currentTime
	for i := range c.events.Wards {
		w := &c.events.Wards[i]
		if w.SquadronID == squadronID && w.DespawnTime == nil {
			w.DespawnTime = &now
		}
	}
}

func (c *Controller) onStartDissapearing(e *entity.Entity, args []any) {
	if len(args) < 1 {
		c.fail(errArgs("startDissapearing", 1, len(args)))
		return
	}
	shipID, err := mustInt(args[0], "startDissapearing.shipId")
	if err != nil {
		c.fail(err)
		return
	}
	if vs, ok := c.vehicleStates[shipID]; ok {
		vs.Appeared = false
	}
}

// onRibbons handles Avatar.privateVehicleState.ribbons. Only the owner's
// avatar is honored (spec.md §3 lifecycle rule for ribbons).
// onRibbons applies one or more {ribbonId, count} states (the wire value
// may be a single state or a fixed list of them) then snapshots the
// running ribbon-name -> count dict onto events.ribbons. Only the
// owner's avatar is honored (spec.md §4.6).
func (c *Controller) onRibbons(e *entity.Entity, path []string, value any) {
	if int(e.ID) != c.ownerAvatarID && c.ownerAvatarID != 0 {
		return
	}

	apply := func(state any) bool {
		m, ok := asMap(state)
		if !ok {
			return false
		}
		ribbonID, err := mustInt(firstOr(m, "ribbonId"), "ribbons.ribbonId")
		if err != nil {
			c.fail(err)
			return false
		}
		count, err := mustInt(firstOr(m, "count"), "ribbons.count")
		if err != nil {
			c.fail(err)
			return false
		}
		if c.currentRibbons == nil {
			c.currentRibbons = map[string]int{}
		}
		c.currentRibbons[c.ribbonName(ribbonID)] = count
		return true
	}

	if list, ok := asList(value); ok {
		for _, state := range list {
			apply(state)
		}
	} else if !apply(value) {
		c.fail(errArgs("privateVehicleState.ribbons", 1, 0))
		return
	}

	snap := make(map[string]int, len(c.currentRibbons))
	for k, v := range c.currentRibbons {
		snap[k] = v
	}
	c.events.Ribbons = append(c.events.Ribbons, snap)
}

func firstOr(m map[string]any, keys ...string) any {
	v, _ := mapGet(m, keys...)
	return v
}

func statKey(target int, stat string) string {
	return itoaFast(target) + ":" + stat
}

func itoaFast(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
