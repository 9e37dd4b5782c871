package battlecontroller

import "github.com/icza/wowsreplay/entity"

// subscribe registers the controller's fixed hook set (spec.md §4.6)
// against its entity.Registry. Called once, from New.
func (c *Controller) subscribe() {
	r := c.registry

	r.OnMethod(typeAvatar, "capturedAsAGoal", c.onCapturedAsAGoal)
	r.OnMethod(typeAvatar, "onAchievementEarned", c.onAchievementEarned)
	r.OnMethod(typeAvatar, "onArenaStateReceived", c.onArenaStateReceived)
	r.OnMethod(typeAvatar, "onGameRoomStateChanged", c.onGameRoomStateChanged)
	r.OnMethod(typeAvatar, "onNewPlayerSpawnedInBattle", c.onNewPlayerSpawnedInBattle)
	r.OnMethod(typeAvatar, "onChatMessage", c.onChatMessage)
	r.OnMethod(typeAvatar, "receiveDamageStat", c.onReceiveDamageStat)
	r.OnMethod(typeAvatar, "receiveVehicleDeath", c.onReceiveVehicleDeath)
	r.OnMethod(typeAvatar, "receive_addMinimapSquadron", c.onAddMinimapSquadron)
	r.OnMethod(typeAvatar, "receive_removeMinimapSquadron", c.onRemoveMinimapSquadron)
	r.OnMethod(typeAvatar, "receive_updateMinimapSquadron", c.onUpdateMinimapSquadron)
	r.OnMethod(typeAvatar, "receive_wardAdded", c.onWardAdded)
	r.OnMethod(typeAvatar, "receive_wardRemoved", c.onWardRemoved)
	r.OnMethod(typeAvatar, "receive_squadronDamage", c.onSquadronDamage)
	r.OnMethod(typeAvatar, "startDissapearing", c.onStartDissapearing)
	r.OnMethod(typeAvatar, "updateMinimapVisionInfo", c.onUpdateMinimapVisionInfo)
	r.OnNestedProperty(typeAvatar, "privateVehicleState.ribbons", c.onRibbons)

	r.OnProperty(typeBattleLogic, "state", c.onBattleLogicState)
	r.OnNestedProperty(typeBattleLogic, "state.missions.teamsScore", c.onTeamsScore)
	r.OnNestedProperty(typeBattleLogic, "state.drop.data", c.onDropData)
	r.OnProperty(typeBattleLogic, "battleStage", c.onBattleStage)
	r.OnProperty(typeBattleLogic, "timeLeft", c.onTimeLeft)

	r.OnProperty(typeBuilding, "isAlive", c.onBuildingIsAlive)
	r.OnProperty(typeBuilding, "isSuppressed", c.onBuildingIsSuppressed)

	r.OnProperty(typeInteractiveZone, "componentsState", c.onZoneComponentsState)

	r.OnProperty(typeSmokeScreen, "points", c.onSmokePoints)

	r.OnMethod(typeVehicle, "setConsumables", c.onSetConsumables)
	r.OnMethod(typeVehicle, "consumableUsed", c.onConsumableUsed)
	r.OnProperty(typeVehicle, "burningFlags", c.onBurningFlags)
	r.OnProperty(typeVehicle, "health", c.onHealth)
	r.OnProperty(typeVehicle, "maxHealth", c.onMaxHealth)
	r.OnProperty(typeVehicle, "regenerationHealth", c.onRegenerationHealth)
	r.OnProperty(typeVehicle, "regenCrewHpLimit", c.onRegenCrewHPLimit)
	r.OnProperty(typeVehicle, "visibilityFlags", c.onVisibilityFlags)
	r.OnProperty(typeVehicle, "uiEnabled", c.onUIEnabled)
	r.OnProperty(typeVehicle, "isAlive", c.onVehicleIsAlive)
	r.OnMethod(typeVehicle, "crewModifiersCompactParams", c.onCrewModifiersCompactParams)
}

// onEntityCreated is a hook point for Avatar-entity construction; owner
// identification happens in onArenaStateReceived instead (owner_avatar_id
// from the entity id firing the method, owner_id resolved afterwards
// from the decoded roster — see findOwnerID).
func (c *Controller) onEntityCreated(e *entity.Entity) {}
