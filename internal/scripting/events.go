package scripting

import "github.com/greyfall/server/internal/world"

// EventBitFromKind 資料表裡的事件種類字串 → 註冊位元。
func EventBitFromKind(kind string) (world.CreatureEventBit, bool) {
	switch kind {
	case "think":
		return world.EventThink, true
	case "death":
		return world.EventDeath, true
	case "kill":
		return world.EventKill, true
	case "attack":
		return world.EventAttack, true
	case "combat_condition":
		return world.EventCombatCondition, true
	}
	return 0, false
}
