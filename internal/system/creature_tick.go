package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/greyfall/server/internal/core/system"
	"github.com/greyfall/server/internal/world"
)

// ConditionTickSystem 推進所有生物的 condition。
// Phase 1（PreUpdate）：狀態先結算，think 看到的是本 tick 的最新狀態。
type ConditionTickSystem struct {
	state *world.State
}

func NewConditionTickSystem(state *world.State) *ConditionTickSystem {
	return &ConditionTickSystem{state: state}
}

func (s *ConditionTickSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *ConditionTickSystem) Update(dt time.Duration) {
	interval := dt.Milliseconds()
	for _, c := range s.state.Creatures() {
		if c.IsRemoved() || c.IsDead() {
			continue
		}
		c.ExecuteConditions(interval)
	}
}

// CreatureThinkSystem 每 tick 的心跳：think + 攻擊節拍。
// Phase 2（Update）。
type CreatureThinkSystem struct {
	state *world.State
	log   *zap.Logger
}

func NewCreatureThinkSystem(state *world.State, log *zap.Logger) *CreatureThinkSystem {
	return &CreatureThinkSystem{state: state, log: log}
}

func (s *CreatureThinkSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *CreatureThinkSystem) Update(dt time.Duration) {
	interval := dt.Milliseconds()
	// 走快照：think 過程中可能增刪生物（召喚、散場）
	for _, c := range s.state.Creatures() {
		if c.IsRemoved() || c.IsDead() || c.Health <= 0 {
			continue
		}
		c.OnThink(interval)
		c.OnAttacking(interval)
	}
}

// CorpseCleanupSystem 收掉死亡結算後仍掛在註冊表裡的生物。
// Phase 4（Cleanup）。
type CorpseCleanupSystem struct {
	state *world.State
}

func NewCorpseCleanupSystem(state *world.State) *CorpseCleanupSystem {
	return &CorpseCleanupSystem{state: state}
}

func (s *CorpseCleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CorpseCleanupSystem) Update(_ time.Duration) {
	for _, c := range s.state.Creatures() {
		if c.IsDead() && !c.IsRemoved() {
			s.state.RemoveCreature(c)
		}
	}
}
