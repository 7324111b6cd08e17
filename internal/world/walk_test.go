package world

import "testing"

func TestStepDurationMatchesSpeedCurve(t *testing.T) {
	s := newTestState()
	c := spawn(t, s, "walker", 30, 30)

	// 速度 110、地面 150：曲線換算後正好 1100ms
	if got := c.StepDuration(); got != 1100 {
		t.Fatalf("StepDuration = %d, want 1100", got)
	}

	c.BaseSpeed = 220
	fast := c.StepDuration()
	if fast >= 1100 {
		t.Fatalf("StepDuration at speed 220 = %d, want < 1100", fast)
	}
	if fast%50 != 0 {
		t.Fatalf("StepDuration = %d, want multiple of 50ms", fast)
	}
}

func TestMonsterStutterDoublesStepNearTarget(t *testing.T) {
	s := newTestState()
	m := spawnMonster(t, s, "rat", 30, 30)
	victim := spawn(t, s, "victim", 31, 30)

	if !m.SetAttackedCreature(victim) {
		t.Fatal("SetAttackedCreature failed")
	}
	m.OnThink(100)
	if got := m.StepDuration(); got != 2200 {
		t.Fatalf("StepDuration in melee = %d, want 2200 (doubled)", got)
	}

	// 逃跑中的怪物不抖步
	m.FleeHealth = 50
	m.Health = 40
	if got := m.StepDuration(); got != 1100 {
		t.Fatalf("StepDuration while fleeing = %d, want 1100", got)
	}
}

func TestWalkDelayUsesStepCost(t *testing.T) {
	s := newTestState()
	c := spawn(t, s, "walker", 30, 30)
	s.Tick(1000)

	if ret := s.MoveCreature(c, NorthEast); ret != RetNoError {
		t.Fatalf("diagonal move failed: %v", ret)
	}
	// 斜向步成本 3 倍
	if got := c.GetWalkDelay(); got != 3300 {
		t.Fatalf("GetWalkDelay after diagonal = %d, want 3300", got)
	}

	s.Tick(3300)
	if ret := s.MoveCreature(c, East); ret != RetNoError {
		t.Fatalf("cardinal move failed: %v", ret)
	}
	if got := c.GetWalkDelay(); got != 1100 {
		t.Fatalf("GetWalkDelay after cardinal = %d, want 1100", got)
	}
}

func TestWalkPumpConsumesQueue(t *testing.T) {
	s := newTestState()
	c := spawn(t, s, "walker", 30, 30)

	if !c.StartAutoWalk([]Direction{East, East, East}) {
		t.Fatal("StartAutoWalk failed")
	}
	for i := int32(1); i <= 3; i++ {
		s.Tick(1100)
		if c.Pos.X != 30+i {
			t.Fatalf("after step %d: X = %d, want %d", i, c.Pos.X, 30+i)
		}
	}
	if c.HasWalkQueued() {
		t.Fatal("queue not drained")
	}

	// 佇列清空後的下一次事件收尾，不再重排
	s.Tick(1100)
	if s.Sched().PendingCount() != 0 {
		t.Fatalf("pending tasks = %d after walk finished, want 0", s.Sched().PendingCount())
	}
}

func TestFirstStepIsImmediate(t *testing.T) {
	s := newTestState()
	s.Tick(1000)
	c := spawn(t, s, "walker", 30, 30)

	if !c.StartAutoWalk([]Direction{East}) {
		t.Fatal("StartAutoWalk failed")
	}
	// 單步路徑不等整個步長，當下就踏出
	if c.Pos.X != 31 {
		t.Fatalf("X = %d right after StartAutoWalk, want 31", c.Pos.X)
	}
}

func TestCancelNextWalkFlushesAfterCurrentStep(t *testing.T) {
	s := newTestState()
	c := spawn(t, s, "walker", 30, 30)
	fc := &fakeController{}
	c.Controller = fc

	c.StartAutoWalk([]Direction{East, East, East})
	c.CancelNextWalk()

	s.Tick(1100)
	// 取消是協作式的：當下這一步照走，之後清空
	if c.Pos.X != 31 {
		t.Fatalf("X = %d, want 31 (one step before cancel applies)", c.Pos.X)
	}
	if c.HasWalkQueued() {
		t.Fatal("queue should be flushed")
	}
	if fc.walkCanceled != 1 {
		t.Fatalf("walkCanceled = %d, want 1", fc.walkCanceled)
	}

	s.Tick(5000)
	if c.Pos.X != 31 {
		t.Fatalf("X = %d after cancel, want 31", c.Pos.X)
	}
}

func TestRejectedStepNotifiesAndForcesRepath(t *testing.T) {
	s := newTestState()
	s.SetTile(Position{X: 31, Y: 30, Z: 7}, wallTile())
	c := spawn(t, s, "walker", 30, 30)
	fc := &fakeController{}
	c.Controller = fc

	c.StartAutoWalk([]Direction{East})
	if len(fc.rejections) != 1 || fc.rejections[0] != RetTileBlocked {
		t.Fatalf("rejections = %v, want [tile blocked]", fc.rejections)
	}
	if fc.walkCanceled != 1 {
		t.Fatalf("walkCanceled = %d, want 1", fc.walkCanceled)
	}
	if !c.forceUpdateFollowPath {
		t.Fatal("rejected step must force a path recompute")
	}
	if c.Pos.X != 30 {
		t.Fatalf("X = %d, want 30 (world unchanged)", c.Pos.X)
	}
}

func TestMoveCreatureReturnValues(t *testing.T) {
	s := newTestState()
	s.SetTile(Position{X: 29, Y: 30, Z: 7}, wallTile())
	c := spawn(t, s, "walker", 30, 30)
	spawn(t, s, "blocker", 31, 30)

	if ret := s.MoveCreature(c, West); ret != RetTileBlocked {
		t.Fatalf("into wall = %v, want tile blocked", ret)
	}
	if ret := s.MoveCreature(c, East); ret != RetCreatureBlocking {
		t.Fatalf("into creature = %v, want creature blocking", ret)
	}
	if ret := s.MoveCreature(c, DirectionNone); ret != RetNotPossible {
		t.Fatalf("no direction = %v, want not possible", ret)
	}
}

func TestMovementBlockedCancelsAutoWalk(t *testing.T) {
	s := newTestState()
	c := spawn(t, s, "walker", 30, 30)
	fc := &fakeController{}
	c.Controller = fc
	c.MovementBlocked = true

	if c.StartAutoWalk([]Direction{East}) {
		t.Fatal("StartAutoWalk should fail while movement blocked")
	}
	if fc.walkCanceled != 1 {
		t.Fatalf("walkCanceled = %d, want 1", fc.walkCanceled)
	}
	if s.Sched().PendingCount() != 0 {
		t.Fatal("no walk event should be scheduled")
	}
}

func TestZeroSpeedNeverSchedulesWalk(t *testing.T) {
	s := newTestState()
	c := spawn(t, s, "walker", 30, 30)

	c.AddCondition(speedCondition(-200, -1), false)
	if c.Speed() > 0 {
		t.Fatalf("Speed = %d, want <= 0", c.Speed())
	}

	c.StartAutoWalk([]Direction{East, East})
	if s.Sched().PendingCount() != 0 {
		t.Fatal("paralyzed creature scheduled a walk event")
	}
	s.Tick(10000)
	if c.Pos.X != 30 {
		t.Fatalf("X = %d, want 30 (no movement at zero speed)", c.Pos.X)
	}
}

func TestDrunkStepsAreRandomized(t *testing.T) {
	s := newTestState()
	c := spawn(t, s, "drunkard", 30, 30)
	fc := &fakeController{}
	c.Controller = fc

	c.AddCondition(&ConditionDrunkEffect{
		BaseCondition: BaseCondition{CondType: ConditionDrunk, TicksVal: -1},
		Drunkenness:   3,
	}, false)

	hiccups := 0
	for i := 0; i < 400; i++ {
		c.applyDrunkStep(North)
	}
	for _, msg := range fc.messages {
		if msg == "drunkard: Hicks!" {
			hiccups++
		}
	}
	// 機率 25%，400 次約 100 次；種子固定，給寬鬆帶
	if hiccups < 60 || hiccups > 140 {
		t.Fatalf("hiccups = %d of 400, want roughly 100", hiccups)
	}
}

func TestSoberStepsAreNeverRandomized(t *testing.T) {
	s := newTestState()
	c := spawn(t, s, "walker", 30, 30)

	for i := 0; i < 100; i++ {
		if dir := c.applyDrunkStep(East); dir != East {
			t.Fatal("sober step was randomized")
		}
	}
}
