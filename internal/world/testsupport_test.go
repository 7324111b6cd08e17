package world

import "testing"

// testTunables 測試用參數：窗口縮小到 1 秒方便驗證時間語義。
func testTunables() Tunables {
	return Tunables{
		HostileWindowMs:     1000,
		DrunkStepChance:     25,
		SummonDespawnRadius: 30,
		SummonDespawnFloors: 2,
		PathRecomputeMs:     2000,
		MaxPathSearchDist:   12,
		SpeedCurveA:         857.36,
		SpeedCurveB:         261.29,
		SpeedCurveC:         -4795.01,
	}
}

// newTestState 0..59 × 0..59、z=7 的開闊地。
func newTestState() *State {
	return newTestStateWithHooks(nil)
}

func newTestStateWithHooks(hooks HookRunner) *State {
	m := NewGameMap()
	for y := int32(0); y < 60; y++ {
		for x := int32(0); x < 60; x++ {
			m.SetTile(Position{X: x, Y: y, Z: 7}, &Tile{})
		}
	}
	s := NewState(m, testTunables(), hooks, nil)
	s.SeedRand(42)
	return s
}

func spawn(t *testing.T, s *State, name string, x, y int32) *Creature {
	t.Helper()
	c := NewCreature(name)
	c.MaxHealth = 100
	c.Health = 100
	c.BaseSpeed = 110
	c.Experience = 100
	if !s.AddCreature(c, Position{X: x, Y: y, Z: 7}) {
		t.Fatalf("failed to add %s at %d,%d", name, x, y)
	}
	return c
}

func spawnMonster(t *testing.T, s *State, name string, x, y int32) *Creature {
	t.Helper()
	c := NewCreature(name)
	c.IsMonster = true
	c.MaxHealth = 100
	c.Health = 100
	c.BaseSpeed = 110
	c.Experience = 100
	c.SetUseCache(true)
	if !s.AddCreature(c, Position{X: x, Y: y, Z: 7}) {
		t.Fatalf("failed to add %s at %d,%d", name, x, y)
	}
	return c
}

func wallTile() *Tile {
	return &Tile{BlockSolid: true, BlockPath: true, BlockProjectile: true}
}

// fakeController 記錄控制端收到的通知。
type fakeController struct {
	walkCanceled int
	rejections   []ReturnValue
	messages     []string
}

func (f *fakeController) OnWalkCanceled()              { f.walkCanceled++ }
func (f *fakeController) OnMoveRejected(r ReturnValue) { f.rejections = append(f.rejections, r) }
func (f *fakeController) OnMessage(text string)        { f.messages = append(f.messages, text) }

// fakeHooks 記錄腳本事件呼叫。
type fakeHooks struct {
	thinks    int
	deaths    []bool // corpse flag per call
	kills     []bool // lastHit flag per call
	killRet   bool
	attacks   int
	condAllow bool
	condCalls int
}

func newFakeHooks() *fakeHooks { return &fakeHooks{condAllow: true} }

func (f *fakeHooks) RunThink(*Creature, int64) { f.thinks++ }
func (f *fakeHooks) RunDeath(_ *Creature, corpse bool, _, _ *Creature, _, _ bool) {
	f.deaths = append(f.deaths, corpse)
}
func (f *fakeHooks) RunKill(_, _ *Creature, lastHit bool) bool {
	f.kills = append(f.kills, lastHit)
	return f.killRet
}
func (f *fakeHooks) RunAttack(*Creature, *Creature) { f.attacks++ }
func (f *fakeHooks) RunCombatCondition(_, _ *Creature, _ ConditionType) bool {
	f.condCalls++
	return f.condAllow
}
