package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/greyfall/server/internal/world"
)

const hookScript = `
think_calls = 0
function on_test_think(creature, interval)
    think_calls = think_calls + 1
    last_name = creature.name
    last_interval = interval
end

function on_test_kill(killer, target, last_hit)
    return not target.monster
end

function on_block_poison(source, target, cond_type)
    return false
end

function on_broken_hook(creature, interval)
    error("boom")
end
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	hooks := filepath.Join(dir, "hooks")
	if err := os.Mkdir(hooks, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(hooks, "test.lua"), []byte(hookScript), 0o644); err != nil {
		t.Fatal(err)
	}
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestNewEngineMissingHookDir(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("missing hooks dir should not fail: %v", err)
	}
	e.Close()
}

func TestRegisterEventValidatesGlobal(t *testing.T) {
	e := newTestEngine(t)

	if err := e.RegisterEvent("on_test_think", world.EventThink); err != nil {
		t.Fatal(err)
	}
	if e.Event("on_test_think") == nil {
		t.Fatal("registered event not found")
	}
	if err := e.RegisterEvent("on_typo", world.EventThink); err == nil {
		t.Fatal("want error for unknown lua function")
	}
}

func TestRunThinkPassesCreatureSnapshot(t *testing.T) {
	e := newTestEngine(t)
	if err := e.RegisterEvent("on_test_think", world.EventThink); err != nil {
		t.Fatal(err)
	}

	c := world.NewCreature("Cave Rat")
	c.Health = 10
	c.MaxHealth = 25
	if err := e.Attach(c, "on_test_think"); err != nil {
		t.Fatal(err)
	}
	if !c.HasEvent(world.EventThink) {
		t.Fatal("attach did not set the event bit")
	}

	e.RunThink(c, 150)
	e.RunThink(c, 150)

	if got := e.vm.GetGlobal("think_calls").String(); got != "2" {
		t.Fatalf("think_calls = %s, want 2", got)
	}
	if got := e.vm.GetGlobal("last_name").String(); got != "Cave Rat" {
		t.Fatalf("last_name = %s", got)
	}
	if got := e.vm.GetGlobal("last_interval").String(); got != "150" {
		t.Fatalf("last_interval = %s", got)
	}
}

func TestAttachUnregisteredEventFails(t *testing.T) {
	e := newTestEngine(t)
	c := world.NewCreature("rat")
	if err := e.Attach(c, "on_test_think"); err == nil {
		t.Fatal("attach before registration should fail")
	}
}

func TestRunKillReturnsUnjustified(t *testing.T) {
	e := newTestEngine(t)
	if err := e.RegisterEvent("on_test_kill", world.EventKill); err != nil {
		t.Fatal(err)
	}

	killer := world.NewCreature("killer")
	if err := e.Attach(killer, "on_test_kill"); err != nil {
		t.Fatal(err)
	}

	monster := world.NewCreature("boar")
	monster.IsMonster = true
	if e.RunKill(killer, monster, true) {
		t.Fatal("killing a monster flagged unjustified")
	}

	person := world.NewCreature("villager")
	if !e.RunKill(killer, person, true) {
		t.Fatal("killing a non-monster should be unjustified")
	}
}

func TestRunCombatConditionCanDeny(t *testing.T) {
	e := newTestEngine(t)
	if err := e.RegisterEvent("on_block_poison", world.EventCombatCondition); err != nil {
		t.Fatal(err)
	}

	target := world.NewCreature("target")
	if err := e.Attach(target, "on_block_poison"); err != nil {
		t.Fatal(err)
	}
	if e.RunCombatCondition(nil, target, world.ConditionPoison) {
		t.Fatal("hook returning false should deny the condition")
	}

	// 沒掛 hook 的生物一律放行
	plain := world.NewCreature("plain")
	if !e.RunCombatCondition(nil, plain, world.ConditionPoison) {
		t.Fatal("creature without hooks should allow")
	}
}

func TestBrokenHookIsIsolated(t *testing.T) {
	e := newTestEngine(t)
	if err := e.RegisterEvent("on_broken_hook", world.EventThink); err != nil {
		t.Fatal(err)
	}
	c := world.NewCreature("rat")
	if err := e.Attach(c, "on_broken_hook"); err != nil {
		t.Fatal(err)
	}

	// error() 在保護模式裡吃掉，不往外 panic
	e.RunThink(c, 100)
}

func TestEventBitFromKind(t *testing.T) {
	cases := map[string]world.CreatureEventBit{
		"think":            world.EventThink,
		"death":            world.EventDeath,
		"kill":             world.EventKill,
		"attack":           world.EventAttack,
		"combat_condition": world.EventCombatCondition,
	}
	for kind, want := range cases {
		got, ok := EventBitFromKind(kind)
		if !ok || got != want {
			t.Fatalf("EventBitFromKind(%q) = %v, %v", kind, got, ok)
		}
	}
	if _, ok := EventBitFromKind("dance"); ok {
		t.Fatal("unknown kind accepted")
	}
}
