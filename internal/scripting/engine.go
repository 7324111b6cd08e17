package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/greyfall/server/internal/world"
)

// Engine wraps a single gopher-lua VM running creature-event hooks.
// Single-goroutine access only (game loop).
type Engine struct {
	vm     *lua.LState
	log    *zap.Logger
	events map[string]*RegisteredEvent
}

// RegisteredEvent 已註冊的事件：全域 Lua 函式名加上事件種類位元。
type RegisteredEvent struct {
	Name string
	Bit  world.CreatureEventBit
}

// NewEngine creates a Lua engine and loads all hook scripts from the
// given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log, events: make(map[string]*RegisteredEvent)}

	if err := e.loadDir(filepath.Join(scriptsDir, "hooks")); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load hook scripts: %w", err)
	}
	return e, nil
}

func (e *Engine) Close() { e.vm.Close() }

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// RegisterEvent 把一個全域 Lua 函式登記成指定種類的事件。
// 函式不存在時回傳錯誤，開機期就擋掉打錯字的掛載。
func (e *Engine) RegisterEvent(name string, bit world.CreatureEventBit) error {
	if e.vm.GetGlobal(name) == lua.LNil {
		return fmt.Errorf("lua function %s not found", name)
	}
	e.events[name] = &RegisteredEvent{Name: name, Bit: bit}
	return nil
}

// Event 查已註冊事件，掛到生物身上時用。
func (e *Engine) Event(name string) *RegisteredEvent {
	return e.events[name]
}

// Attach 把已註冊事件掛上生物。
func (e *Engine) Attach(c *world.Creature, name string) error {
	ev := e.events[name]
	if ev == nil {
		return fmt.Errorf("creature event %s not registered", name)
	}
	c.RegisterCreatureEvent(ev.Name, ev.Bit)
	return nil
}

// creatureTable 生物的唯讀快照表。
func (e *Engine) creatureTable(c *world.Creature) lua.LValue {
	if c == nil {
		return lua.LNil
	}
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(c.ID))
	t.RawSetString("name", lua.LString(c.Name))
	t.RawSetString("health", lua.LNumber(c.Health))
	t.RawSetString("max_health", lua.LNumber(c.MaxHealth))
	t.RawSetString("x", lua.LNumber(c.Pos.X))
	t.RawSetString("y", lua.LNumber(c.Pos.Y))
	t.RawSetString("z", lua.LNumber(c.Pos.Z))
	t.RawSetString("monster", lua.LBool(c.IsMonster))
	return t
}

// call 帶保護呼叫已註冊函式，錯誤記 log 不往外丟。
func (e *Engine) call(name string, nret int, args ...lua.LValue) (lua.LValue, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("fn", name))
		return lua.LNil, false
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    nret,
		Protect: true,
	}, args...); err != nil {
		e.log.Error("lua hook failed", zap.String("fn", name), zap.Error(err))
		return lua.LNil, false
	}
	if nret == 0 {
		return lua.LNil, true
	}
	ret := e.vm.Get(-1)
	e.vm.Pop(1)
	return ret, true
}

// forEachEvent 生物掛的事件裡挑出指定種類的逐一執行。
func (e *Engine) forEachEvent(c *world.Creature, bit world.CreatureEventBit, run func(name string)) {
	for _, name := range c.EventNames() {
		ev := e.events[name]
		if ev != nil && ev.Bit == bit {
			run(name)
		}
	}
}

// ==================== world.HookRunner ====================

func (e *Engine) RunThink(c *world.Creature, interval int64) {
	e.forEachEvent(c, world.EventThink, func(name string) {
		e.call(name, 0, e.creatureTable(c), lua.LNumber(interval))
	})
}

func (e *Engine) RunDeath(c *world.Creature, corpse bool, lastHit, mostDamage *world.Creature, lastHitUnjustified, mostDamageUnjustified bool) {
	e.forEachEvent(c, world.EventDeath, func(name string) {
		e.call(name, 0,
			e.creatureTable(c), lua.LBool(corpse),
			e.creatureTable(lastHit), e.creatureTable(mostDamage),
			lua.LBool(lastHitUnjustified), lua.LBool(mostDamageUnjustified))
	})
}

// RunKill 回傳這一擊是否不義。多個 kill 事件只要有一個說不義就算。
func (e *Engine) RunKill(killer, target *world.Creature, lastHit bool) bool {
	unjustified := false
	e.forEachEvent(killer, world.EventKill, func(name string) {
		ret, ok := e.call(name, 1,
			e.creatureTable(killer), e.creatureTable(target), lua.LBool(lastHit))
		if ok && lua.LVAsBool(ret) {
			unjustified = true
		}
	})
	return unjustified
}

func (e *Engine) RunAttack(attacker, target *world.Creature) {
	e.forEachEvent(attacker, world.EventAttack, func(name string) {
		e.call(name, 0, e.creatureTable(attacker), e.creatureTable(target))
	})
}

// RunCombatCondition 回傳是否放行附著。腳本炸掉時放行（與戰鬥公式
// 失敗時的保守預設一致：寧可多中一層狀態，不讓戰鬥卡死）。
func (e *Engine) RunCombatCondition(source, target *world.Creature, t world.ConditionType) bool {
	allow := true
	e.forEachEvent(target, world.EventCombatCondition, func(name string) {
		ret, ok := e.call(name, 1,
			e.creatureTable(source), e.creatureTable(target), lua.LNumber(t))
		if ok && !lua.LVAsBool(ret) {
			allow = false
		}
	})
	return allow
}
