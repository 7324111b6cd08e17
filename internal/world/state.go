package world

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/greyfall/server/internal/sched"
)

// ReturnValue 一步被拒絕的原因。這是預期中的結果，不是 Go error。
type ReturnValue uint8

const (
	RetNoError ReturnValue = iota
	RetNotPossible
	RetTileBlocked
	RetCreatureBlocking
)

var returnValueNames = [...]string{
	"no error", "not possible", "tile blocked", "creature blocking",
}

func (r ReturnValue) String() string {
	if int(r) < len(returnValueNames) {
		return returnValueNames[r]
	}
	return "unknown"
}

// Effect 給觀戰者看的視覺效果。
type Effect uint8

const (
	EffectNone Effect = iota
	EffectPoff // 召喚獸散場的煙霧
	EffectBlood
)

// Tunables 遊戲迴圈的策略參數，開機時從設定檔灌入。
type Tunables struct {
	HostileWindowMs     int64
	DrunkStepChance     int
	SummonDespawnRadius int32
	SummonDespawnFloors int8
	PathRecomputeMs     int64
	MaxPathSearchDist   int32
	SpeedCurveA         float64
	SpeedCurveB         float64
	SpeedCurveC         float64
}

// HookRunner 腳本事件的出口。實作在 scripting 套件，錯誤不外漏。
type HookRunner interface {
	RunThink(c *Creature, interval int64)
	RunDeath(c *Creature, corpse bool, lastHit, mostDamage *Creature, lastHitUnjustified, mostDamageUnjustified bool)
	RunKill(killer, target *Creature, lastHit bool) bool
	RunAttack(attacker, target *Creature)
	RunCombatCondition(source, target *Creature, t ConditionType) bool
}

type noopHooks struct{}

func (noopHooks) RunThink(*Creature, int64)                                   {}
func (noopHooks) RunDeath(*Creature, bool, *Creature, *Creature, bool, bool)  {}
func (noopHooks) RunKill(*Creature, *Creature, bool) bool                     { return false }
func (noopHooks) RunAttack(*Creature, *Creature)                              {}
func (noopHooks) RunCombatCondition(*Creature, *Creature, ConditionType) bool { return true }

// State 世界容器。Accessed only from the game loop goroutine — no locks needed.
type State struct {
	creatures map[uint32]*Creature
	list      []*Creature // 穩定走訪順序（插入序）
	occupants map[tileKey]uint32

	gameMap  *GameMap
	aoi      *AOIGrid
	sched    *sched.Scheduler
	hooks    HookRunner
	parties  *PartyManager
	tunables Tunables

	rng *rand.Rand
	log *zap.Logger
}

func NewState(gameMap *GameMap, tunables Tunables, hooks HookRunner, log *zap.Logger) *State {
	if hooks == nil {
		hooks = noopHooks{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &State{
		creatures: make(map[uint32]*Creature),
		occupants: make(map[tileKey]uint32),
		gameMap:   gameMap,
		aoi:       NewAOIGrid(),
		sched:     sched.NewScheduler(),
		hooks:     hooks,
		parties:   NewPartyManager(),
		tunables:  tunables,
		rng:       rand.New(rand.NewSource(1)),
		log:       log,
	}
}

func (s *State) Map() *GameMap           { return s.gameMap }
func (s *State) Sched() *sched.Scheduler { return s.sched }
func (s *State) Hooks() HookRunner       { return s.hooks }
func (s *State) Parties() *PartyManager  { return s.parties }
func (s *State) Tunables() Tunables      { return s.tunables }
func (s *State) Logger() *zap.Logger     { return s.log }

// Now 虛擬時間（毫秒），由 Tick 推進。
func (s *State) Now() int64 { return s.sched.Now() }

// Tick 推進虛擬時間並執行到期任務。由遊戲迴圈每 tick 呼叫一次。
func (s *State) Tick(deltaMs int64) {
	s.sched.Advance(s.Now() + deltaMs)
}

// SeedRand 測試用：讓隨機序列可重現。
func (s *State) SeedRand(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

func (s *State) RandIntn(n int) int { return s.rng.Intn(n) }

// RandRange [min, max] 均勻取值。min > max 時回傳 min。
func (s *State) RandRange(min, max int32) int32 {
	if min >= max {
		return min
	}
	return min + s.rng.Int31n(max-min+1)
}

// ==================== 生物註冊 ====================

func (s *State) GetCreatureByID(id uint32) *Creature {
	if id == 0 {
		return nil
	}
	return s.creatures[id]
}

// Creatures 插入序快照。走訪期間增刪生物不影響呼叫端。
func (s *State) Creatures() []*Creature {
	out := make([]*Creature, len(s.list))
	copy(out, s.list)
	return out
}

// AddCreature 放生物進世界並通知周圍。落點被佔用時往外找最近空格。
func (s *State) AddCreature(c *Creature, pos Position) bool {
	if c.world != nil {
		return false
	}
	spawn, ok := s.findSpawnPosition(c, pos)
	if !ok {
		s.log.Warn("no free spawn position",
			zap.String("name", c.Name), zap.Int32("x", pos.X), zap.Int32("y", pos.Y))
		return false
	}
	c.world = s
	c.Pos = spawn
	s.creatures[c.ID] = c
	s.list = append(s.list, c)
	s.occupants[tileKey{spawn.X, spawn.Y, spawn.Z}] = c.ID
	s.aoi.Add(c.ID, spawn)

	for _, sp := range s.SpectatorsAt(spawn) {
		sp.OnCreatureAppear(c)
	}
	return true
}

func (s *State) findSpawnPosition(c *Creature, pos Position) (Position, bool) {
	if s.CanWalkTo(c, pos) {
		return pos, true
	}
	for radius := int32(1); radius <= 3; radius++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				cand := Position{X: pos.X + dx, Y: pos.Y + dy, Z: pos.Z}
				if s.CanWalkTo(c, cand) {
					return cand, true
				}
			}
		}
	}
	return Position{}, false
}

// AddSummon 召喚：放進世界並建立主從。
func (s *State) AddSummon(master, summon *Creature, pos Position) bool {
	if !s.AddCreature(summon, pos) {
		return false
	}
	master.AddSummon(summon)
	return true
}

// RemoveCreature 把生物拿出世界：通知觀戰者、散掉召喚獸、解除主從、
// 清 condition 與佇列。等冪。
func (s *State) RemoveCreature(c *Creature) {
	if c.Removed || c.world == nil {
		return
	}
	c.Removed = true
	c.StopEventWalk()

	// 先通知：觀戰者要趁生物還查得到位置時修快取、清目標
	for _, sp := range s.SpectatorsAt(c.Pos) {
		sp.OnRemoveCreature(c)
	}

	for len(c.Summons) > 0 {
		s.RemoveCreature(c.Summons[0])
	}
	if c.Master != nil {
		c.Master.RemoveSummon(c)
	}
	c.removeAllConditions()
	c.AttackedCreature = nil
	c.FollowCreature = nil
	s.parties.RemoveMember(c)

	key := tileKey{c.Pos.X, c.Pos.Y, c.Pos.Z}
	if s.occupants[key] == c.ID {
		delete(s.occupants, key)
	}
	s.aoi.Remove(c.ID, c.Pos)
	delete(s.creatures, c.ID)
	for i, cur := range s.list {
		if cur == c {
			s.list = append(s.list[:i], s.list[i+1:]...)
			break
		}
	}
	s.log.Debug("creature removed", zap.Uint32("id", c.ID), zap.String("name", c.Name))
}

// ==================== 移動 ====================

// CanWalkTo 尋路語義的可走性：tile 存在、不阻擋、沒被別的生物佔住。
// 傷害場不算阻擋（會痛但能走）。
func (s *State) CanWalkTo(c *Creature, pos Position) bool {
	if !s.gameMap.IsWalkable(pos) {
		return false
	}
	if id, ok := s.occupants[tileKey{pos.X, pos.Y, pos.Z}]; ok && id != c.ID {
		return false
	}
	return true
}

// MoveCreature 朝 dir 踏一步。拒絕時回傳原因，世界不變。
func (s *State) MoveCreature(c *Creature, dir Direction) ReturnValue {
	if dir >= DirectionNone || c.Removed {
		return RetNotPossible
	}
	newPos := c.Pos.Step(dir)
	t := s.gameMap.GetTile(newPos)
	if t == nil || t.BlockSolid {
		return RetTileBlocked
	}
	if id, ok := s.occupants[tileKey{newPos.X, newPos.Y, newPos.Z}]; ok && id != c.ID {
		return RetCreatureBlocking
	}
	c.Dir = dir
	s.relocate(c, newPos, false)
	return RetNoError
}

// Teleport 瞬移，不檢查路徑但檢查落點。
func (s *State) Teleport(c *Creature, pos Position) ReturnValue {
	if c.Removed {
		return RetNotPossible
	}
	if !s.CanWalkTo(c, pos) {
		return RetTileBlocked
	}
	s.relocate(c, pos, true)
	return RetNoError
}

func (s *State) relocate(c *Creature, newPos Position, teleport bool) {
	oldPos := c.Pos

	oldKey := tileKey{oldPos.X, oldPos.Y, oldPos.Z}
	if s.occupants[oldKey] == c.ID {
		delete(s.occupants, oldKey)
	}
	s.occupants[tileKey{newPos.X, newPos.Y, newPos.Z}] = c.ID
	s.aoi.Move(c.ID, oldPos, newPos)
	c.Pos = newPos

	// 舊位置與新位置的觀戰者都要知道（去重，含生物自己）
	seen := make(map[uint32]struct{})
	for _, pos := range []Position{oldPos, newPos} {
		for _, sp := range s.SpectatorsAt(pos) {
			if _, dup := seen[sp.ID]; dup {
				continue
			}
			seen[sp.ID] = struct{}{}
			sp.OnCreatureMove(c, newPos, oldPos, teleport)
		}
	}
}

// SpectatorsAt 看得到 pos 的生物。
func (s *State) SpectatorsAt(pos Position) []*Creature {
	ids := s.aoi.GetNearby(pos)
	out := make([]*Creature, 0, len(ids))
	for _, id := range ids {
		c := s.creatures[id]
		if c != nil && CanSeePosition(c.Pos, pos) {
			out = append(out, c)
		}
	}
	return out
}

// SetTile 改地形並讓周圍生物修走格快取。
func (s *State) SetTile(pos Position, t *Tile) {
	s.gameMap.SetTile(pos, t)
	for _, sp := range s.SpectatorsAt(pos) {
		sp.UpdateTileCache(pos)
	}
}

// ==================== 每 tick 回呼 ====================

func (s *State) checkCreatureWalk(c *Creature) {
	if !c.Removed && c.Health > 0 {
		c.OnWalk()
	}
}

func (s *State) checkCreatureAttack(c *Creature) {
	if !c.Removed && c.Health > 0 {
		c.OnAttacking(0)
	}
}

// ExecuteDeath 排程死亡的落地點：血量確實歸零才結算，且只結算一次。
func (s *State) ExecuteDeath(c *Creature) {
	if c.Removed || c.Dead || c.Health > 0 {
		return
	}
	s.log.Info("creature died",
		zap.Uint32("id", c.ID), zap.String("name", c.Name),
		zap.Int32("x", c.Pos.X), zap.Int32("y", c.Pos.Y))
	c.OnDeath()
}

// ChangeSpeed 速度增減的唯一入口：順手排上或撤掉步行事件。
func (s *State) ChangeSpeed(c *Creature, delta int32) {
	c.VarSpeed += delta
	if c.Speed() > 0 {
		if len(c.walkDirs) > 0 {
			c.AddEventWalk(false)
		}
	} else {
		c.StopEventWalk()
	}
}

// Say 生物喊話，送到看得到的控制端。
func (s *State) Say(c *Creature, text string) {
	msg := fmt.Sprintf("%s: %s", c.Name, text)
	for _, sp := range s.SpectatorsAt(c.Pos) {
		if sp.Controller != nil {
			sp.Controller.OnMessage(msg)
		}
	}
}

// AddEffect 視覺效果廣播（目前只記 log，控制端協定不在此層）。
func (s *State) AddEffect(pos Position, effect Effect) {
	s.log.Debug("effect", zap.Uint8("effect", uint8(effect)),
		zap.Int32("x", pos.X), zap.Int32("y", pos.Y))
}

// DropCorpseAt 屍體落地，owners 為保留拾取權的殺手。物品層不在此
// 核心，保留掛點。
func (s *State) DropCorpseAt(pos Position, owners []uint32) {
	s.log.Debug("corpse dropped", zap.Int32("x", pos.X), zap.Int32("y", pos.Y),
		zap.Uint32s("owners", owners))
}

func expGainMessage(exp uint64) string {
	return fmt.Sprintf("You gained %d experience points.", exp)
}
