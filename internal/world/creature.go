package world

import (
	"sync/atomic"

	"github.com/greyfall/server/internal/sched"
)

// NextCreatureID 產生器（atomic 只為了讓載入工具併行產生 ID，遊戲迴圈本身單執行緒）。
var creatureIDCounter uint32 = 0x10000000

func NextCreatureID() uint32 {
	return atomic.AddUint32(&creatureIDCounter, 1)
}

// Controller 掛在受控生物上的通知介面（玩家端）。
// 非受控生物（怪物、召喚獸）此欄位為 nil。
type Controller interface {
	// OnWalkCanceled 伺服器端取消了客戶端預期中的步行。
	OnWalkCanceled()
	// OnMoveRejected 一步被世界拒絕。
	OnMoveRejected(reason ReturnValue)
	// OnMessage 系統訊息（經驗、狀態文字）。
	OnMessage(text string)
}

// CreatureEventBit 腳本事件註冊位元。
type CreatureEventBit uint32

const (
	EventThink CreatureEventBit = 1 << iota
	EventDeath
	EventKill
	EventAttack
	EventCombatCondition
)

// Creature 世界中一個可行動實體。所有欄位只在遊戲迴圈 goroutine 讀寫。
type Creature struct {
	ID   uint32
	Name string
	Pos  Position
	Dir  Direction

	Health    int32
	MaxHealth int32

	BaseSpeed int32
	VarSpeed  int32 // haste/paralyze 增減量，由 ConditionSpeed 維護

	// 模板屬性，spawn 時自模板攤平複製
	IsMonster      bool
	LootDrop       bool
	FleeHealth     int32
	TargetDistance int32
	Experience     uint64
	Defense        int32
	Armor          int32

	TotalExperience uint64 // 生涯累積經驗（masterless 生物入帳處）

	DamageImmunities      uint32
	ConditionImmunities   ConditionType
	ConditionSuppressions ConditionType

	SeeInvisible bool

	Master  *Creature
	Summons []*Creature

	Controller Controller

	// DoAttack 出手委派：戰鬥公式由掛載方（腳本 AI、玩家端）提供。
	DoAttack func(target *Creature, interval int64)

	Dead            bool
	Removed         bool
	MovementBlocked bool // 控制端被禁止移動（暈眩等），StartAutoWalk 直接取消

	targetNearby bool // 怪物纏鬥中：目標貼近時步速減半（抖步）

	// ==================== 戰鬥歸屬 ====================
	damageMap         map[uint32]countBlock
	lastHitCreatureID uint32
	blockCount        int32
	blockTicks        int64

	AttackedCreature *Creature
	FollowCreature   *Creature

	// ==================== 狀態 ====================
	conditions []Condition

	// ==================== 行走 ====================
	walkDirs         []Direction // front = 下一步
	eventWalk        sched.Handle
	cancelNextWalk   bool
	lastStep         int64 // 上一步完成的虛擬時間
	lastStepCost     int32 // 1 直向 / 2 換樓層 / 3 斜向
	extraMeleeAttack bool

	hasFollowPath         bool
	forceUpdateFollowPath bool
	isUpdatingPath        bool
	walkUpdateTicks       int64

	// ==================== 地圖快取 ====================
	useCache    bool
	cacheLoaded bool
	cachePos    Position
	walkCache   [mapWalkHeight][mapWalkWidth]bool

	scriptEvents CreatureEventBit
	eventNames   []string

	world *State
}

// NewCreature 建出未放入世界的生物；AddCreature 負責註冊。
func NewCreature(name string) *Creature {
	return &Creature{
		ID:           NextCreatureID(),
		Name:         name,
		Dir:          South,
		damageMap:    make(map[uint32]countBlock),
		lastStepCost: 1,
	}
}

func (c *Creature) World() *State { return c.world }

// Speed 目前速度。可為負（麻痺超過基礎速度時完全停走）。
func (c *Creature) Speed() int32 { return c.BaseSpeed + c.VarSpeed }

func (c *Creature) IsDead() bool    { return c.Dead }
func (c *Creature) IsRemoved() bool { return c.Removed }

// SetUseCache 啟用本地行走快取（怪物用）。實際載入延遲到第一次 onThink。
func (c *Creature) SetUseCache(on bool) { c.useCache = on }

// IsImmune 是否對該 condition 類型免疫。
func (c *Creature) IsImmune(t ConditionType) bool {
	return c.ConditionImmunities&t != 0
}

// IsSuppressed 是否抑制該類型（存在但不生效）。
func (c *Creature) IsSuppressed(t ConditionType) bool {
	return c.ConditionSuppressions&t != 0
}

// ==================== 主從關係 ====================

// SetMaster 只改自己這端；呼叫者負責對稱更新（AddSummon/RemoveSummon）。
func (c *Creature) SetMaster(m *Creature) { c.Master = m }

func (c *Creature) AddSummon(s *Creature) {
	s.Master = c
	c.Summons = append(c.Summons, s)
}

func (c *Creature) RemoveSummon(s *Creature) {
	for i, cur := range c.Summons {
		if cur == s {
			c.Summons = append(c.Summons[:i], c.Summons[i+1:]...)
			s.Master = nil
			return
		}
	}
}

// IsSummon 有主人即視為召喚物。
func (c *Creature) IsSummon() bool { return c.Master != nil }

// ==================== 腳本事件 ====================

// RegisterCreatureEvent 掛上一個已在引擎註冊的事件。重複掛同名為 no-op。
func (c *Creature) RegisterCreatureEvent(name string, bit CreatureEventBit) bool {
	for _, n := range c.eventNames {
		if n == name {
			return false
		}
	}
	c.eventNames = append(c.eventNames, name)
	c.scriptEvents |= bit
	return true
}

// HasEvent 位元檢查，熱路徑先擋掉沒註冊的事件再進 Lua。
func (c *Creature) HasEvent(bit CreatureEventBit) bool {
	return c.scriptEvents&bit != 0
}

func (c *Creature) EventNames() []string { return c.eventNames }

// LostExperience 死亡時分配給殺手的經驗。
func (c *Creature) LostExperience() uint64 { return c.Experience }

// GetTimeSinceLastMove 距離上一步完成的毫秒數。
func (c *Creature) GetTimeSinceLastMove() int64 {
	if c.lastStep == 0 {
		return 0x7FFFFFFF
	}
	return c.world.Now() - c.lastStep
}
