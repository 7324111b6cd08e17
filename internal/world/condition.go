package world

// ConditionType 位元集：一隻生物同類型的 condition 以 (type, id, subId) 去重。
type ConditionType uint32

const (
	ConditionPoison ConditionType = 1 << iota
	ConditionFire
	ConditionEnergy
	ConditionHaste
	ConditionParalyze
	ConditionDrunk
	ConditionInvisible
)

const ConditionNone ConditionType = 0

// Condition 附著在生物身上的時限狀態。
// Ticks == -1 代表永久；其餘以 EndTime（虛擬毫秒）判定到期。
type Condition interface {
	Type() ConditionType
	ConditionID() uint32
	SubID() uint32
	Ticks() int64
	EndTime() int64
	Owner() uint32 // 來源生物 ID，傷害歸屬用

	Start(c *Creature) bool
	End(c *Creature)
	Execute(c *Creature, interval int64) bool
	Merge(c *Creature, other Condition)
}

// BaseCondition 共用欄位。具體條件 embed 它並覆寫需要的行為。
type BaseCondition struct {
	CondType ConditionType
	CondID   uint32
	Sub      uint32
	TicksVal int64 // 總時長毫秒；-1 永久
	Ends     int64
	Source   uint32
}

func (b *BaseCondition) Type() ConditionType { return b.CondType }
func (b *BaseCondition) ConditionID() uint32 { return b.CondID }
func (b *BaseCondition) SubID() uint32       { return b.Sub }
func (b *BaseCondition) Ticks() int64        { return b.TicksVal }
func (b *BaseCondition) EndTime() int64      { return b.Ends }
func (b *BaseCondition) Owner() uint32       { return b.Source }

func (b *BaseCondition) Start(c *Creature) bool {
	if b.TicksVal >= 0 {
		b.Ends = c.world.Now() + b.TicksVal
	}
	return true
}

func (b *BaseCondition) End(c *Creature) {}

// Execute 預設只檢查到期。
func (b *BaseCondition) Execute(c *Creature, interval int64) bool {
	return b.TicksVal == -1 || b.Ends >= c.world.Now()
}

// Merge 重複施加同一 condition：延長到較晚的結束時間。
func (b *BaseCondition) Merge(c *Creature, other Condition) {
	if other.Ticks() == -1 {
		b.TicksVal = -1
		return
	}
	if b.TicksVal != -1 {
		newEnd := c.world.Now() + other.Ticks()
		if newEnd > b.Ends {
			b.Ends = newEnd
			b.TicksVal = other.Ticks()
		}
	}
}

// ==================== 具體條件 ====================

// ConditionGeneric 純時限旗標（隱形等）。
type ConditionGeneric struct {
	BaseCondition
}

// ConditionDrunkEffect 酒醉：行走時有機率亂走並喊出 "Hicks!"。
type ConditionDrunkEffect struct {
	BaseCondition
	Drunkenness uint8
}

// ConditionSpeed 加速 / 麻痺。Delta 為速度增減量（麻痺為負）。
type ConditionSpeed struct {
	BaseCondition
	Delta int32
}

func (s *ConditionSpeed) Start(c *Creature) bool {
	if !s.BaseCondition.Start(c) {
		return false
	}
	c.world.ChangeSpeed(c, s.Delta)
	return true
}

func (s *ConditionSpeed) End(c *Creature) {
	c.world.ChangeSpeed(c, -s.Delta)
}

func (s *ConditionSpeed) Merge(c *Creature, other Condition) {
	o, ok := other.(*ConditionSpeed)
	if !ok {
		return
	}
	s.BaseCondition.Merge(c, other)
	if o.Delta != s.Delta {
		c.world.ChangeSpeed(c, o.Delta-s.Delta)
		s.Delta = o.Delta
	}
}

// ConditionDamage 週期傷害（毒、火）。與所站地面場耦合：
// 場消失或類型不符時提前結束。
type ConditionDamage struct {
	BaseCondition
	PeriodDamage int32
	Interval     int64
	Field        FieldType
	elapsed      int64
}

func (d *ConditionDamage) Start(c *Creature) bool {
	// 沒設間隔的預設每秒一跳
	if d.Interval <= 0 {
		d.Interval = 1000
	}
	return d.BaseCondition.Start(c)
}

func (d *ConditionDamage) Execute(c *Creature, interval int64) bool {
	if !d.BaseCondition.Execute(c, interval) {
		return false
	}
	if d.Field != FieldNone {
		t := c.world.Map().GetTile(c.Pos)
		if t == nil || t.Field != d.Field {
			return false
		}
	}
	if d.Interval <= 0 {
		d.Interval = 1000
	}
	d.elapsed += interval
	for d.elapsed >= d.Interval {
		d.elapsed -= d.Interval
		attacker := c.world.GetCreatureByID(d.Source)
		c.world.DrainHealth(c, attacker, d.PeriodDamage)
		if c.Dead {
			return false
		}
	}
	return true
}

// ==================== 附著與移除 ====================

func (c *Creature) getCondition(t ConditionType, id, subID uint32) Condition {
	for _, cond := range c.conditions {
		if cond.Type() == t && cond.ConditionID() == id && cond.SubID() == subID {
			return cond
		}
	}
	return nil
}

// AddCondition 附著 condition。對麻痺中的生物加入加速時，延後到走完
// 這一步再重試（force=true 跳過守門）。
func (c *Creature) AddCondition(cond Condition, force bool) bool {
	if cond == nil {
		return false
	}
	if c.IsImmune(cond.Type()) {
		return false
	}
	if !force && cond.Type() == ConditionHaste && c.HasCondition(ConditionParalyze, 0) {
		if walkDelay := c.GetWalkDelay(); walkDelay > 0 {
			c.world.Sched().Schedule(walkDelay, func() {
				if !c.Removed {
					c.AddCondition(cond, true)
				}
			})
			return false
		}
	}
	if prev := c.getCondition(cond.Type(), cond.ConditionID(), cond.SubID()); prev != nil {
		prev.Merge(c, cond)
		return true
	}
	if cond.Start(c) {
		c.conditions = append(c.conditions, cond)
		c.onAddCondition(cond.Type())
		return true
	}
	return false
}

// AddCombatCondition 戰鬥來源的附著：先過腳本 hook 再進一般路徑。
func (c *Creature) AddCombatCondition(cond Condition, source *Creature) bool {
	if cond == nil {
		return false
	}
	if c.HasEvent(EventCombatCondition) {
		if !c.world.Hooks().RunCombatCondition(source, c, cond.Type()) {
			return false
		}
	}
	return c.AddCondition(cond, false)
}

// RemoveCondition 移除全部符合類型的 condition。移除麻痺時等走完
// 這一步再生效，避免客戶端預測中的步伐瞬間變速。
func (c *Creature) RemoveCondition(t ConditionType, force bool) {
	for i := 0; i < len(c.conditions); {
		cond := c.conditions[i]
		if cond.Type() != t {
			i++
			continue
		}
		if !force && t == ConditionParalyze {
			if walkDelay := c.GetWalkDelay(); walkDelay > 0 {
				c.world.Sched().Schedule(walkDelay, func() {
					if !c.Removed {
						c.RemoveCondition(t, true)
					}
				})
				return
			}
		}
		c.conditions = append(c.conditions[:i], c.conditions[i+1:]...)
		cond.End(c)
		c.onEndCondition(cond.Type())
	}
}

// RemoveConditionByID 只移除同類型中指定 id 的 condition，
// 麻痺守門同 RemoveCondition。
func (c *Creature) RemoveConditionByID(t ConditionType, id uint32, force bool) {
	for i := 0; i < len(c.conditions); {
		cond := c.conditions[i]
		if cond.Type() != t || cond.ConditionID() != id {
			i++
			continue
		}
		if !force && t == ConditionParalyze {
			if walkDelay := c.GetWalkDelay(); walkDelay > 0 {
				c.world.Sched().Schedule(walkDelay, func() {
					if !c.Removed {
						c.RemoveConditionByID(t, id, true)
					}
				})
				return
			}
		}
		c.conditions = append(c.conditions[:i], c.conditions[i+1:]...)
		cond.End(c)
		c.onEndCondition(cond.Type())
	}
}

// RemoveCombatCondition 先收集再逐一移除，避免邊走訪邊改列表。
func (c *Creature) RemoveCombatCondition(t ConditionType) {
	var matched []Condition
	for _, cond := range c.conditions {
		if cond.Type() == t {
			matched = append(matched, cond)
		}
	}
	for _, cond := range matched {
		c.removeSingleCondition(cond)
	}
}

func (c *Creature) removeSingleCondition(target Condition) {
	for i, cond := range c.conditions {
		if cond == target {
			c.conditions = append(c.conditions[:i], c.conditions[i+1:]...)
			cond.End(c)
			c.onEndCondition(cond.Type())
			return
		}
	}
}

// onAddCondition 加速與麻痺互斥。
func (c *Creature) onAddCondition(t ConditionType) {
	if t == ConditionParalyze && c.HasCondition(ConditionHaste, 0) {
		c.RemoveCondition(ConditionHaste, false)
	} else if t == ConditionHaste && c.HasCondition(ConditionParalyze, 0) {
		c.RemoveCondition(ConditionParalyze, false)
	}
}

func (c *Creature) onEndCondition(t ConditionType) {}

// ExecuteConditions 每 tick 推進。走訪快照，條件在 Execute 裡
// 加掛新 condition 不會影響這一輪。
func (c *Creature) ExecuteConditions(interval int64) {
	snapshot := make([]Condition, len(c.conditions))
	copy(snapshot, c.conditions)
	for _, cond := range snapshot {
		if cond.Execute(c, interval) {
			continue
		}
		c.removeSingleCondition(cond)
	}
}

// HasCondition 被抑制的類型一律回報 false；已過期但尚未清掉的也不算。
func (c *Creature) HasCondition(t ConditionType, subID uint32) bool {
	if c.IsSuppressed(t) {
		return false
	}
	now := c.world.Now()
	for _, cond := range c.conditions {
		if cond.Type() != t || cond.SubID() != subID {
			continue
		}
		if cond.Ticks() == -1 || cond.EndTime() >= now {
			return true
		}
	}
	return false
}

// IsInvisible 隱形判定不看抑制位，存在即隱形。
func (c *Creature) IsInvisible() bool {
	for _, cond := range c.conditions {
		if cond.Type() == ConditionInvisible {
			return true
		}
	}
	return false
}

// Conditions 目前附著列表（唯讀用途）。
func (c *Creature) Conditions() []Condition { return c.conditions }

func (c *Creature) removeAllConditions() {
	for len(c.conditions) > 0 {
		cond := c.conditions[len(c.conditions)-1]
		c.conditions = c.conditions[:len(c.conditions)-1]
		cond.End(c)
	}
}
