package world

import "math"

// DamageType 傷害類型位元，免疫判定用。
type DamageType uint32

const (
	DamagePhysical DamageType = 1 << iota
	DamageFire
	DamagePoison
	DamageEnergy
)

// BlockType BlockHit 的結果。
type BlockType uint8

const (
	BlockNone BlockType = iota
	BlockDefense
	BlockArmor
	BlockImmunity
)

// countBlock 傷害表的一格：累積量與最後一次受擊時間。
type countBlock struct {
	total int32
	ticks int64
}

// AddDamagePoints 記帳一筆傷害並更新最後擊中者。非正傷害不記。
func (c *Creature) AddDamagePoints(attacker *Creature, points int32) {
	if points <= 0 {
		return
	}
	now := c.world.Now()
	cb, ok := c.damageMap[attacker.ID]
	if !ok {
		cb = countBlock{total: points, ticks: now}
	} else {
		cb.total += points
		cb.ticks = now
	}
	c.damageMap[attacker.ID] = cb
	c.lastHitCreatureID = attacker.ID
}

// HasBeenAttacked 該攻擊者是否在敵對窗口內打過我。
func (c *Creature) HasBeenAttacked(attackerID uint32) bool {
	cb, ok := c.damageMap[attackerID]
	if !ok {
		return false
	}
	return c.world.Now()-cb.ticks <= c.world.Tunables().HostileWindowMs
}

// Killers 回傳最後擊中者與窗口內傷害最高者。兩者可相同、可為 nil
// （攻擊者已離開世界時查不到）。
func (c *Creature) Killers() (lastHit, mostDamage *Creature) {
	lastHit = c.world.GetCreatureByID(c.lastHitCreatureID)
	now := c.world.Now()
	window := c.world.Tunables().HostileWindowMs
	var best int32
	for id, cb := range c.damageMap {
		if cb.total > best && now-cb.ticks <= window {
			if attacker := c.world.GetCreatureByID(id); attacker != nil {
				best = cb.total
				mostDamage = attacker
			}
		}
	}
	return lastHit, mostDamage
}

// GetKillers 敵對窗口內打過我的所有攻擊者（不含自己；已離開世界的
// 查不到就略過）。
func (c *Creature) GetKillers() []*Creature {
	now := c.world.Now()
	window := c.world.Tunables().HostileWindowMs
	var killers []*Creature
	for id, cb := range c.damageMap {
		if id == c.ID || now-cb.ticks > window {
			continue
		}
		if attacker := c.world.GetCreatureByID(id); attacker != nil {
			killers = append(killers, attacker)
		}
	}
	return killers
}

// GetDamageRatio attacker 佔總傷害的比例。窗口不設限：經驗結算
// 看整場輸出。
func (c *Creature) GetDamageRatio(attacker *Creature) float64 {
	var total, attackerDamage int64
	for id, cb := range c.damageMap {
		total += int64(cb.total)
		if id == attacker.ID {
			attackerDamage += int64(cb.total)
		}
	}
	if total == 0 {
		return 0
	}
	return float64(attackerDamage) / float64(total)
}

// GetGainedExperience attacker 按傷害比例應得的經驗。
func (c *Creature) GetGainedExperience(attacker *Creature) uint64 {
	return uint64(math.Floor(c.GetDamageRatio(attacker) * float64(c.LostExperience())))
}

// ==================== 血量 ====================

// ChangeHealth 夾在 [0, MaxHealth]。歸零時排程死亡（零延遲任務，
// 讓當前呼叫堆疊先收尾）；自然回滿時清空戰鬥記帳。
func (c *Creature) ChangeHealth(delta int32) {
	oldHealth := c.Health
	if delta > 0 {
		if room := c.MaxHealth - c.Health; delta > room {
			delta = room
		}
		c.Health += delta
	} else {
		c.Health += delta
		if c.Health < 0 {
			c.Health = 0
		}
	}
	if c.Health == oldHealth {
		return
	}
	if c.Health <= 0 {
		c.world.Sched().Schedule(0, func() {
			c.world.ExecuteDeath(c)
		})
		return
	}
	if c.Health == c.MaxHealth {
		c.OnIdleStatus()
	}
}

// DrainHealth 扣血並讓攻擊方記帳。
func (s *State) DrainHealth(target, attacker *Creature, damage int32) {
	target.ChangeHealth(-damage)
	if attacker != nil {
		attacker.OnAttackedCreatureDrainHealth(target, damage)
	}
}

// GainHealth 回血。
func (s *State) GainHealth(target, healer *Creature, amount int32) {
	target.ChangeHealth(amount)
}

// OnAttackedCreatureDrainHealth 我對 target 造成了實際傷害。
func (c *Creature) OnAttackedCreatureDrainHealth(target *Creature, points int32) {
	target.AddDamagePoints(c, points)
}

// OnIdleStatus 脫戰：清掉傷害表與最後擊中者。
func (c *Creature) OnIdleStatus() {
	if c.Health > 0 {
		c.damageMap = make(map[uint32]countBlock)
		c.lastHitCreatureID = 0
	}
}

// ==================== 格擋 ====================

// BlockHit 免疫 → 防禦 → 護甲 的吸收順序。damage 就地修改。
// 防禦次數有限（blockCount），在 OnThink 裡每秒回充一次、上限 2。
func (c *Creature) BlockHit(attacker *Creature, damageType DamageType, damage *int32, checkDefense, checkArmor bool) BlockType {
	blockType := BlockNone
	if c.DamageImmunities&uint32(damageType) != 0 {
		*damage = 0
		blockType = BlockImmunity
	} else if checkDefense || checkArmor {
		hasDefense := false
		if c.blockCount > 0 {
			c.blockCount--
			hasDefense = true
		}
		if checkDefense && hasDefense {
			defense := c.Defense
			*damage -= c.world.RandRange(defense/2, defense)
			if *damage <= 0 {
				*damage = 0
				blockType = BlockDefense
				checkArmor = false
			}
		}
		if checkArmor {
			armor := c.Armor
			if armor > 3 {
				*damage -= c.world.RandRange(armor/2, armor-(armor%2+1))
			} else if armor > 0 {
				*damage--
			}
			if *damage <= 0 {
				*damage = 0
				blockType = BlockArmor
			}
		}
	}
	if attacker != nil {
		attacker.OnAttackedCreature(c)
	}
	return blockType
}

// ==================== 死亡 ====================

// OnDeath 死亡結算：算殺手、派經驗、丟屍體、解除主從。
// 由 ExecuteDeath 呼叫，此時血量已歸零。
func (c *Creature) OnDeath() {
	var lastHitUnjustified, mostDamageUnjustified bool
	lastHitCreature := c.world.GetCreatureByID(c.lastHitCreatureID)
	var lastHitMaster *Creature
	if lastHitCreature != nil {
		lastHitUnjustified = lastHitCreature.OnKilledCreature(c, true)
		lastHitMaster = lastHitCreature.Master
	}

	// 傷害表一次走完：挑窗口內最高傷害者，順路累積經驗表
	now := c.world.Now()
	window := c.world.Tunables().HostileWindowMs
	var mostDamageCreature *Creature
	var mostDamage int32
	experienceMap := make(map[*Creature]uint64)
	for id, cb := range c.damageMap {
		attacker := c.world.GetCreatureByID(id)
		if attacker == nil {
			continue
		}
		if cb.total > mostDamage && now-cb.ticks <= window {
			mostDamage = cb.total
			mostDamageCreature = attacker
		}
		if attacker != c {
			gainExp := c.GetGainedExperience(attacker)
			// 開啟共享經驗的隊伍把個人份轉給隊長統一分配
			if party := c.world.Parties().PartyOf(attacker.ID); party != nil &&
				party.Leader != nil && party.SharedExpActive && party.SharedExpEnabled {
				attacker = party.Leader
			}
			experienceMap[attacker] += gainExp
		}
	}
	for attacker, exp := range experienceMap {
		attacker.OnGainExperience(exp, c)
	}

	if mostDamageCreature != nil {
		if mostDamageCreature != lastHitCreature && mostDamageCreature != lastHitMaster {
			mostDamageMaster := mostDamageCreature.Master
			// 同一方（本體或主人重疊）只記一次不義擊殺
			if lastHitCreature != mostDamageMaster &&
				(lastHitMaster == nil || mostDamageMaster != lastHitMaster) {
				mostDamageUnjustified = mostDamageCreature.OnKilledCreature(c, false)
			}
		}
	}
	droppedCorpse := c.dropCorpse(lastHitCreature, mostDamageCreature, lastHitUnjustified, mostDamageUnjustified)
	c.Dead = true

	if c.Master != nil {
		c.Master.RemoveSummon(c)
	}
	if droppedCorpse {
		c.world.RemoveCreature(c)
	}
}

// dropCorpse 召喚出來的怪不掉屍體（煙霧散場），但死亡 hook 照跑。
func (c *Creature) dropCorpse(lastHit, mostDamage *Creature, lastHitUnjustified, mostDamageUnjustified bool) bool {
	if !c.LootDrop && c.IsMonster {
		if c.Master != nil && c.HasEvent(EventDeath) {
			c.world.Hooks().RunDeath(c, false, lastHit, mostDamage, lastHitUnjustified, mostDamageUnjustified)
		}
		c.world.AddEffect(c.Pos, EffectPoff)
	} else {
		if c.HasEvent(EventDeath) {
			c.world.Hooks().RunDeath(c, true, lastHit, mostDamage, lastHitUnjustified, mostDamageUnjustified)
		}
		// 窗口內的殺手保留拾取權
		killers := c.GetKillers()
		owners := make([]uint32, 0, len(killers))
		for _, k := range killers {
			owners = append(owners, k.ID)
		}
		c.world.DropCorpseAt(c.Pos, owners)
	}
	return true
}

// OnKilledCreature 我殺死了 target。回傳此擊是否不義（由 kill hook
// 決定；沒掛 hook 一律正當）。
func (c *Creature) OnKilledCreature(target *Creature, lastHit bool) bool {
	if c.Master != nil {
		c.Master.OnKilledCreature(target, lastHit)
	}
	if c.HasEvent(EventKill) {
		return c.world.Hooks().RunKill(c, target, lastHit)
	}
	return false
}

// OnGainExperience 召喚獸的經驗折半轉給主人；其餘直接入帳。
func (c *Creature) OnGainExperience(gainExp uint64, target *Creature) {
	if gainExp == 0 {
		return
	}
	if c.Master != nil {
		gainExp /= 2
		c.Master.OnGainExperience(gainExp, target)
		return
	}
	c.TotalExperience += gainExp
	if c.Controller != nil {
		c.Controller.OnMessage(expGainMessage(gainExp))
	}
}
