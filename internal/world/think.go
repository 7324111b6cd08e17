package world

// CanSee 位置是否在我的視野內（含樓層規則）。
func (c *Creature) CanSee(pos Position) bool {
	return CanSeePosition(c.Pos, pos)
}

// CanSeeCreature 隱形生物對看不穿隱形的觀察者不存在。
func (c *Creature) CanSeeCreature(other *Creature) bool {
	if !c.SeeInvisible && other.IsInvisible() {
		return false
	}
	return c.CanSee(other.Pos)
}

// OnThink 每隻生物的心跳。interval 為距上次 think 的毫秒數。
func (c *Creature) OnThink(interval int64) {
	// 快取延遲載入：第一次 think 才付整張重建的成本
	if !c.cacheLoaded && c.useCache {
		c.UpdateMapCache()
	}

	if c.FollowCreature != nil && c.Master != c.FollowCreature && !c.CanSeeCreature(c.FollowCreature) {
		c.onCreatureDisappear(c.FollowCreature)
	}
	if c.AttackedCreature != nil && c.Master != c.AttackedCreature && !c.CanSeeCreature(c.AttackedCreature) {
		c.onCreatureDisappear(c.AttackedCreature)
	}

	c.blockTicks += interval
	if c.blockTicks >= 1000 {
		c.blockCount++
		if c.blockCount > 2 {
			c.blockCount = 2
		}
		c.blockTicks = 0
	}

	if c.FollowCreature != nil {
		c.walkUpdateTicks += interval
		if c.forceUpdateFollowPath || c.walkUpdateTicks >= c.world.Tunables().PathRecomputeMs {
			c.walkUpdateTicks = 0
			c.forceUpdateFollowPath = false
			c.isUpdatingPath = true
		}
	}

	if c.isUpdatingPath {
		c.isUpdatingPath = false
		c.GoToFollowCreature()
	}

	// 纏鬥抖步判定：目標貼身時怪物步長加倍
	if c.IsMonster {
		c.targetNearby = c.AttackedCreature != nil &&
			ChebyshevDistance(c.Pos, c.AttackedCreature.Pos) <= 1
	}

	if c.HasEvent(EventThink) {
		c.world.Hooks().RunThink(c, interval)
	}
}

// OnAttacking 攻擊節拍：讓目標知道被盯上，看得到才真的出手。
func (c *Creature) OnAttacking(interval int64) {
	if c.AttackedCreature == nil {
		return
	}
	c.OnAttackedCreature(c.AttackedCreature)
	c.AttackedCreature.OnAttacked(c)
	if c.world.Map().IsSightClear(c.Pos, c.AttackedCreature.Pos) {
		if c.DoAttack != nil {
			c.DoAttack(c.AttackedCreature, interval)
		}
	}
}

// OnAttackedCreature 我正在攻擊 target（attack hook 掛點）。
func (c *Creature) OnAttackedCreature(target *Creature) {
	if c.HasEvent(EventAttack) {
		c.world.Hooks().RunAttack(c, target)
	}
}

// OnAttacked 被 attacker 盯上。閒置的野生怪物會回頭反擊。
func (c *Creature) OnAttacked(attacker *Creature) {
	if c.IsMonster && c.Master == nil && c.AttackedCreature == nil && !c.Dead {
		if c.CanSeeCreature(attacker) {
			c.SetAttackedCreature(attacker)
			c.SetFollowCreature(attacker)
		}
	}
}

// ==================== 目標設定 ====================

// SetAttackedCreature 換攻擊目標並向召喚獸傳遞。目標在視野外直接失敗。
func (c *Creature) SetAttackedCreature(target *Creature) bool {
	if target != nil {
		if target.Pos.Z != c.Pos.Z || !c.CanSee(target.Pos) {
			c.AttackedCreature = nil
			return false
		}
		c.AttackedCreature = target
		c.OnAttackedCreature(target)
		target.OnAttacked(c)
	} else {
		c.AttackedCreature = nil
	}
	for _, summon := range c.Summons {
		summon.SetAttackedCreature(target)
	}
	return true
}

// SetFollowCreature 換跟隨目標：重設路徑狀態，下個 think 立即重算。
func (c *Creature) SetFollowCreature(target *Creature) bool {
	if target != nil {
		if c.FollowCreature == target {
			return true
		}
		if target.Pos.Z != c.Pos.Z || !c.CanSee(target.Pos) {
			c.FollowCreature = nil
			return false
		}
		if len(c.walkDirs) > 0 {
			c.walkDirs = c.walkDirs[:0]
			c.onWalkAborted()
		}
		c.hasFollowPath = false
		c.forceUpdateFollowPath = false
		c.FollowCreature = target
		c.isUpdatingPath = true
	} else {
		c.isUpdatingPath = false
		c.FollowCreature = nil
	}
	return true
}

// onCreatureDisappear 目標離開視野：解除鎖定。
func (c *Creature) onCreatureDisappear(target *Creature) {
	if c.AttackedCreature == target {
		c.SetAttackedCreature(nil)
	}
	if c.FollowCreature == target {
		c.SetFollowCreature(nil)
	}
}

// ==================== 追擊 ====================

// GoToFollowCreature 重算追擊路徑。保距或逃跑的野生怪物先試
// 便宜的單步啟發，不行才跑完整搜尋。
func (c *Creature) GoToFollowCreature() {
	target := c.FollowCreature
	if target == nil {
		return
	}
	fpp := c.getPathSearchParams(target)

	if c.IsMonster && c.Master == nil && (c.IsFleeing() || fpp.MaxTargetDist > 1) {
		dir := DirectionNone
		if c.IsFleeing() {
			dir, _ = c.getDistanceStep(target.Pos, true)
		} else {
			var ok bool
			dir, ok = c.getDistanceStep(target.Pos, false)
			if !ok {
				c.followByPath(target.Pos, fpp)
				return
			}
		}
		if dir != DirectionNone {
			c.hasFollowPath = true
			c.StartAutoWalk([]Direction{dir})
		}
		return
	}

	c.followByPath(target.Pos, fpp)
}

func (c *Creature) followByPath(targetPos Position, fpp FindPathParams) {
	dirs, ok := c.world.GetPathMatching(c, targetPos, fpp)
	if !ok {
		c.hasFollowPath = false
		return
	}
	c.hasFollowPath = true
	c.StartAutoWalk(dirs)
}

// getDistanceStep 單步保距啟發：在八個鄰格裡挑能把與目標的距離
// 拉向理想值的一格。flee 時理想值是愈遠愈好。
func (c *Creature) getDistanceStep(targetPos Position, flee bool) (Direction, bool) {
	curDist := ChebyshevDistance(c.Pos, targetPos)
	wantDist := c.TargetDistance
	if wantDist < 1 {
		wantDist = 1
	}

	bestDir := DirectionNone
	bestScore := int32(-1 << 30)
	for d := North; d < DirectionNone; d++ {
		pos := c.Pos.Step(d)
		if !c.world.canWalkToFast(c, pos) {
			continue
		}
		dist := ChebyshevDistance(pos, targetPos)
		var score int32
		if flee {
			if dist <= curDist {
				continue
			}
			score = dist
		} else {
			gap := abs32(dist - wantDist)
			if gap >= abs32(curDist-wantDist) {
				continue
			}
			score = -gap
		}
		// 同分偏好直向（步長便宜三倍）
		if !d.IsDiagonal() {
			score = score*4 + 1
		} else {
			score = score * 4
		}
		if score > bestScore {
			bestScore = score
			bestDir = d
		}
	}
	if bestDir == DirectionNone {
		return DirectionNone, false
	}
	return bestDir, true
}

// ==================== 世界事件回呼 ====================

// OnCreatureAppear 有生物（可能是自己）進入世界或視野。
func (c *Creature) OnCreatureAppear(creature *Creature) {
	if creature == c {
		if c.useCache {
			c.UpdateMapCache()
		}
		return
	}
	if c.cacheLoaded && creature.Pos.Z == c.Pos.Z {
		c.UpdateTileCache(creature.Pos)
	}
}

// OnRemoveCreature 有生物離開世界。
func (c *Creature) OnRemoveCreature(creature *Creature) {
	c.onCreatureDisappear(creature)
	if creature != c && c.cacheLoaded && creature.Pos.Z == c.Pos.Z {
		c.UpdateTileCache(creature.Pos)
	}
}

// OnCreatureMove 有生物（可能是自己）移動了一格。
func (c *Creature) OnCreatureMove(creature *Creature, newPos, oldPos Position, teleport bool) {
	if creature == c {
		c.lastStep = c.world.Now()
		c.lastStepCost = 1
		if teleport {
			c.StopEventWalk()
		} else {
			if oldPos.Z != newPos.Z {
				c.lastStepCost = 2
			} else if DistanceX(newPos, oldPos) >= 1 && DistanceY(newPos, oldPos) >= 1 {
				c.lastStepCost = 3
			}
		}

		// 離主人太遠的召喚獸直接散掉
		if len(c.Summons) > 0 {
			tun := c.world.Tunables()
			var despawn []*Creature
			for _, summon := range c.Summons {
				if DistanceZ(newPos, summon.Pos) > tun.SummonDespawnFloors ||
					ChebyshevDistance(newPos, summon.Pos) > tun.SummonDespawnRadius {
					despawn = append(despawn, summon)
				}
			}
			for _, summon := range despawn {
				c.world.RemoveCreature(summon)
			}
		}

		if c.cacheLoaded {
			if teleport {
				c.UpdateMapCache()
			} else {
				c.shiftMapCache(oldPos, newPos)
			}
		}
	} else if c.cacheLoaded {
		if newPos.Z == c.Pos.Z {
			c.UpdateTileCache(newPos)
		}
		if oldPos.Z == c.Pos.Z {
			c.UpdateTileCache(oldPos)
		}
	}

	if c.FollowCreature != nil && (creature == c.FollowCreature || creature == c) {
		if c.hasFollowPath {
			c.isUpdatingPath = true
		}
		if newPos.Z != oldPos.Z || !c.CanSee(c.FollowCreature.Pos) {
			c.onCreatureDisappear(c.FollowCreature)
		}
	}

	if c.AttackedCreature != nil && (creature == c.AttackedCreature || creature == c) {
		if newPos.Z != oldPos.Z || !c.CanSee(c.AttackedCreature.Pos) {
			c.onCreatureDisappear(c.AttackedCreature)
		} else if c.extraMeleeAttack {
			// 目標還在打擊範圍內移動：補一刀的機會
			c.world.Sched().Schedule(0, func() {
				c.world.checkCreatureAttack(c)
			})
		}
	}
}

// SetExtraMeleeAttack 近戰出手後的追擊窗口，由攻擊邏輯開關。
func (c *Creature) SetExtraMeleeAttack(on bool) { c.extraMeleeAttack = on }
