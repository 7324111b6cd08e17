package world

import "math"

// IsFleeing 血量低於逃跑門檻的野生怪物。召喚獸不逃跑。
func (c *Creature) IsFleeing() bool {
	return c.IsMonster && c.Master == nil && c.Health <= c.FleeHealth
}

// StepDuration 走一格（直向）需要的毫秒數。
// 速度先過對數曲線換算成步速，再除地面速度，結果向上對齊 50ms 粒度。
// 纏鬥中的野生怪物步長加倍（貼身抖步，給玩家追擊空檔）。
func (c *Creature) StepDuration() int64 {
	if c.Removed {
		return 0
	}
	tun := c.world.Tunables()
	groundSpeed := c.world.Map().GroundSpeed(c.Pos)

	calculated := int64(1)
	if stepSpeed := c.Speed(); stepSpeed > 0 {
		// stepSpeed/2 是整數除法，奇數速度向下截
		v := tun.SpeedCurveA*math.Log(float64(stepSpeed/2)+tun.SpeedCurveB) + tun.SpeedCurveC
		calculated = int64(math.Floor(v + 0.5))
		if calculated < 1 {
			calculated = 1
		}
	}

	duration := math.Floor(1000 * float64(groundSpeed) / float64(calculated))
	stepDuration := int64(math.Ceil(duration/50) * 50)

	if c.IsMonster && c.targetNearby && !c.IsFleeing() && c.Master == nil {
		stepDuration *= 2
	}
	return stepDuration
}

// GetWalkDelay 上一步尚需多少毫秒才走完；<= 0 表示可以再走。
func (c *Creature) GetWalkDelay() int64 {
	if c.lastStep == 0 {
		return 0
	}
	stepDuration := c.StepDuration() * int64(c.lastStepCost)
	return stepDuration - (c.world.Now() - c.lastStep)
}

// getEventStepTicks 下一個步行事件的延遲。firstStep 時若已經可走，
// 回傳 1 讓第一步立即踏出（客戶端起步不等整個步長）。
func (c *Creature) getEventStepTicks(firstStep bool) int64 {
	ret := c.GetWalkDelay()
	if ret <= 0 {
		stepDuration := c.StepDuration()
		if firstStep && stepDuration > 0 {
			ret = 1
		} else {
			ret = stepDuration * int64(c.lastStepCost)
		}
	}
	return ret
}

// AddEventWalk 排定下一個步行事件。同一時間最多一個；速度歸零不排。
func (c *Creature) AddEventWalk(firstStep bool) {
	c.cancelNextWalk = false
	if c.Speed() <= 0 {
		return
	}
	if c.eventWalk != 0 {
		return
	}
	ticks := c.getEventStepTicks(firstStep)
	if ticks <= 0 {
		return
	}
	if ticks == 1 {
		c.world.checkCreatureWalk(c)
	}
	c.eventWalk = c.world.Sched().Schedule(ticks, func() {
		c.world.checkCreatureWalk(c)
	})
}

// StopEventWalk 撤掉排定中的步行事件。不動佇列。
func (c *Creature) StopEventWalk() {
	if c.eventWalk != 0 {
		c.world.Sched().Cancel(c.eventWalk)
		c.eventWalk = 0
	}
}

// CancelNextWalk 協作式取消：下一次 OnWalk 時清空佇列並通知控制端。
func (c *Creature) CancelNextWalk() {
	c.cancelNextWalk = true
}

// StartAutoWalk 以新路徑取代行走佇列並排定事件。
func (c *Creature) StartAutoWalk(dirs []Direction) bool {
	if c.MovementBlocked {
		if c.Controller != nil {
			c.Controller.OnWalkCanceled()
		}
		return false
	}
	c.walkDirs = append(c.walkDirs[:0], dirs...)
	c.AddEventWalk(len(dirs) == 1)
	return true
}

// HasWalkQueued 佇列裡還有沒踏出的步伐。
func (c *Creature) HasWalkQueued() bool { return len(c.walkDirs) > 0 }

// getNextStep 取出佇列前端並套用酒醉亂步。
func (c *Creature) getNextStep() (Direction, bool) {
	if len(c.walkDirs) == 0 {
		return DirectionNone, false
	}
	dir := c.walkDirs[0]
	c.walkDirs = c.walkDirs[1:]
	return c.applyDrunkStep(dir), true
}

// applyDrunkStep 酒醉時每一步有固定機率被換成隨機直向步。
func (c *Creature) applyDrunkStep(dir Direction) Direction {
	if !c.HasCondition(ConditionDrunk, 0) {
		return dir
	}
	r := c.world.RandIntn(400)
	if r < c.world.Tunables().DrunkStepChance*4 {
		dir = Direction(r % 4)
		c.world.Say(c, "Hicks!")
	}
	return dir
}

// OnWalk 步行事件主迴圈：踏一步、處理取消旗標、重新排定。
func (c *Creature) OnWalk() {
	if c.GetWalkDelay() <= 0 {
		if dir, ok := c.getNextStep(); ok {
			ret := c.world.MoveCreature(c, dir)
			if ret != RetNoError {
				if c.Controller != nil {
					c.Controller.OnMoveRejected(ret)
					c.Controller.OnWalkCanceled()
				}
				// 路被堵住了，下個 think 重算
				c.forceUpdateFollowPath = true
			}
		} else {
			c.StopEventWalk()
			if len(c.walkDirs) == 0 {
				c.onWalkComplete()
			}
		}
	}

	if c.cancelNextWalk {
		c.walkDirs = c.walkDirs[:0]
		c.onWalkAborted()
		c.cancelNextWalk = false
	}

	if c.eventWalk != 0 {
		c.eventWalk = 0
		c.AddEventWalk(false)
	}
}

func (c *Creature) onWalkComplete() {
	c.hasFollowPath = false
}

func (c *Creature) onWalkAborted() {
	if c.Controller != nil {
		c.Controller.OnWalkCanceled()
	}
}
