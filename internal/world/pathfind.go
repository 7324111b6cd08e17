package world

import "container/heap"

// FindPathParams 目標搜尋的約束。
type FindPathParams struct {
	FullPathSearch bool  // false 時只在目標朝向起點的那一側搜尋
	ClearSight     bool  // 接受格必須看得到目標
	KeepDistance   bool  // 展開時就不踏出距離窗（逃跑/遠程保距）
	MaxSearchDist  int32 // 0 = 不限距離但以封閉節點數封頂
	MinTargetDist  int32
	MaxTargetDist  int32
}

// 無距離上限時的搜尋量封頂。
const maxClosedNodes = 100

// 直向 10、斜向 25：斜向實際上慢 2.5 倍，讓路徑自然偏好直線。
const (
	normalWalkCost   = 10
	diagonalWalkCost = 25
	fieldWalkCost    = 100 // 有傷害場的格能繞就繞
)

// pathGoal 凍結的目標條件：路徑運算期間目標不再移動。
type pathGoal struct {
	target Position
}

// inRange 方向盒檢查。非全路徑搜尋時，盒子只朝起點的方向打開，
// 怪物不會繞到目標背後。
func (g pathGoal) inRange(startPos, testPos Position, fpp FindPathParams) bool {
	if fpp.FullPathSearch {
		if testPos.X > g.target.X+fpp.MaxTargetDist {
			return false
		}
		if testPos.X < g.target.X-fpp.MaxTargetDist {
			return false
		}
		if testPos.Y > g.target.Y+fpp.MaxTargetDist {
			return false
		}
		if testPos.Y < g.target.Y-fpp.MaxTargetDist {
			return false
		}
		return true
	}

	dx := startPos.X - g.target.X
	dxMax := int32(0)
	if dx >= 0 {
		dxMax = fpp.MaxTargetDist
	}
	if testPos.X > g.target.X+dxMax {
		return false
	}
	dxMin := int32(0)
	if dx <= 0 {
		dxMin = fpp.MaxTargetDist
	}
	if testPos.X < g.target.X-dxMin {
		return false
	}

	dy := startPos.Y - g.target.Y
	dyMax := int32(0)
	if dy >= 0 {
		dyMax = fpp.MaxTargetDist
	}
	if testPos.Y > g.target.Y+dyMax {
		return false
	}
	dyMin := int32(0)
	if dy <= 0 {
		dyMin = fpp.MaxTargetDist
	}
	if testPos.Y < g.target.Y-dyMin {
		return false
	}
	return true
}

// accept 判斷 testPos 是否為可接受的終點。近戰（max=1）要求精確落在
// 距離窗內；其餘允許 best-effort：記住目前最接近窗外緣的距離，
// 之後只接受更好的。bestMatch==0 代表已達最佳，搜尋可以停。
func (g pathGoal) accept(s *State, startPos, testPos Position, fpp FindPathParams, bestMatch *int32) bool {
	if !g.inRange(startPos, testPos, fpp) {
		return false
	}
	if fpp.ClearSight && !s.Map().IsSightClear(testPos, g.target) {
		return false
	}

	testDist := ChebyshevDistance(g.target, testPos)
	if fpp.MaxTargetDist == 1 {
		return testDist >= fpp.MinTargetDist && testDist <= fpp.MaxTargetDist
	}
	if testDist > fpp.MaxTargetDist {
		return false
	}
	if testDist < fpp.MinTargetDist {
		return false
	}
	if testDist == fpp.MaxTargetDist {
		*bestMatch = 0
		return true
	}
	if testDist > *bestMatch {
		*bestMatch = testDist
		return true
	}
	return false
}

// ==================== 搜尋 ====================

type pathNode struct {
	pos    Position
	parent *pathNode
	f      int32
	index  int // heap index；-1 = 不在 open
	closed bool
}

type nodeHeap []*pathNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].f < h[j].f }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x any)         { n := x.(*pathNode); n.index = len(*h); *h = append(*h, n) }
func (h *nodeHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*h = old[:len(old)-1]
	n.index = -1
	return n
}

func stepCost(from, to Position) int32 {
	if from.X != to.X && from.Y != to.Y {
		return diagonalWalkCost
	}
	return normalWalkCost
}

func (s *State) tileExtraCost(c *Creature, pos Position) int32 {
	if t := s.gameMap.GetTile(pos); t != nil && t.Field != FieldNone {
		return fieldWalkCost
	}
	return 0
}

// canWalkToFast 搜尋用的可走性：先問生物的本地快取，視窗外才打地圖。
func (s *State) canWalkToFast(c *Creature, pos Position) bool {
	switch c.GetWalkCache(pos) {
	case CacheBlocked:
		return false
	case CacheWalkable:
		return true
	}
	return s.CanWalkTo(c, pos)
}

// GetPathMatching 由 c 的位置往 target 搜到第一個可接受格。
// 回傳步伐序列（front = 第一步）。
func (s *State) GetPathMatching(c *Creature, target Position, fpp FindPathParams) ([]Direction, bool) {
	startPos := c.Pos
	goal := pathGoal{target: target}

	start := &pathNode{pos: startPos, index: -1}
	nodes := map[tileKey]*pathNode{{startPos.X, startPos.Y, startPos.Z}: start}
	open := nodeHeap{}
	heap.Push(&open, start)

	var found *pathNode
	bestMatch := int32(0)
	closedCount := 0

	for fpp.MaxSearchDist != 0 || closedCount < maxClosedNodes {
		if len(open) == 0 {
			break
		}
		n := heap.Pop(&open).(*pathNode)
		if n.closed {
			continue
		}
		n.closed = true
		closedCount++

		if goal.accept(s, startPos, n.pos, fpp, &bestMatch) {
			found = n
			if bestMatch == 0 {
				break
			}
		}

		for dx := int32(-1); dx <= 1; dx++ {
			for dy := int32(-1); dy <= 1; dy++ {
				if dx == 0 && dy == 0 {
					continue
				}
				pos := Position{X: n.pos.X + dx, Y: n.pos.Y + dy, Z: startPos.Z}
				if fpp.MaxSearchDist != 0 &&
					(DistanceX(startPos, pos) > fpp.MaxSearchDist || DistanceY(startPos, pos) > fpp.MaxSearchDist) {
					continue
				}
				if fpp.KeepDistance && !goal.inRange(startPos, pos, fpp) {
					continue
				}

				key := tileKey{pos.X, pos.Y, pos.Z}
				neighbor := nodes[key]
				if neighbor == nil {
					if !s.canWalkToFast(c, pos) {
						continue
					}
				}

				newF := n.f + stepCost(n.pos, pos) + s.tileExtraCost(c, pos)
				if neighbor != nil {
					if neighbor.f <= newF {
						continue
					}
					neighbor.f = newF
					neighbor.parent = n
					neighbor.closed = false
					if neighbor.index >= 0 {
						heap.Fix(&open, neighbor.index)
					} else {
						heap.Push(&open, neighbor)
					}
				} else {
					neighbor = &pathNode{pos: pos, parent: n, f: newF, index: -1}
					nodes[key] = neighbor
					heap.Push(&open, neighbor)
				}
			}
		}
	}

	if found == nil {
		return nil, false
	}

	// 從終點回溯到起點，再反轉成行走順序
	var rev []Direction
	for n := found; n.parent != nil; n = n.parent {
		rev = append(rev, directionBetween(n.parent.pos, n.pos))
	}
	dirs := make([]Direction, 0, len(rev))
	for i := len(rev) - 1; i >= 0; i-- {
		dirs = append(dirs, rev[i])
	}
	return dirs, true
}

func directionBetween(from, to Position) Direction {
	dx := to.X - from.X
	dy := to.Y - from.Y
	switch {
	case dx == 0 && dy < 0:
		return North
	case dx == 0 && dy > 0:
		return South
	case dx > 0 && dy == 0:
		return East
	case dx < 0 && dy == 0:
		return West
	case dx < 0 && dy > 0:
		return SouthWest
	case dx > 0 && dy > 0:
		return SouthEast
	case dx < 0 && dy < 0:
		return NorthWest
	case dx > 0 && dy < 0:
		return NorthEast
	}
	return DirectionNone
}

// ==================== 生物端入口 ====================

// getPathSearchParams 追擊時的預設搜尋參數；依生物處境調整。
func (c *Creature) getPathSearchParams(target *Creature) FindPathParams {
	fpp := FindPathParams{
		FullPathSearch: !c.hasFollowPath,
		ClearSight:     true,
		MaxSearchDist:  c.world.Tunables().MaxPathSearchDist,
		MinTargetDist:  1,
		MaxTargetDist:  1,
	}
	if !c.IsMonster {
		return fpp
	}

	fpp.MaxTargetDist = c.TargetDistance
	if fpp.MaxTargetDist < 1 {
		fpp.MaxTargetDist = 1
	}
	switch {
	case c.Master != nil && c.Master == target:
		// 跟隨主人：貼到兩格內就好
		fpp.MaxTargetDist = 2
		fpp.FullPathSearch = true
	case c.IsFleeing():
		// 逃跑：拉到視野邊緣，不要求視線，展開時就保持距離
		fpp.MaxTargetDist = maxViewportX
		fpp.ClearSight = false
		fpp.KeepDistance = true
		fpp.FullPathSearch = false
	case fpp.MaxTargetDist <= 1:
		fpp.FullPathSearch = true
	default:
		fpp.KeepDistance = true
		fpp.FullPathSearch = false
	}
	return fpp
}

// GetPathTo 完整參數版。
func (c *Creature) GetPathTo(target Position, fpp FindPathParams) ([]Direction, bool) {
	return c.world.GetPathMatching(c, target, fpp)
}

// FindPath 便利版：近戰預設（min=max=1、全向、要視線、不限距離）。
func (c *Creature) FindPath(target Position) ([]Direction, bool) {
	return c.GetPathTo(target, FindPathParams{
		FullPathSearch: true,
		ClearSight:     true,
		MinTargetDist:  1,
		MaxTargetDist:  1,
	})
}
