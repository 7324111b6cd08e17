package world

// AOIGrid cell 式視野索引：cell 取視野半寬，3x3 鄰域必然涵蓋
// 整個視野盒，細篩交給呼叫端。只在遊戲迴圈 goroutine 存取，不加鎖。

const cellSize = maxViewportX

type cellKey struct {
	z  int8
	cx int32
	cy int32
}

func toCellCoord(v int32) int32 {
	if v < 0 {
		return (v - cellSize + 1) / cellSize
	}
	return v / cellSize
}

// AOIGrid 記錄每個 cell 裡有哪些生物。
type AOIGrid struct {
	cells map[cellKey]map[uint32]struct{} // cellKey → creature ID set
}

func NewAOIGrid() *AOIGrid {
	return &AOIGrid{
		cells: make(map[cellKey]map[uint32]struct{}),
	}
}

func (g *AOIGrid) key(pos Position) cellKey {
	return cellKey{z: pos.Z, cx: toCellCoord(pos.X), cy: toCellCoord(pos.Y)}
}

// Add 放入生物。
func (g *AOIGrid) Add(id uint32, pos Position) {
	k := g.key(pos)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[uint32]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

// Remove 拿掉生物。
func (g *AOIGrid) Remove(id uint32, pos Position) {
	k := g.key(pos)
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Move 位置變動時換 cell。
func (g *AOIGrid) Move(id uint32, oldPos, newPos Position) {
	oldK := g.key(oldPos)
	newK := g.key(newPos)
	if oldK == newK {
		return
	}
	g.Remove(id, oldPos)
	g.Add(id, newPos)
}

// GetNearby 回傳 pos 周圍 3x3 cell 內的所有生物 ID。
func (g *AOIGrid) GetNearby(pos Position) []uint32 {
	cx := toCellCoord(pos.X)
	cy := toCellCoord(pos.Y)
	var result []uint32
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			k := cellKey{z: pos.Z, cx: cx + dx, cy: cy + dy}
			for id := range g.cells[k] {
				result = append(result, id)
			}
		}
	}
	return result
}
