package world

// FieldType 地面場類型（火牆、毒沼等）。傷害型 condition 會與所站的場耦合。
type FieldType uint8

const (
	FieldNone FieldType = iota
	FieldFire
	FieldPoison
	FieldEnergy
)

// Tile 單一地圖格。零值（nil tile）視為不存在 → 不可行走。
type Tile struct {
	GroundSpeed     int32 // 0 → defaultGroundSpeed
	BlockSolid      bool
	BlockPath       bool // 尋路視為阻擋（例如可推開但 AI 不走的障礙）
	BlockProjectile bool
	Field           FieldType
}

// 無地面資料時的步行速度基準。
const defaultGroundSpeed = 150

type tileKey struct {
	X, Y int32
	Z    int8
}

// GameMap 稀疏 tile 容器。只在遊戲迴圈 goroutine 存取，不加鎖。
type GameMap struct {
	tiles map[tileKey]*Tile
}

func NewGameMap() *GameMap {
	return &GameMap{tiles: make(map[tileKey]*Tile)}
}

func (m *GameMap) GetTile(pos Position) *Tile {
	return m.tiles[tileKey{pos.X, pos.Y, pos.Z}]
}

func (m *GameMap) SetTile(pos Position, t *Tile) {
	if t == nil {
		delete(m.tiles, tileKey{pos.X, pos.Y, pos.Z})
		return
	}
	m.tiles[tileKey{pos.X, pos.Y, pos.Z}] = t
}

// GroundSpeed 該格地面速度；無資料時回傳基準值。
func (m *GameMap) GroundSpeed(pos Position) int32 {
	if t := m.GetTile(pos); t != nil && t.GroundSpeed > 0 {
		return t.GroundSpeed
	}
	return defaultGroundSpeed
}

// IsWalkable tile 存在且不阻擋尋路。不含生物佔格（見 State.CanWalkTo）。
func (m *GameMap) IsWalkable(pos Position) bool {
	t := m.GetTile(pos)
	return t != nil && !t.BlockSolid && !t.BlockPath
}

// IsSightClear 兩點之間是否無投射物阻擋。不同樓層永遠不可視。
// Bresenham 走格線，起點與終點本身不檢查。
func (m *GameMap) IsSightClear(from, to Position) bool {
	if from.Z != to.Z {
		return false
	}
	x0, y0 := from.X, from.Y
	x1, y1 := to.X, to.Y

	dx := abs32(x1 - x0)
	dy := abs32(y1 - y0)
	sx := int32(1)
	if x0 > x1 {
		sx = -1
	}
	sy := int32(1)
	if y0 > y1 {
		sy = -1
	}
	errAcc := dx - dy

	x, y := x0, y0
	for {
		if x == x1 && y == y1 {
			return true
		}
		if x != x0 || y != y0 {
			if t := m.GetTile(Position{X: x, Y: y, Z: from.Z}); t != nil && t.BlockProjectile {
				return false
			}
		}
		e2 := errAcc * 2
		if e2 > -dy {
			errAcc -= dy
			x += sx
		}
		if e2 < dx {
			errAcc += dx
			y += sy
		}
	}
}
