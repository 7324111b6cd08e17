package world

// Position 世界座標。Z 是樓層（0-15，7 為地面層）。
type Position struct {
	X, Y int32
	Z    int8
}

// Direction 八方位。斜向 ⇔ dir >= SouthWest。
type Direction uint8

const (
	North Direction = iota
	East
	South
	West
	SouthWest
	SouthEast
	NorthWest
	NorthEast
	DirectionNone
)

const (
	maxViewportX = 11 // 客戶端視野半寬 + 1
	maxViewportY = 11
)

var directionNames = [...]string{
	"north", "east", "south", "west",
	"southwest", "southeast", "northwest", "northeast", "none",
}

func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "unknown"
}

// IsDiagonal 斜向步伐成本是直向的三倍（見 lastStepCost）。
func (d Direction) IsDiagonal() bool {
	return d >= SouthWest && d <= NorthEast
}

var dirOffsetX = [...]int32{
	North: 0, East: 1, South: 0, West: -1,
	SouthWest: -1, SouthEast: 1, NorthWest: -1, NorthEast: 1,
}

var dirOffsetY = [...]int32{
	North: -1, East: 0, South: 1, West: 0,
	SouthWest: 1, SouthEast: 1, NorthWest: -1, NorthEast: -1,
}

// OffsetX / OffsetY 回傳朝 d 移動一格的座標增量。
func (d Direction) OffsetX() int32 {
	if d >= DirectionNone {
		return 0
	}
	return dirOffsetX[d]
}

func (d Direction) OffsetY() int32 {
	if d >= DirectionNone {
		return 0
	}
	return dirOffsetY[d]
}

// Step 回傳沿 d 移動一格後的位置。
func (p Position) Step(d Direction) Position {
	return Position{X: p.X + d.OffsetX(), Y: p.Y + d.OffsetY(), Z: p.Z}
}

func DistanceX(a, b Position) int32 { return abs32(a.X - b.X) }
func DistanceY(a, b Position) int32 { return abs32(a.Y - b.Y) }
func DistanceZ(a, b Position) int8 {
	d := a.Z - b.Z
	if d < 0 {
		return -d
	}
	return d
}

// ChebyshevDistance 棋盤距離：斜向與直向都算一步。
func ChebyshevDistance(a, b Position) int32 {
	dx := DistanceX(a, b)
	dy := DistanceY(a, b)
	if dx > dy {
		return dx
	}
	return dy
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// InViewRange 判斷 pos 是否落在以 myPos 為中心的視野盒內。
// 樓層差會沿對角線平移視野盒（高處往下看會偏移）。
func InViewRange(myPos, pos Position, rangeX, rangeY int32) bool {
	offsetZ := int32(myPos.Z - pos.Z)
	return pos.X >= myPos.X-rangeX+offsetZ && pos.X <= myPos.X+rangeX+offsetZ &&
		pos.Y >= myPos.Y-rangeY+offsetZ && pos.Y <= myPos.Y+rangeY+offsetZ
}

// CanSeePosition 地面層（z<=7）看不到地下；地下樓層間最多差兩層。
func CanSeePosition(myPos, pos Position) bool {
	if myPos.Z <= 7 {
		// 地面與高空：看不到任何地下樓層
		if pos.Z > 7 {
			return false
		}
	} else {
		// 地下：上下兩層以內
		if DistanceZ(myPos, pos) > 2 {
			return false
		}
	}
	return InViewRange(myPos, pos, maxViewportX, maxViewportY)
}
