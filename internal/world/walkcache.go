package world

// 本地行走快取：以生物為中心的 (2r+1)×(2r+1) 可走性視窗，
// r 取視野半寬減一。尋路熱路徑查這張表，不打地圖。
const (
	maxWalkCacheWidth  = maxViewportX - 1
	maxWalkCacheHeight = maxViewportY - 1
	mapWalkWidth       = maxWalkCacheWidth*2 + 1
	mapWalkHeight      = maxWalkCacheHeight*2 + 1
)

// CacheState GetWalkCache 的三值結果。
type CacheState int8

const (
	CacheBlocked    CacheState = 0
	CacheWalkable   CacheState = 1
	CacheOutOfRange CacheState = 2
)

// UpdateMapCache 以目前位置為中心整張重建。
func (c *Creature) UpdateMapCache() {
	c.cacheLoaded = true
	c.cachePos = c.Pos
	for dy := int32(-maxWalkCacheHeight); dy <= maxWalkCacheHeight; dy++ {
		for dx := int32(-maxWalkCacheWidth); dx <= maxWalkCacheWidth; dx++ {
			c.updateTileCacheAt(dx, dy)
		}
	}
}

func (c *Creature) updateTileCacheAt(dx, dy int32) {
	pos := Position{X: c.Pos.X + dx, Y: c.Pos.Y + dy, Z: c.Pos.Z}
	c.walkCache[maxWalkCacheHeight+dy][maxWalkCacheWidth+dx] = c.world.CanWalkTo(c, pos)
}

// UpdateTileCache 單點修補。快取未載入、不同樓層或視窗外的通知直接丟棄。
func (c *Creature) UpdateTileCache(pos Position) {
	if !c.cacheLoaded || pos.Z != c.Pos.Z {
		return
	}
	dx := pos.X - c.Pos.X
	dy := pos.Y - c.Pos.Y
	if abs32(dx) <= maxWalkCacheWidth && abs32(dy) <= maxWalkCacheHeight {
		c.updateTileCacheAt(dx, dy)
	}
}

// GetWalkCache 三值查詢：自己站的格永遠可走；樓層不符視為阻擋；
// 視窗外（或快取未啟用）回報 out-of-range，呼叫端退回慢速地圖查詢。
func (c *Creature) GetWalkCache(pos Position) CacheState {
	if !c.useCache || !c.cacheLoaded {
		return CacheOutOfRange
	}
	if pos.Z != c.Pos.Z {
		return CacheBlocked
	}
	if pos == c.Pos {
		return CacheWalkable
	}
	dx := pos.X - c.Pos.X
	dy := pos.Y - c.Pos.Y
	if abs32(dx) <= maxWalkCacheWidth && abs32(dy) <= maxWalkCacheHeight {
		if c.walkCache[maxWalkCacheHeight+dy][maxWalkCacheWidth+dx] {
			return CacheWalkable
		}
		return CacheBlocked
	}
	return CacheOutOfRange
}

// shiftMapCache 自己移動一格後平移快取並補算新露出的那一排。
// 斜向或換樓層不平移，整張重建（保守但必然正確）。
func (c *Creature) shiftMapCache(oldPos, newPos Position) {
	if !c.cacheLoaded {
		return
	}
	if oldPos.Z != newPos.Z || (oldPos.X != newPos.X && oldPos.Y != newPos.Y) {
		c.UpdateMapCache()
		return
	}
	c.cachePos = newPos

	switch {
	case newPos.Y < oldPos.Y: // 往北：列往南移，補最北排
		for y := mapWalkHeight - 1; y > 0; y-- {
			c.walkCache[y] = c.walkCache[y-1]
		}
		for dx := int32(-maxWalkCacheWidth); dx <= maxWalkCacheWidth; dx++ {
			c.updateTileCacheAt(dx, -maxWalkCacheHeight)
		}
	case newPos.Y > oldPos.Y: // 往南
		for y := 0; y < mapWalkHeight-1; y++ {
			c.walkCache[y] = c.walkCache[y+1]
		}
		for dx := int32(-maxWalkCacheWidth); dx <= maxWalkCacheWidth; dx++ {
			c.updateTileCacheAt(dx, maxWalkCacheHeight)
		}
	case newPos.X > oldPos.X: // 往東：欄往西移，補最東欄
		for y := 0; y < mapWalkHeight; y++ {
			copy(c.walkCache[y][:mapWalkWidth-1], c.walkCache[y][1:])
		}
		for dy := int32(-maxWalkCacheHeight); dy <= maxWalkCacheHeight; dy++ {
			c.updateTileCacheAt(maxWalkCacheWidth, dy)
		}
	case newPos.X < oldPos.X: // 往西
		for y := 0; y < mapWalkHeight; y++ {
			copy(c.walkCache[y][1:], c.walkCache[y][:mapWalkWidth-1])
		}
		for dy := int32(-maxWalkCacheHeight); dy <= maxWalkCacheHeight; dy++ {
			c.updateTileCacheAt(-maxWalkCacheWidth, dy)
		}
	}
}
