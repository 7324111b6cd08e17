package world

import "testing"

func TestGetWalkCacheStates(t *testing.T) {
	s := newTestState()
	m := spawnMonster(t, s, "rat", 30, 30)

	if got := m.GetWalkCache(m.Pos); got != CacheWalkable {
		t.Fatalf("own tile = %v, want walkable", got)
	}

	s.SetTile(Position{X: 33, Y: 30, Z: 7}, wallTile())
	if got := m.GetWalkCache(Position{X: 33, Y: 30, Z: 7}); got != CacheBlocked {
		t.Fatalf("wall tile = %v, want blocked", got)
	}

	// 視窗半寬是 10：dx=10 還在快取裡，dx=11 出界
	if got := m.GetWalkCache(Position{X: 40, Y: 30, Z: 7}); got != CacheWalkable {
		t.Fatalf("edge tile = %v, want walkable", got)
	}
	if got := m.GetWalkCache(Position{X: 41, Y: 30, Z: 7}); got != CacheOutOfRange {
		t.Fatalf("outside tile = %v, want out-of-range", got)
	}

	if got := m.GetWalkCache(Position{X: 30, Y: 30, Z: 6}); got != CacheBlocked {
		t.Fatalf("other floor = %v, want blocked", got)
	}

	// 沒開快取的生物一律 out-of-range，呼叫端退回地圖查詢
	p := spawn(t, s, "bystander", 20, 20)
	if got := p.GetWalkCache(p.Pos); got != CacheOutOfRange {
		t.Fatalf("cache disabled = %v, want out-of-range", got)
	}
}

func TestWalkCacheTracksOccupancy(t *testing.T) {
	s := newTestState()
	m := spawnMonster(t, s, "rat", 30, 30)

	other := spawn(t, s, "blocker", 31, 30)
	if got := m.GetWalkCache(other.Pos); got != CacheBlocked {
		t.Fatalf("occupied tile = %v, want blocked", got)
	}

	if ret := s.MoveCreature(other, East); ret != RetNoError {
		t.Fatalf("move failed: %v", ret)
	}
	if got := m.GetWalkCache(Position{X: 31, Y: 30, Z: 7}); got != CacheWalkable {
		t.Fatalf("vacated tile = %v, want walkable", got)
	}
	if got := m.GetWalkCache(Position{X: 32, Y: 30, Z: 7}); got != CacheBlocked {
		t.Fatalf("newly occupied tile = %v, want blocked", got)
	}

	s.RemoveCreature(other)
	if got := m.GetWalkCache(Position{X: 32, Y: 30, Z: 7}); got != CacheWalkable {
		t.Fatalf("tile after removal = %v, want walkable", got)
	}
}

// 平移路徑與整張重建必須得到一樣的快取，八個方向都是。
func TestShiftMatchesFullRebuild(t *testing.T) {
	walls := []Position{
		{X: 25, Y: 26, Z: 7},
		{X: 36, Y: 33, Z: 7},
		{X: 30, Y: 40, Z: 7},
		{X: 21, Y: 30, Z: 7},
		{X: 39, Y: 21, Z: 7},
		{X: 28, Y: 36, Z: 7},
		{X: 33, Y: 24, Z: 7},
		{X: 40, Y: 30, Z: 7},
	}

	dirs := []Direction{North, East, South, West, SouthWest, SouthEast, NorthWest, NorthEast}
	for _, dir := range dirs {
		s := newTestState()
		for _, w := range walls {
			s.SetTile(w, wallTile())
		}
		m := spawnMonster(t, s, "rat", 30, 30)

		if ret := s.MoveCreature(m, dir); ret != RetNoError {
			t.Fatalf("dir %d: move failed: %v", dir, ret)
		}
		shifted := m.walkCache
		m.UpdateMapCache()
		if shifted != m.walkCache {
			t.Fatalf("dir %d: shifted cache differs from full rebuild", dir)
		}
	}
}

func TestShiftRecomputesExposedEdge(t *testing.T) {
	s := newTestState()
	m := spawnMonster(t, s, "rat", 30, 30)

	// 牆在視窗外一格；往東走後它落在新視窗的最東欄
	s.SetTile(Position{X: 41, Y: 30, Z: 7}, wallTile())
	if got := m.GetWalkCache(Position{X: 41, Y: 30, Z: 7}); got != CacheOutOfRange {
		t.Fatalf("pre-move = %v, want out-of-range", got)
	}

	if ret := s.MoveCreature(m, East); ret != RetNoError {
		t.Fatalf("move failed: %v", ret)
	}
	if got := m.GetWalkCache(Position{X: 41, Y: 30, Z: 7}); got != CacheBlocked {
		t.Fatalf("post-move edge = %v, want blocked", got)
	}
}

func TestTeleportRebuildsCache(t *testing.T) {
	s := newTestState()
	s.SetTile(Position{X: 12, Y: 10, Z: 7}, wallTile())
	m := spawnMonster(t, s, "rat", 30, 30)

	if ret := s.Teleport(m, Position{X: 10, Y: 10, Z: 7}); ret != RetNoError {
		t.Fatalf("teleport failed: %v", ret)
	}
	if got := m.GetWalkCache(m.Pos); got != CacheWalkable {
		t.Fatalf("own tile after teleport = %v, want walkable", got)
	}
	if got := m.GetWalkCache(Position{X: 12, Y: 10, Z: 7}); got != CacheBlocked {
		t.Fatalf("wall near destination = %v, want blocked", got)
	}
	if got := m.GetWalkCache(Position{X: 20, Y: 10, Z: 7}); got != CacheWalkable {
		t.Fatalf("recentered edge = %v, want walkable", got)
	}
	if got := m.GetWalkCache(Position{X: 30, Y: 30, Z: 7}); got != CacheOutOfRange {
		t.Fatalf("old center = %v, want out-of-range", got)
	}
}

func TestSetTilePatchesSpectatorCaches(t *testing.T) {
	s := newTestState()
	m := spawnMonster(t, s, "rat", 30, 30)

	pos := Position{X: 35, Y: 35, Z: 7}
	s.SetTile(pos, wallTile())
	if got := m.GetWalkCache(pos); got != CacheBlocked {
		t.Fatalf("after wall placed = %v, want blocked", got)
	}
	s.SetTile(pos, &Tile{})
	if got := m.GetWalkCache(pos); got != CacheWalkable {
		t.Fatalf("after wall cleared = %v, want walkable", got)
	}
}
