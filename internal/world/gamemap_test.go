package world

import "testing"

func TestIsWalkable(t *testing.T) {
	m := NewGameMap()
	m.SetTile(Position{X: 1, Y: 1, Z: 7}, &Tile{})
	m.SetTile(Position{X: 2, Y: 1, Z: 7}, &Tile{BlockSolid: true})
	m.SetTile(Position{X: 3, Y: 1, Z: 7}, &Tile{BlockPath: true})

	if !m.IsWalkable(Position{X: 1, Y: 1, Z: 7}) {
		t.Fatal("plain tile should be walkable")
	}
	if m.IsWalkable(Position{X: 2, Y: 1, Z: 7}) {
		t.Fatal("solid tile should block")
	}
	if m.IsWalkable(Position{X: 3, Y: 1, Z: 7}) {
		t.Fatal("path-blocked tile should block")
	}
	// tile 不存在 = 虛空
	if m.IsWalkable(Position{X: 9, Y: 9, Z: 7}) {
		t.Fatal("missing tile should block")
	}
}

func TestGroundSpeedFallsBackToDefault(t *testing.T) {
	m := NewGameMap()
	m.SetTile(Position{X: 1, Y: 1, Z: 7}, &Tile{GroundSpeed: 90})

	if got := m.GroundSpeed(Position{X: 1, Y: 1, Z: 7}); got != 90 {
		t.Fatalf("ground speed = %d, want 90", got)
	}
	if got := m.GroundSpeed(Position{X: 5, Y: 5, Z: 7}); got != 150 {
		t.Fatalf("default ground speed = %d, want 150", got)
	}
}

func TestIsSightClear(t *testing.T) {
	m := NewGameMap()
	for x := int32(0); x < 10; x++ {
		for y := int32(0); y < 10; y++ {
			m.SetTile(Position{X: x, Y: y, Z: 7}, &Tile{})
		}
	}

	from := Position{X: 1, Y: 5, Z: 7}
	to := Position{X: 8, Y: 5, Z: 7}
	if !m.IsSightClear(from, to) {
		t.Fatal("open line should be clear")
	}

	m.SetTile(Position{X: 4, Y: 5, Z: 7}, &Tile{BlockProjectile: true})
	if m.IsSightClear(from, to) {
		t.Fatal("projectile blocker should cut the line")
	}
	if !m.IsSightClear(from, Position{X: 3, Y: 5, Z: 7}) {
		t.Fatal("line short of the blocker should be clear")
	}

	// 端點本身不算阻擋
	if !m.IsSightClear(from, Position{X: 4, Y: 5, Z: 7}) {
		t.Fatal("blocker as endpoint should not count")
	}

	if m.IsSightClear(from, Position{X: 8, Y: 5, Z: 6}) {
		t.Fatal("cross-floor sight should be blocked")
	}
}

func TestSetTileNilDeletes(t *testing.T) {
	m := NewGameMap()
	pos := Position{X: 1, Y: 1, Z: 7}
	m.SetTile(pos, &Tile{})
	m.SetTile(pos, nil)
	if m.GetTile(pos) != nil {
		t.Fatal("nil SetTile should delete the tile")
	}
}
