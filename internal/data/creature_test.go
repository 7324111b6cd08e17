package data

import (
	"os"
	"path/filepath"
	"testing"
)

const creatureYAML = `
creatures:
  - template_id: 1
    name: "Cave Rat"
    monster: true
    hp: 25
    speed: 110
    exp: 30
    flee_hp: 5
    defense: 2
    armor: 1
    loot_drop: true
    hooks:
      - name: on_monster_think
        kind: think
  - template_id: 2
    name: "Hunter Wisp"
    monster: true
    hp: 40
    speed: 130
    exp: 55
    target_distance: 4
    see_invisible: true

spawns:
  - template_id: 1
    x: 105
    y: 110
    z: 7
    count: 3
  - template_id: 2
    x: 120
    y: 115
    z: 7
    count: 1
`

func writeCreatureList(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "creature_list.yaml")
	if err := os.WriteFile(path, []byte(creatureYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCreatureTable(t *testing.T) {
	table, err := LoadCreatureTable(writeCreatureList(t))
	if err != nil {
		t.Fatal(err)
	}
	if table.Count() != 2 {
		t.Fatalf("templates = %d, want 2", table.Count())
	}

	rat := table.Get(1)
	if rat == nil || rat.Name != "Cave Rat" {
		t.Fatalf("template 1 = %+v", rat)
	}
	if rat.HP != 25 || rat.FleeHP != 5 || !rat.LootDrop {
		t.Fatalf("rat fields = %+v", rat)
	}
	if len(rat.Hooks) != 1 || rat.Hooks[0].Kind != "think" {
		t.Fatalf("rat hooks = %+v", rat.Hooks)
	}

	wisp := table.Get(2)
	if wisp.TargetDistance != 4 || !wisp.SeeInvisible {
		t.Fatalf("wisp fields = %+v", wisp)
	}
	if table.Get(99) != nil {
		t.Fatal("unknown template should be nil")
	}

	spawns := table.Spawns()
	if len(spawns) != 2 || spawns[0].Count != 3 || spawns[1].TemplateID != 2 {
		t.Fatalf("spawns = %+v", spawns)
	}
}

func TestInstantiateFlattensTemplate(t *testing.T) {
	table, err := LoadCreatureTable(writeCreatureList(t))
	if err != nil {
		t.Fatal(err)
	}

	c := table.Get(2).Instantiate()
	if c.Name != "Hunter Wisp" || !c.IsMonster {
		t.Fatalf("creature = %+v", c)
	}
	if c.Health != 40 || c.MaxHealth != 40 {
		t.Fatalf("health = %d/%d, want 40/40", c.Health, c.MaxHealth)
	}
	if c.BaseSpeed != 130 || c.TargetDistance != 4 || !c.SeeInvisible {
		t.Fatal("template fields not carried over")
	}

	// 兩隻實體要有各自的 ID
	d := table.Get(2).Instantiate()
	if c.ID == d.ID {
		t.Fatal("instances share an ID")
	}
}

func TestLoadCreatureTableMissingFile(t *testing.T) {
	if _, err := LoadCreatureTable(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}
