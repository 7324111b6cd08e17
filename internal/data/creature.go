package data

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/greyfall/server/internal/world"
)

// HookRef 模板要掛的腳本事件：全域 Lua 函式名 + 事件種類。
type HookRef struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // think / death / kill / attack / combat_condition
}

// CreatureTemplate holds static data for a creature type loaded from YAML.
type CreatureTemplate struct {
	TemplateID     uint32    `yaml:"template_id"`
	Name           string    `yaml:"name"`
	Monster        bool      `yaml:"monster"`
	HP             int32     `yaml:"hp"`
	Speed          int32     `yaml:"speed"`
	Exp            uint64    `yaml:"exp"`
	FleeHP         int32     `yaml:"flee_hp"`
	TargetDistance int32     `yaml:"target_distance"` // >1 = 遠程保距
	Defense        int32     `yaml:"defense"`
	Armor          int32     `yaml:"armor"`
	LootDrop       bool      `yaml:"loot_drop"`
	SeeInvisible   bool      `yaml:"see_invisible"`
	Hooks          []HookRef `yaml:"hooks"`
}

// SpawnEntry defines where and how many creatures to spawn.
type SpawnEntry struct {
	TemplateID uint32 `yaml:"template_id"`
	X          int32  `yaml:"x"`
	Y          int32  `yaml:"y"`
	Z          int8   `yaml:"z"`
	Count      int    `yaml:"count"`
}

type creatureListFile struct {
	Creatures []CreatureTemplate `yaml:"creatures"`
	Spawns    []SpawnEntry       `yaml:"spawns"`
}

// CreatureTable holds all creature templates indexed by TemplateID.
type CreatureTable struct {
	templates map[uint32]*CreatureTemplate
	spawns    []SpawnEntry
}

// LoadCreatureTable loads creature templates and spawn points from a YAML file.
func LoadCreatureTable(path string) (*CreatureTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read creature_list: %w", err)
	}
	var f creatureListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse creature_list: %w", err)
	}
	t := &CreatureTable{templates: make(map[uint32]*CreatureTemplate, len(f.Creatures))}
	for i := range f.Creatures {
		tmpl := &f.Creatures[i]
		t.templates[tmpl.TemplateID] = tmpl
	}
	t.spawns = f.Spawns
	return t, nil
}

// Get returns a creature template by ID, or nil if not found.
func (t *CreatureTable) Get(templateID uint32) *CreatureTemplate {
	return t.templates[templateID]
}

// Count returns the number of loaded templates.
func (t *CreatureTable) Count() int {
	return len(t.templates)
}

// Spawns returns the spawn list.
func (t *CreatureTable) Spawns() []SpawnEntry {
	return t.spawns
}

// Instantiate 把模板攤平成一隻尚未進世界的生物。
func (t *CreatureTemplate) Instantiate() *world.Creature {
	c := world.NewCreature(t.Name)
	c.IsMonster = t.Monster
	c.MaxHealth = t.HP
	c.Health = t.HP
	c.BaseSpeed = t.Speed
	c.Experience = t.Exp
	c.FleeHealth = t.FleeHP
	c.TargetDistance = t.TargetDistance
	c.Defense = t.Defense
	c.Armor = t.Armor
	c.LootDrop = t.LootDrop
	c.SeeInvisible = t.SeeInvisible
	if t.Monster {
		c.SetUseCache(true)
	}
	return c
}
