package data

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/greyfall/server/internal/world"
)

// FloorInfo holds metadata for one floor, loaded from map_list.yaml.
type FloorInfo struct {
	Floor       int8   `yaml:"floor"`
	Name        string `yaml:"name"`
	StartX      int32  `yaml:"start_x"`
	EndX        int32  `yaml:"end_x"`
	StartY      int32  `yaml:"start_y"`
	EndY        int32  `yaml:"end_y"`
	GroundSpeed int32  `yaml:"ground_speed"` // 0 = 預設
}

// Tile flag constants，tile 檔每格一個位元組。
const (
	tileGround          byte = 0x01 // 有地面（缺位 = 虛空）
	tileBlockSolid      byte = 0x02
	tileBlockPath       byte = 0x04
	tileBlockProjectile byte = 0x08
	tileFieldMask       byte = 0x30
	tileFieldFire       byte = 0x10
	tileFieldPoison     byte = 0x20
	tileFieldEnergy     byte = 0x30
)

type mapListFile struct {
	Floors []FloorInfo `yaml:"floors"`
}

// LoadMapData loads floor metadata from YAML and tile grids from text
// files ({floor}.txt in tileDir), producing a populated GameMap.
func LoadMapData(yamlPath, tileDir string) (*world.GameMap, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var file mapListFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}

	gameMap := world.NewGameMap()
	for _, info := range file.Floors {
		if err := loadFloor(gameMap, tileDir, info); err != nil {
			return nil, fmt.Errorf("floor %d: %w", info.Floor, err)
		}
	}
	return gameMap, nil
}

// loadFloor reads a CSV tile file: each line is a row (Y), columns are X.
func loadFloor(gameMap *world.GameMap, dir string, info FloorInfo) error {
	path := filepath.Join(dir, strconv.Itoa(int(info.Floor))+".txt")
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	y := info.StartY
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if y > info.EndY {
			return fmt.Errorf("too many rows in %s", path)
		}
		cols := strings.Split(line, ",")
		for i, col := range cols {
			x := info.StartX + int32(i)
			if x > info.EndX {
				return fmt.Errorf("row %d too wide in %s", y, path)
			}
			v, err := strconv.ParseUint(strings.TrimSpace(col), 10, 8)
			if err != nil {
				return fmt.Errorf("bad tile value at %d,%d in %s: %w", x, y, path, err)
			}
			flags := byte(v)
			if flags&tileGround == 0 {
				continue // 虛空，不建 tile
			}
			tile := &world.Tile{
				GroundSpeed:     info.GroundSpeed,
				BlockSolid:      flags&tileBlockSolid != 0,
				BlockPath:       flags&tileBlockPath != 0,
				BlockProjectile: flags&tileBlockProjectile != 0,
				Field:           fieldFromFlags(flags),
			}
			gameMap.SetTile(world.Position{X: x, Y: y, Z: info.Floor}, tile)
		}
		y++
	}
	return scanner.Err()
}

func fieldFromFlags(flags byte) world.FieldType {
	switch flags & tileFieldMask {
	case tileFieldFire:
		return world.FieldFire
	case tileFieldPoison:
		return world.FieldPoison
	case tileFieldEnergy:
		return world.FieldEnergy
	}
	return world.FieldNone
}
