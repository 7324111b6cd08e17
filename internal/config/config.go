package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Network  NetworkConfig  `toml:"network"`
	Gameplay GameplayConfig `toml:"gameplay"`
	Speed    SpeedConfig    `toml:"speed"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	ID        int    `toml:"id"`
	ScriptDir string `toml:"script_dir"`
	DataDir   string `toml:"data_dir"`
	StartTime int64  // set at boot, not from config
}

type NetworkConfig struct {
	TickRate time.Duration `toml:"tick_rate"`
}

// GameplayConfig 戰鬥與移動相關的可調參數。
type GameplayConfig struct {
	HostileWindow       time.Duration `toml:"hostile_window"`        // damage-map entries stay "recent" this long
	DrunkStepChance     int           `toml:"drunk_step_chance"`     // percent chance a drunk step is randomized
	SummonDespawnRadius int32         `toml:"summon_despawn_radius"` // tiles from master before a summon poofs
	SummonDespawnFloors int8          `toml:"summon_despawn_floors"` // floors from master before a summon poofs
	PathRecomputeDelay  time.Duration `toml:"path_recompute_delay"`  // minimum age before a follow path refresh
	MaxPathSearchDist   int32         `toml:"max_path_search_dist"`
}

// SpeedConfig 步行時間對數曲線的係數（duration 公式見 world.StepDuration）。
type SpeedConfig struct {
	CurveA float64 `toml:"curve_a"`
	CurveB float64 `toml:"curve_b"`
	CurveC float64 `toml:"curve_c"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:      "Greyfall",
			ID:        1,
			ScriptDir: "scripts",
			DataDir:   "data",
		},
		Network: NetworkConfig{
			TickRate: 100 * time.Millisecond,
		},
		Gameplay: GameplayConfig{
			HostileWindow:       60 * time.Second,
			DrunkStepChance:     25,
			SummonDespawnRadius: 30,
			SummonDespawnFloors: 2,
			PathRecomputeDelay:  2 * time.Second,
			MaxPathSearchDist:   12,
		},
		Speed: SpeedConfig{
			CurveA: 857.36,
			CurveB: 261.29,
			CurveC: -4795.01,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
