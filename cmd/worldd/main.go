package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/greyfall/server/internal/config"
	coresys "github.com/greyfall/server/internal/core/system"
	"github.com/greyfall/server/internal/data"
	"github.com/greyfall/server/internal/scripting"
	"github.com/greyfall/server/internal/system"
	"github.com/greyfall/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           Greyfall  worldd v0.1.0         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        生物模擬核心 · Go 世界伺服器       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("GREYFALL_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Load data tables
	printSection("資料表")

	creatureTable, err := data.LoadCreatureTable(filepath.Join(cfg.Server.DataDir, "yaml", "creature_list.yaml"))
	if err != nil {
		return fmt.Errorf("load creature table: %w", err)
	}
	printStat("生物模板", creatureTable.Count())

	gameMap, err := data.LoadMapData(
		filepath.Join(cfg.Server.DataDir, "yaml", "map_list.yaml"),
		filepath.Join(cfg.Server.DataDir, "map"))
	if err != nil {
		return fmt.Errorf("load map data: %w", err)
	}
	printOK("地圖載入完成")

	// 4. Lua hook engine
	printSection("腳本引擎")

	engine, err := scripting.NewEngine(cfg.Server.ScriptDir, log)
	if err != nil {
		return fmt.Errorf("init scripting: %w", err)
	}
	defer engine.Close()
	printOK("Lua 引擎啟動")

	// 5. World state
	tunables := world.Tunables{
		HostileWindowMs:     cfg.Gameplay.HostileWindow.Milliseconds(),
		DrunkStepChance:     cfg.Gameplay.DrunkStepChance,
		SummonDespawnRadius: cfg.Gameplay.SummonDespawnRadius,
		SummonDespawnFloors: cfg.Gameplay.SummonDespawnFloors,
		PathRecomputeMs:     cfg.Gameplay.PathRecomputeDelay.Milliseconds(),
		MaxPathSearchDist:   cfg.Gameplay.MaxPathSearchDist,
		SpeedCurveA:         cfg.Speed.CurveA,
		SpeedCurveB:         cfg.Speed.CurveB,
		SpeedCurveC:         cfg.Speed.CurveC,
	}
	state := world.NewState(gameMap, tunables, engine, log)
	state.SeedRand(time.Now().UnixNano())

	// 6. Spawn creatures
	spawned := spawnCreatures(state, creatureTable, engine, log)
	printStat("生物進場", spawned)

	// 7. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewConditionTickSystem(state))
	runner.Register(system.NewCreatureThinkSystem(state, log))
	runner.Register(system.NewCorpseCleanupSystem(state))

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Network.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			// 先推進虛擬時鐘與排程任務（步行事件、延遲死亡），再跑系統
			state.Tick(cfg.Network.TickRate.Milliseconds())
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			log.Info("伺服器已停止")
			return nil
		}
	}
}

// spawnCreatures 依 spawn 表把生物放進世界並掛上腳本事件。
func spawnCreatures(state *world.State, table *data.CreatureTable, engine *scripting.Engine, log *zap.Logger) int {
	registered := make(map[string]bool)
	spawned := 0
	for _, entry := range table.Spawns() {
		tmpl := table.Get(entry.TemplateID)
		if tmpl == nil {
			log.Warn("spawn 引用不存在的模板", zap.Uint32("template_id", entry.TemplateID))
			continue
		}
		count := entry.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			c := tmpl.Instantiate()
			for _, hook := range tmpl.Hooks {
				bit, ok := scripting.EventBitFromKind(hook.Kind)
				if !ok {
					log.Warn("未知的事件種類", zap.String("kind", hook.Kind))
					continue
				}
				if !registered[hook.Name] {
					if err := engine.RegisterEvent(hook.Name, bit); err != nil {
						log.Error("註冊腳本事件失敗", zap.String("fn", hook.Name), zap.Error(err))
						continue
					}
					registered[hook.Name] = true
				}
				if err := engine.Attach(c, hook.Name); err != nil {
					log.Error("掛載腳本事件失敗", zap.String("fn", hook.Name), zap.Error(err))
				}
			}
			pos := world.Position{X: entry.X, Y: entry.Y, Z: entry.Z}
			if state.AddCreature(c, pos) {
				spawned++
			}
		}
	}
	return spawned
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
