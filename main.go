/*
Package main
File: main.go
Description: Server entry point. Loads the catalog and the save slot, starts the
real-time WebSocket hub, and runs the heartbeats that keep the economy alive:
the economy tick, the market tick and the autosave.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/everforgeworks/chaos-engine/internal/api"
	"github.com/everforgeworks/chaos-engine/internal/config"
	"github.com/everforgeworks/chaos-engine/internal/game"
	"github.com/everforgeworks/chaos-engine/internal/storage"
)

func main() {
	configPath := flag.String("config", "server.yaml", "path to the server config file")
	exportPath := flag.String("export", "", "write the save slot to this file and exit")
	importPath := flag.String("import", "", "load a save file into the save slot and exit")
	flag.Parse()

	// 1. Load server configuration (defaults < YAML < environment)
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Config Fail: %v", err)
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Config Fail: %v", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// 2. Load the balance catalog (embedded unless catalog_path is set)
	cat, err := game.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Catalog Fail: %v", err)
	}

	// 3. Open the save slot
	db, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Storage Fail: %v", err)
	}
	defer db.Close()
	slot := storage.NewSQLiteSlot(db, cfg.SaveSlot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Initialize the Hub and the Engine; the Hub renders every engine event
	hub := api.NewHub(logger)
	go hub.Run(ctx)
	engine := game.NewEngine(cat, game.Options{Notifier: hub, Logger: logger})
	server := api.NewServer(engine, hub, slot, api.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		ClickRate:     cfg.ClickRate,
		ClickBurst:    cfg.ClickBurst,
		Logger:        logger,
	})

	// 5. Offline tools: move saves between the slot and a file
	switch {
	case *exportPath != "":
		if err := exportSlot(ctx, slot, *exportPath); err != nil {
			log.Fatalf("Export Fail: %v", err)
		}
		logger.Info("save exported", "path", *exportPath)
		return
	case *importPath != "":
		if err := importSlot(ctx, engine, server, *importPath); err != nil {
			log.Fatalf("Import Fail: %v", err)
		}
		logger.Info("save imported", "path", *importPath, "slot", cfg.SaveSlot)
		return
	}

	// 6. Resume the saved game and credit the time spent away
	if err := resume(ctx, engine, slot, logger); err != nil {
		log.Fatalf("Save Fail: %v", err)
	}

	// 7. THE HEARTBEATS
	go runEvery(ctx, cfg.TickInterval, func() { engine.Tick() })
	go runEvery(ctx, cfg.MarketInterval, func() { engine.MarketTick() })
	go runEvery(ctx, cfg.AutosaveInterval, func() {
		if err := server.Save(ctx); err != nil {
			logger.Error("autosave failed", "err", err)
		}
	})

	// 8. Hot-reload logic: SIGHUP re-reads the catalog without a restart
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGHUP)
		defer signal.Stop(sigChan)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sigChan:
				next, err := game.LoadCatalog(cfg.CatalogPath)
				if err != nil {
					logger.Error("catalog reload rejected", "err", err)
					continue
				}
				engine.SetCatalog(next)
			}
		}
	}()

	// 9. Start the Server
	httpServer := &http.Server{Addr: cfg.Addr, Handler: server.Routes()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("CHAOS ENGINE server live", "addr", cfg.Addr, "slot", cfg.SaveSlot)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}

	// 10. Final save on the way out
	saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Save(saveCtx); err != nil {
		logger.Error("final save failed", "err", err)
		return
	}
	logger.Info("game saved, shutting down")
}

// resume loads the slot into the engine and applies offline progress.
// An empty slot starts a fresh game.
func resume(ctx context.Context, engine *game.Engine, slot storage.Slot, logger *slog.Logger) error {
	data, ok, err := slot.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		logger.Info("no save found, starting a new game")
		return nil
	}
	report, err := engine.Load(data)
	if errors.Is(err, game.ErrMalformedSave) {
		// Keep the broken save on disk for inspection; play continues on a fresh game.
		logger.Error("save is unreadable, starting a new game", "err", err)
		return nil
	}
	if err != nil {
		return err
	}
	gained := engine.ApplyOfflineProgress(engine.SinceLastSave())
	logger.Info("save loaded", "dropped", len(report.Dropped), "offline_gain", gained)
	return nil
}

func exportSlot(ctx context.Context, slot storage.Slot, path string) error {
	data, ok, err := slot.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("save slot is empty")
	}
	return storage.ExportFile(path, data)
}

func importSlot(ctx context.Context, engine *game.Engine, server *api.Server, path string) error {
	data, err := storage.ImportFile(path)
	if err != nil {
		return err
	}
	if _, err := engine.Load(data); err != nil {
		return err
	}
	return server.Save(ctx)
}

func runEvery(ctx context.Context, d time.Duration, fn func()) {
	ticker := time.NewTicker(d)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
