package main // Entry point package

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/michels-travel/internal/bootstrap"
	"github.com/iliyamo/michels-travel/internal/config"
	"github.com/iliyamo/michels-travel/internal/database"
	"github.com/iliyamo/michels-travel/internal/logger"
)

func main() {
	cfg := config.Load() // Load environment config
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "michels-travel-api"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}
	defer app.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = database.Migrate(migrateCtx, app.DB)
	cancel()
	if err != nil {
		log.Fatal("migrate failed", "error", err)
	}

	addr := ":" + cfg.Port
	log.Info("listening", "addr", addr, "env", cfg.Env)
	if err := bootstrap.Serve(ctx, app.Router(), addr); err != nil {
		log.Error("server stopped", "error", err)
		return
	}
	log.Info("server stopped")
}
