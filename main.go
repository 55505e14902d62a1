package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"health-monitor/confs"
	"health-monitor/db"
	"health-monitor/logging"
	"health-monitor/server"
	"health-monitor/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// load config
	cfg, err := confs.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("error loading config")
	}

	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		FilePath:   cfg.Logging.FilePath,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	gin.SetMode(cfg.Server.Mode)

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *confs.Config) error {
	database, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	// missing models are logged and answered with a placeholder
	recommender := services.LoadRecommender(cfg.Models.Dir)

	srv, err := server.NewServer(cfg, database, recommender)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx)
}
