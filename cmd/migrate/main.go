package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"

	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/config"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/db"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/logger"
	"github.com/jmzanetis-cmyk/mycarconcierge-sub001/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "goose command: up, up-by-one, down, redo, status, version")
	dir := flag.String("dir", migrate.DefaultDir, "directory holding the SQL migrations")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		logg.Error(context.Background(), "failed to unwrap sql db", err)
		os.Exit(1)
	}

	ctx := logg.WithFields(context.Background(), map[string]any{
		"command": *cmd,
		"dir":     *dir,
	})
	if err := migrate.Run(ctx, sqlDB, *dir, *cmd, flag.Args()...); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration command complete")
}
