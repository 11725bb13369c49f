// Package main provides a CLI tool for managing the local session store schema.
package main

import (
	"flag"
	"fmt"

	"github.com/student-ai-platform/internal/config"
	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/storage"
)

func main() {
	var (
		action = flag.String("action", "up", "Migration action: up, down, version")
		dbPath = flag.String("db", "", "Session store path (defaults to TOKEN_DB_PATH)")
	)
	flag.Parse()

	logger := logging.InitGlobalLogger(logging.LevelInfo, logging.FormatText).WithComponent("migrate")

	path := *dbPath
	if path == "" {
		cfg, err := config.LoadConfig()
		if err != nil {
			logger.Fatalf("Failed to load config: %v", err)
		}
		path = cfg.Session.TokenDBPath
	}

	if err := runMigrations(logger.WithField("db", path), path, *action); err != nil {
		logger.Fatalf("Session store migration failed: %v", err)
	}
}

func runMigrations(logger *logging.Logger, path, action string) error {
	switch action {
	case "up":
		logger.Info("Migrating session store")
		if err := storage.RunMigrations(path); err != nil {
			return err
		}
		logger.Info("Session store migrations completed successfully")

	case "down":
		logger.Info("Rolling back session store")
		if err := storage.RollbackMigrations(path); err != nil {
			return err
		}
		logger.Info("Session store migration rolled back successfully")

	case "version":
		version, dirty, err := storage.MigrationVersion(path)
		if err != nil {
			return err
		}
		logger.WithFields(map[string]interface{}{
			"version": version,
			"dirty":   dirty,
		}).Info("Current session store version")

	default:
		return fmt.Errorf("unknown action: %s", action)
	}

	return nil
}
