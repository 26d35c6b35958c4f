package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"tooly/cmd"
	"tooly/config"
	"tooly/database"

	log "github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "migrate":
			if err := handleMigrationCommand(); err != nil {
				log.Fatal("Migration error: ", err)
			}
			return
		case "import-legacy":
			if err := handleImportCommand(); err != nil {
				log.Fatal("Import error: ", err)
			}
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, shutting down gracefully...")
		cancel()
	}()

	if err := cmd.Run(ctx); err != nil {
		log.Fatal("Application error: ", err)
	}
}

func handleMigrationCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: tooly migrate [up|down|status] [args...]")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.ConfigureLogging()
	if cfg.StorageBackend != config.StoragePostgres {
		return fmt.Errorf("migrations need STORAGE_BACKEND=%s", config.StoragePostgres)
	}
	databaseURL := cfg.GetDatabaseURL()

	switch os.Args[2] {
	case "up":
		return database.MigrateUp(databaseURL)
	case "down":
		steps := 1
		if len(os.Args) > 3 {
			steps, err = strconv.Atoi(os.Args[3])
			if err != nil {
				return fmt.Errorf("invalid step count %q: %w", os.Args[3], err)
			}
		}
		return database.MigrateDown(databaseURL, steps)
	case "status":
		version, dirty, err := database.MigrateStatus(databaseURL)
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("Migration status")
		return nil
	default:
		return fmt.Errorf("unknown migration command: %s", os.Args[2])
	}
}

func handleImportCommand() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("usage: tooly import-legacy <file>")
	}

	result, err := cmd.ImportLegacy(context.Background(), os.Args[2])
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"runID":     result.RunID,
		"state":     result.State,
		"counts":    result.Counts,
		"conflicts": len(result.Conflicts),
	}).Info("Legacy import finished")
	return nil
}
