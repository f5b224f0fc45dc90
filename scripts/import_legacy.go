package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"tableside/internal/models"
	"tableside/internal/repository"

	"github.com/rs/zerolog"
)

// legacyDump mirrors the browser localStorage export of the original demo:
// both collections serialized under their storage keys.
type legacyDump struct {
	Orders      []models.Order    `json:"orders"`
	CustomItems []models.MenuItem `json:"customItems"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		dumpPath = flag.String("dump", "localStorage.json", "path to the exported localStorage JSON")
		dataDir  = flag.String("data", "./data", "file store directory")
	)
	flag.Parse()

	data, err := os.ReadFile(*dumpPath)
	if err != nil {
		return fmt.Errorf("read dump: %w", err)
	}
	var dump legacyDump
	if err = json.Unmarshal(data, &dump); err != nil {
		return fmt.Errorf("parse dump: %w", err)
	}
	if len(dump.Orders) == 0 && len(dump.CustomItems) == 0 {
		return fmt.Errorf("dump contains no orders and no custom items")
	}

	fs, err := repository.NewFileStore(*dataDir, &logger)
	if err != nil {
		return fmt.Errorf("open file store: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if len(dump.Orders) > 0 {
		existing, err := fs.Orders().LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		merged := append(existing, dump.Orders...)
		if err := fs.Orders().SaveAll(ctx, merged); err != nil {
			return fmt.Errorf("save orders: %w", err)
		}
		logger.Info().Int("imported", len(dump.Orders)).Int("total", len(merged)).Msg("orders imported")
	}

	if len(dump.CustomItems) > 0 {
		existing, err := fs.MenuItems().LoadAll(ctx)
		if err != nil {
			return fmt.Errorf("load custom items: %w", err)
		}
		merged := append(existing, dump.CustomItems...)
		if err := fs.MenuItems().SaveAll(ctx, merged); err != nil {
			return fmt.Errorf("save custom items: %w", err)
		}
		logger.Info().Int("imported", len(dump.CustomItems)).Msg("custom items imported")
	}

	return nil
}
