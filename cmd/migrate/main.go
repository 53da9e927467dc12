// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"fmt"
	"log"
	"strings"

	"linkboard/internal/config"
	"linkboard/internal/database"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate/main.go <up|status|truncate>")
}

func run() error {
	if err := config.BindFlags(pflag.CommandLine); err != nil {
		return err
	}
	pflag.Parse()
	if pflag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(pflag.Arg(0))) {
	case "up":
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		log.Println("schema migrated")
	case "status":
		tables, err := database.TableNames(db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		for _, table := range tables {
			log.Printf("table=%s present=%t", table, db.Migrator().HasTable(table))
		}
	case "truncate":
		if cfg.IsProduction() {
			return fmt.Errorf("refusing to truncate in %s", cfg.Env)
		}
		if err := database.Truncate(ctx, db); err != nil {
			return fmt.Errorf("truncate failed: %w", err)
		}
		log.Println("all tables truncated")
	default:
		return usage()
	}

	return nil
}
