package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"linkboard/internal/middleware"

	"gorm.io/gorm"
)

// Migrate brings the schema up to date for the connected dialect.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(PersistentModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	middleware.Logger.InfoContext(ctx, "Database migration completed",
		slog.String("driver", db.Dialector.Name()),
		slog.Int("models", len(PersistentModels())),
	)
	return nil
}

// TableNames lists the migrated tables, children first, for truncation in
// seed and test tooling.
func TableNames(db *gorm.DB) ([]string, error) {
	modelsList := PersistentModels()
	names := make([]string, 0, len(modelsList))
	for i := len(modelsList) - 1; i >= 0; i-- {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(modelsList[i]); err != nil {
			return nil, fmt.Errorf("parse model: %w", err)
		}
		names = append(names, stmt.Schema.Table)
	}
	return names, nil
}

// Truncate removes every row from the migrated tables.
func Truncate(ctx context.Context, db *gorm.DB) error {
	tables, err := TableNames(db)
	if err != nil {
		return err
	}
	if db.Dialector.Name() == "postgres" {
		return db.WithContext(ctx).Exec("TRUNCATE TABLE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE").Error
	}
	for _, table := range tables {
		if err := db.WithContext(ctx).Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
