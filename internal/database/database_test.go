package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"linkboard/internal/config"
	"linkboard/internal/models"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openMemory(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), GormConfig())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestConfigurePool(t *testing.T) {
	db := openMemory(t)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}
	require.NoError(t, configurePool(db, cfg))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 10, sqlDB.Stats().MaxOpenConnections)
}

func TestDialector(t *testing.T) {
	tests := []struct {
		driver   string
		expected string
		wantErr  bool
	}{
		{config.DriverPostgres, "postgres", false},
		{config.DriverMySQL, "mysql", false},
		{config.DriverSQLite, "sqlite", false},
		{"oracle", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := Dialector(&config.Config{DBDriver: tt.driver, DBSQLitePath: ":memory:"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Name())
		})
	}
}

func TestMigrate_CreatesEveryTable(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, Migrate(context.Background(), db))

	tables, err := TableNames(db)
	require.NoError(t, err)
	assert.Len(t, tables, len(PersistentModels()))
	for _, table := range tables {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
	assert.False(t, db.Migrator().HasColumn(&models.Post{}, "score"))
	assert.False(t, db.Migrator().HasColumn(&models.Post{}, "my_vote"))
}

func TestTruncate(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db))

	require.NoError(t, db.Create(&models.User{Username: "alice", Email: "a@example.com", PasswordHash: "x", Status: models.UserStatusActive}).Error)
	require.NoError(t, Truncate(ctx, db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestIsUniqueViolation(t *testing.T) {
	db := openMemory(t)
	require.NoError(t, Migrate(context.Background(), db))

	u := models.User{Username: "bob", Email: "b@example.com", PasswordHash: "x", Status: models.UserStatusActive}
	require.NoError(t, db.Create(&u).Error)
	dup := models.User{Username: "bob", Email: "other@example.com", PasswordHash: "x", Status: models.UserStatusActive}
	err := db.Create(&dup).Error

	assert.True(t, IsUniqueViolation(err))
	assert.True(t, IsUniqueViolation(fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestIsTransientConflict(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unique violation", &pgconn.PgError{Code: "23505"}, true},
		{"translated duplicate", gorm.ErrDuplicatedKey, true},
		{"postgres serialization failure", &pgconn.PgError{Code: "40001"}, true},
		{"postgres deadlock", fmt.Errorf("tx: %w", &pgconn.PgError{Code: "40P01"}), true},
		{"mysql deadlock", &mysqldriver.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"}, true},
		{"mysql lock wait timeout", &mysqldriver.MySQLError{Number: 1205}, true},
		{"mysql syntax error", &mysqldriver.MySQLError{Number: 1064}, false},
		{"foreign key", &pgconn.PgError{Code: "23503"}, false},
		{"plain", errors.New("connection reset"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransientConflict(tt.err))
		})
	}
}
