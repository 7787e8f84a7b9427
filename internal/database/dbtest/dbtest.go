// Package dbtest opens a migrated in-memory SQLite database for tests.
package dbtest

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"meetingrooms/internal/config"
	"meetingrooms/internal/database"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Connect(config.DatabaseConfig{URL: ":memory:"}, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
