package database

import (
	"fmt"

	"gorm.io/gorm"

	"meetingrooms/internal/domain"
)

const reservationOverlapConstraint = "reservations_no_overlap"

// Postgres-only guards; SQLite relies on the application-level checks.
var postgresConstraints = []string{
	`CREATE EXTENSION IF NOT EXISTS btree_gist`,
	`DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_valid_interval') THEN
    ALTER TABLE reservations ADD CONSTRAINT reservations_valid_interval CHECK (start_at < end_at);
  END IF;
END $$`,
	`DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '` + reservationOverlapConstraint + `') THEN
    ALTER TABLE reservations ADD CONSTRAINT ` + reservationOverlapConstraint + `
      EXCLUDE USING gist (room_id WITH =, tstzrange(start_at, end_at, '[)') WITH &&)
      WHERE (status = 'active');
  END IF;
END $$`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.User{}, &domain.Room{}, &domain.Reservation{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if !IsPostgres(db) {
		return nil
	}
	for _, stmt := range postgresConstraints {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply constraint: %w", err)
		}
	}
	return nil
}
