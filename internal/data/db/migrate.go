package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/lattice-backend/internal/domain/study"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// =========================
		// Problems (one owner each)
		// =========================
		&study.Problem{},

		// =========================
		// Event-sourced practice history
		// =========================
		&study.Attempt{},
		&study.Snapshot{},
		&study.StuckPoint{},
		&study.Reflection{},

		// =========================
		// Spaced repetition (one row per problem)
		// =========================
		&study.ScheduleRecord{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
