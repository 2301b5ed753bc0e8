package setup

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/Raunaq22/Musicbrew-sub000/internal/domain"
)

// MigrateDB runs all database migrations on the provided GORM instance.
func MigrateDB(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("cannot migrate database with nil DB connection")
	}
	err := db.AutoMigrate(
		&domain.Room{},
		&domain.RoomActivity{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate tables: %w", err)
	}
	return nil
}
