package db

import (
	"fmt"

	"github.com/linkcapture/console/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates the admin and credential tables.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(&models.Admin{}, &models.WebAuthnCredential{}); errMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errMigrate)
	}
	return nil
}
