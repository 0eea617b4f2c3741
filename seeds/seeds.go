package seeds

import (
	"errors"
	"fmt"

	"delivery-ledger-backend/config"
	"delivery-ledger-backend/db/models"
	"delivery-ledger-backend/users/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SeedInitialAdminUser creates the bootstrap admin account when the users
// table has no admin yet. Credentials come from ADMIN_EMAIL and
// ADMIN_PASSWORD; without them the seed is skipped, not failed, so a fresh
// database can still boot for local work.
func SeedInitialAdminUser(db *gorm.DB) error {
	email := config.GetEnv("ADMIN_EMAIL")
	password := config.GetEnv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		config.Logger.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		config.Logger.Info("Admin user already exists, skipping seed", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for existing admin user: %w", err)
	}

	hashed, err := repositories.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		FirstName: "System",
		LastName:  "Administrator",
		Email:     email,
		Password:  hashed,
		Role:      models.AdminRole,
		IsActive:  true,
		CreatedBy: "system",
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	config.Logger.Info("Seeded initial admin user", zap.String("email", email))
	return nil
}
