package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"studentms/internal/auth"
	"studentms/internal/config"
	"studentms/internal/db"
	"studentms/internal/model"
	"studentms/internal/repository"
)

// AdminAccount is the account the seeder guarantees.
type AdminAccount struct {
	Email    string
	Username string
	FullName string
	Password string
}

func main() {
	log.Println("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	if err := db.Migrate(gormDB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	ctx := context.Background()

	log.Println("Seeding admin account...")
	created, updated, err := seedAdmin(ctx, userRepo, hasher, AdminAccount{
		Email:    cfg.AdminEmail,
		Username: cfg.AdminUsername,
		FullName: "System Administrator",
		Password: cfg.AdminPassword,
	})
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - Admin accounts created: %d", created)
	log.Printf("  - Admin accounts updated: %d", updated)
	log.Printf("  - Admin login: %s", cfg.AdminEmail)
}

// seedAdmin creates the admin account, or makes an existing one with the same
// email an active admin. The stored password of an existing account is kept.
func seedAdmin(ctx context.Context, repo repository.UserRepository, hasher *auth.PasswordHasher, admin AdminAccount) (created int, updated int, err error) {
	existing, err := repo.FindByEmail(ctx, admin.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, 0, fmt.Errorf("error checking admin %s: %w", admin.Email, err)
	}

	if existing != nil {
		if existing.IsActive && existing.Role == model.RoleAdmin {
			return 0, 0, nil
		}
		existing.IsActive = true
		existing.Role = model.RoleAdmin
		if err := repo.Update(ctx, existing); err != nil {
			return 0, 0, fmt.Errorf("error updating admin %s: %w", admin.Email, err)
		}
		return 0, 1, nil
	}

	hash, err := hasher.Hash(admin.Password)
	if err != nil {
		return 0, 0, fmt.Errorf("hash admin password: %w", err)
	}
	user := &model.User{
		Email:        admin.Email,
		Username:     admin.Username,
		FullName:     admin.FullName,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
	}
	if err := repo.Create(ctx, user); err != nil {
		return 0, 0, fmt.Errorf("error creating admin %s: %w", admin.Email, err)
	}
	return 1, 0, nil
}
