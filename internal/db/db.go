package db

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"sitebooks-backend/config"
	"sitebooks-backend/internal/logging"
	"sitebooks-backend/internal/model"
	"sitebooks-backend/internal/rbac"
	"sitebooks-backend/internal/store"
)

// Init opens the PostgreSQL connection pool.
func Init(cfg *config.DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:         logging.Gorm(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB, log *logrus.Logger) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(model.All()...); err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	if err := store.EnsureIndexes(db); err != nil {
		return err
	}
	log.Info("database migrations complete")
	return nil
}

// SeedAdmin creates the bootstrap super admin when no users exist yet.
// It reports whether a user was created.
func SeedAdmin(ctx context.Context, s store.Store, admin *config.BootstrapAdmin, log *logrus.Logger) (bool, error) {
	if admin == nil || admin.Username == "" {
		return false, nil
	}
	count, err := s.CountUsers(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	u, err := s.CreateUser(ctx, rbac.Unrestricted(), store.UserInput{
		Username: admin.Username,
		Name:     admin.Name,
		Password: admin.Password,
		Role:     model.RoleSuperAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("create bootstrap admin: %w", err)
	}
	log.WithField("username", u.Username).Warn("created bootstrap super admin; change its password")
	return true, nil
}
