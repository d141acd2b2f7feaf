package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sitebooks-backend/config"
	"sitebooks-backend/internal/logging"
	"sitebooks-backend/internal/store"
)

func TestMigrateAndSeedAdmin(t *testing.T) {
	gormDB, err := gorm.Open(sqlite.Open("file:seed_admin?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	sqlDB.SetMaxOpenConns(1)
	defer sqlDB.Close()

	log := logging.Discard()
	require.NoError(t, Migrate(gormDB, log))

	s := store.NewGormStore(gormDB, store.Options{Logger: log})
	ctx := context.Background()
	admin := &config.BootstrapAdmin{Username: "owner", Password: "change-me-now", Name: "Owner"}

	created, err := SeedAdmin(ctx, s, nil, log)
	require.NoError(t, err)
	assert.False(t, created, "no bootstrap admin configured")

	created, err = SeedAdmin(ctx, s, admin, log)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = SeedAdmin(ctx, s, admin, log)
	require.NoError(t, err)
	assert.False(t, created, "users already exist")

	u, err := s.Authenticate(ctx, "owner", "change-me-now")
	require.NoError(t, err)
	assert.Equal(t, "super_admin", string(u.Role))
}
