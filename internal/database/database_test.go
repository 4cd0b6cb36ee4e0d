package database

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DBDriver:   "sqlite",
		SQLitePath: "file::memory:",
		BcryptCost: 4,
	}
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	cfg := openTestDB(t)
	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	require.NoError(t, Ping(db))

	assert.True(t, db.Migrator().HasTable(&models.GroomingHistory{}))
	assert.True(t, db.Migrator().HasTable("user_features"))
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(&config.Config{DBDriver: "mysql"})
	assert.Error(t, err)
}

func TestPingNilDB(t *testing.T) {
	assert.Error(t, Ping(nil))
}

func TestSeedAdminCreatesThenPromotes(t *testing.T) {
	cfg := openTestDB(t)
	db, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	require.NoError(t, SeedAdmin(db, cfg), "no credentials is a no-op")
	var count int64
	db.Model(&models.User{}).Count(&count)
	assert.Zero(t, count)

	cfg.AdminEmail = " Admin@Example.com "
	cfg.AdminPassword = "admin-password"
	require.NoError(t, SeedAdmin(db, cfg))

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	require.NoError(t, db.Model(&admin).Update("role", models.RoleClient).Error)
	require.NoError(t, SeedAdmin(db, cfg))
	require.NoError(t, db.First(&admin, admin.ID).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}
