// Package testutil builds throwaway databases and accounts for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/board/config"
	"github.com/cppla/board/models"
	"github.com/cppla/board/utils"
)

// DefaultPassword is the password of every account made by CreateUser.
const DefaultPassword = "password123"

// UseConfig installs a test configuration backed by a private in-memory sqlite database.
func UseConfig(t testing.TB) config.AppConfig {
	t.Helper()
	utils.ResetCache()
	return config.Use(config.AppConfig{
		JWTSecret:          "test-secret",
		JWTExpireMinutes:   60,
		DBDriver:           "sqlite",
		DatabaseURI:        "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		GinMode:            "test",
		GinPath:            filepath.Join(t.TempDir(), "gin.log"),
		RateLimitPerMinute: 100000,
		LogLevel:           "silent",
	})
}

// NewDB returns a migrated database that lives until the test ends.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	cfg := UseConfig(t)
	db, err := config.OpenDatabase(cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db, models.All()...))
	return db
}

// CreateUser inserts an active account with DefaultPassword.
func CreateUser(t testing.TB, db *gorm.DB, email, nickName, role string) models.User {
	t.Helper()
	hash, err := utils.HashPassword(DefaultPassword)
	require.NoError(t, err)
	u := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         nickName + " name",
		NickName:     nickName,
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(&u).Error)
	return u
}
