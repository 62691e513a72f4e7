package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "3000", c.AppPort)
	assert.Equal(t, 60, c.JWTExpireMinutes)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, "3306", c.DBPort)
	assert.Equal(t, 60, c.RateLimitPerMinute)
	assert.Equal(t, 500, c.CacheSize)
	assert.Equal(t, "logs/go_gin.log", c.GinPath)
	assert.Equal(t, "admin@example.com", c.AdminEmail)
}

func TestApplyDefaultsPostgresPort(t *testing.T) {
	c := AppConfig{DBDriver: "postgres"}
	applyDefaults(&c)
	assert.Equal(t, "5432", c.DBPort)
}

func TestDecodeConfigFile(t *testing.T) {
	raw := `{
		"app": {"AppPort": "8080", "JWTSecret": "from-json", "JWTExpireMinutes": 30,
			"AllowedOrigins": ["https://a.example", "https://b.example"]},
		"database": {"Driver": "sqlite", "DatabaseURI": "board.db"},
		"redis": {"Enabled": true, "RedisHost": "redis", "RedisPort": 6380},
		"cache": {"Enabled": true, "Size": 42},
		"smtp": {"SMTPHost": "smtp.example", "SMTPPort": 25, "SMTPTLS": true},
		"seed": {"AdminEmail": "root@example.com", "Dir": "content"}
	}`
	var c AppConfig
	require.NoError(t, decodeConfigFile(strings.NewReader(raw), &c))

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "from-json", c.JWTSecret)
	assert.Equal(t, 30, c.JWTExpireMinutes)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.AllowedOrigins)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.True(t, c.RedisEnabled)
	assert.Equal(t, 6380, c.RedisPort)
	assert.True(t, c.CacheEnabled)
	assert.Equal(t, 42, c.CacheSize)
	assert.Equal(t, 25, c.SMTPPort)
	assert.True(t, c.SMTPTLS)
	assert.Equal(t, "root@example.com", c.AdminEmail)
	assert.Equal(t, "content", c.SeedDir)

	assert.Error(t, decodeConfigFile(strings.NewReader("{not json"), &c))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("JWT_EXPIRE_MINUTES", "15")
	t.Setenv("ALLOWED_ORIGINS", " https://x.example , ,https://y.example")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db/board")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("ADMIN_PASSWORD", "seedpass")

	c := AppConfig{AppPort: "3000", CacheEnabled: true}
	applyEnvOverrides(&c)

	assert.Equal(t, "9000", c.AppPort)
	assert.Equal(t, "from-env", c.JWTSecret)
	assert.Equal(t, 15, c.JWTExpireMinutes)
	assert.Equal(t, []string{"https://x.example", "https://y.example"}, c.AllowedOrigins)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "postgres://u:p@db/board", c.DatabaseURI)
	assert.True(t, c.RedisEnabled)
	assert.False(t, c.CacheEnabled)
	assert.Equal(t, "seedpass", c.AdminPassword)
}

func TestUseFillsDefaults(t *testing.T) {
	c := Use(AppConfig{JWTSecret: "s", DBDriver: "sqlite", DatabaseURI: "file::memory:"})
	assert.Equal(t, "s", Get().JWTSecret)
	assert.Equal(t, 60, c.JWTExpireMinutes)
}

func TestDialectorFor(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite"} {
		d, err := dialectorFor(AppConfig{DBDriver: driver, DBName: "board"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}
	_, err := dialectorFor(AppConfig{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestOpenAndMigrateSQLite(t *testing.T) {
	type widget struct {
		ID   uint
		Name string
	}
	conn, err := OpenDatabase(AppConfig{DBDriver: "sqlite", DatabaseURI: "file::memory:", LogLevel: "silent"})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, Migrate(conn, &widget{}))
	assert.True(t, conn.Migrator().HasTable(&widget{}))
}
