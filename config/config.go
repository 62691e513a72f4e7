package config

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort          string
	JWTSecret        string
	JWTExpireMinutes int
	// Database
	DBDriver    string // mysql | postgres | sqlite
	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	// HTTP
	RateLimitPerMinute int
	AllowedOrigins     []string
	GinMode            string
	GinPath            string
	// Redis for caching and token revocation
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// In-process cache used when Redis is disabled
	CacheEnabled bool
	CacheSize    int
	// SMTP for temporary password delivery
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      bool
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
	// Seed admin account and folder
	AdminEmail    string
	AdminPassword string
	AdminName     string
	AdminNick     string
	SeedDir       string
}

var (
	cfg    AppConfig
	loaded bool
	mu     sync.RWMutex
)

// Load loads the application configuration. It should be called once during boot.
func Load() AppConfig {
	mu.Lock()
	defer mu.Unlock()
	if loaded {
		return cfg
	}

	// Precedence: .env -> config/config.json -> defaults -> environment variable overrides
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to read .env: %v", err)
	}

	var c AppConfig
	if err := loadJSONConfig(filepath.Join("config", "config.json"), &c); err != nil {
		log.Printf("invalid config/config.json: %v", err)
	}
	applyDefaults(&c)
	applyEnvOverrides(&c)

	if c.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	mu.RLock()
	if loaded {
		defer mu.RUnlock()
		return cfg
	}
	mu.RUnlock()
	return Load()
}

// Use installs c as the active configuration after filling defaults. Tests and tools call it instead of Load.
func Use(c AppConfig) AppConfig {
	applyDefaults(&c)
	mu.Lock()
	cfg = c
	loaded = true
	mu.Unlock()
	return c
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// fileConfig mirrors the grouped sections of config/config.json.
type fileConfig struct {
	App struct {
		AppPort            string
		JWTSecret          string
		JWTExpireMinutes   int
		RateLimitPerMinute int
		AllowedOrigins     []string
	} `json:"app"`
	Gin struct {
		Mode    string
		LogPath string
	} `json:"gin"`
	Database struct {
		Driver      string
		DatabaseURI string
		DBHost      string
		DBPort      string
		DBUser      string
		DBPassword  string
		DBName      string
	} `json:"database"`
	Redis struct {
		Enabled       bool
		RedisHost     string
		RedisPort     int
		RedisDB       int
		RedisPassword string
	} `json:"redis"`
	Cache struct {
		Enabled bool
		Size    int
	} `json:"cache"`
	SMTP struct {
		SMTPHost     string
		SMTPPort     int
		SMTPUsername string
		SMTPPassword string
		SMTPFrom     string
		SMTPFromName string
		SMTPTLS      bool
	} `json:"smtp"`
	Log struct {
		Level      string
		Path       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
		Compress   bool
	} `json:"log"`
	Seed struct {
		AdminEmail    string
		AdminPassword string
		AdminName     string
		AdminNick     string
		Dir           string
	} `json:"seed"`
}

// loadJSONConfig reads the JSON file into out if present. A missing file is not an error.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	return decodeConfigFile(f, out)
}

func decodeConfigFile(r io.Reader, out *AppConfig) error {
	var fc fileConfig
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return err
	}
	fc.apply(out)
	return nil
}

// apply copies every value set in the file onto out.
func (fc fileConfig) apply(out *AppConfig) {
	setString(&out.AppPort, fc.App.AppPort)
	setString(&out.JWTSecret, fc.App.JWTSecret)
	setInt(&out.JWTExpireMinutes, fc.App.JWTExpireMinutes)
	setInt(&out.RateLimitPerMinute, fc.App.RateLimitPerMinute)
	if len(fc.App.AllowedOrigins) > 0 {
		out.AllowedOrigins = fc.App.AllowedOrigins
	}

	setString(&out.GinMode, fc.Gin.Mode)
	setString(&out.GinPath, fc.Gin.LogPath)

	db := fc.Database
	setString(&out.DBDriver, db.Driver)
	setString(&out.DatabaseURI, db.DatabaseURI)
	setString(&out.DBHost, db.DBHost)
	setString(&out.DBPort, db.DBPort)
	setString(&out.DBUser, db.DBUser)
	setString(&out.DBPassword, db.DBPassword)
	setString(&out.DBName, db.DBName)

	out.RedisEnabled = fc.Redis.Enabled
	setString(&out.RedisHost, fc.Redis.RedisHost)
	setInt(&out.RedisPort, fc.Redis.RedisPort)
	setInt(&out.RedisDB, fc.Redis.RedisDB)
	setString(&out.RedisPassword, fc.Redis.RedisPassword)

	out.CacheEnabled = fc.Cache.Enabled
	setInt(&out.CacheSize, fc.Cache.Size)

	sm := fc.SMTP
	setString(&out.SMTPHost, sm.SMTPHost)
	setInt(&out.SMTPPort, sm.SMTPPort)
	setString(&out.SMTPUsername, sm.SMTPUsername)
	setString(&out.SMTPPassword, sm.SMTPPassword)
	setString(&out.SMTPFrom, sm.SMTPFrom)
	setString(&out.SMTPFromName, sm.SMTPFromName)
	out.SMTPTLS = sm.SMTPTLS

	setString(&out.LogLevel, fc.Log.Level)
	setString(&out.LogPath, fc.Log.Path)
	setInt(&out.LogMaxSizeMB, fc.Log.MaxSizeMB)
	setInt(&out.LogMaxBackups, fc.Log.MaxBackups)
	setInt(&out.LogMaxAgeDays, fc.Log.MaxAgeDays)
	out.LogCompress = fc.Log.Compress

	setString(&out.AdminEmail, fc.Seed.AdminEmail)
	setString(&out.AdminPassword, fc.Seed.AdminPassword)
	setString(&out.AdminName, fc.Seed.AdminName)
	setString(&out.AdminNick, fc.Seed.AdminNick)
	setString(&out.SeedDir, fc.Seed.Dir)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "3000"
	}
	if c.JWTExpireMinutes == 0 {
		c.JWTExpireMinutes = 60
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/go_gin.log"
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if c.DBDriver == "" {
		c.DBDriver = "mysql"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		switch c.DBDriver {
		case "postgres":
			c.DBPort = "5432"
		default:
			c.DBPort = "3306"
		}
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "board"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.CacheSize == 0 {
		c.CacheSize = 500
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.AdminEmail == "" {
		c.AdminEmail = "admin@example.com"
	}
	if c.AdminName == "" {
		c.AdminName = "administrator"
	}
	if c.AdminNick == "" {
		c.AdminNick = "admin"
	}
	if c.SeedDir == "" {
		c.SeedDir = filepath.Join("seed", "categories")
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	envString(&c.AppPort, "APP_PORT", "PORT")
	envString(&c.JWTSecret, "JWT_SECRET")
	envInt(&c.JWTExpireMinutes, "JWT_EXPIRE_MINUTES")
	envString(&c.GinMode, "GIN_MODE")
	envString(&c.GinPath, "GIN_PATH")
	envInt(&c.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE")
	c.AllowedOrigins = readListEnv("ALLOWED_ORIGINS", c.AllowedOrigins)

	envString(&c.DBDriver, "DB_DRIVER")
	envString(&c.DatabaseURI, "DATABASE_URI", "DATABASE_URL")
	envString(&c.DBHost, "DB_HOST")
	envString(&c.DBPort, "DB_PORT")
	envString(&c.DBUser, "DB_USER")
	envString(&c.DBPassword, "DB_PASSWORD")
	envString(&c.DBName, "DB_NAME")

	envBool(&c.RedisEnabled, "REDIS_ENABLED")
	envString(&c.RedisHost, "REDIS_HOST")
	envInt(&c.RedisPort, "REDIS_PORT")
	envInt(&c.RedisDB, "REDIS_DB")
	envString(&c.RedisPassword, "REDIS_PASSWORD")
	envBool(&c.CacheEnabled, "CACHE_ENABLED")
	envInt(&c.CacheSize, "CACHE_SIZE")

	envString(&c.SMTPHost, "SMTP_HOST")
	envInt(&c.SMTPPort, "SMTP_PORT")
	envString(&c.SMTPUsername, "SMTP_USERNAME")
	envString(&c.SMTPPassword, "SMTP_PASSWORD")
	envString(&c.SMTPFrom, "SMTP_FROM")
	envString(&c.SMTPFromName, "SMTP_FROM_NAME")
	envBool(&c.SMTPTLS, "SMTP_TLS")

	envString(&c.LogLevel, "LOG_LEVEL")
	envString(&c.LogPath, "LOG_PATH")
	envInt(&c.LogMaxSizeMB, "LOG_MAX_SIZE_MB")
	envInt(&c.LogMaxBackups, "LOG_MAX_BACKUPS")
	envInt(&c.LogMaxAgeDays, "LOG_MAX_AGE_DAYS")
	envBool(&c.LogCompress, "LOG_COMPRESS")

	envString(&c.AdminEmail, "ADMIN_EMAIL")
	envString(&c.AdminPassword, "ADMIN_PASSWORD")
	envString(&c.AdminName, "ADMIN_NAME")
	envString(&c.AdminNick, "ADMIN_NICK")
	envString(&c.SeedDir, "SEED_DIR")
}

// envString sets dst from each non-empty key in turn, so later keys win.
func envString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := getEnv(k, ""); v != "" {
			*dst = v
		}
	}
}

func envInt(dst *int, key string) {
	if v := getEnv(key, ""); v != "" {
		*dst = mustParseInt(v)
	}
}

func envBool(dst *bool, key string) {
	if v := getEnv(key, ""); v != "" {
		*dst = v == "true"
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func readListEnv(key string, defaults []string) []string {
	if raw := os.Getenv(key); raw != "" {
		return splitAndTrim(raw)
	}
	return defaults
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
