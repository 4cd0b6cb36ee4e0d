package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// JWT
	JWTSecret        string
	JWTAccessExpiry  time.Duration
	JWTRefreshExpiry time.Duration
	BcryptCost       int

	// Groomify ML service
	MLAPIURL        string
	MLTimeout       time.Duration
	MLMaxAttempts   int
	MLHealthTimeout time.Duration

	// Uploads
	UploadsDir       string
	UploadsURLPrefix string

	// Stats
	StatsTimezone string

	// Admin
	AdminEmails   string
	AdminEmail    string
	AdminPassword string

	// Server
	Port        string
	CORSOrigins string
	AppEnv      string
	SentryDSN   string

	// Redis (rate limiter storage, optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// RabbitMQ (domain events, optional)
	RabbitMQURL string

	LogRetentionDays int
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "groomify_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),
		SQLitePath: getEnv("SQLITE_PATH", "groomify.db"),

		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTAccessExpiry:  parseDuration(getEnv("JWT_ACCESS_EXPIRY", "30m"), 30*time.Minute),
		JWTRefreshExpiry: parseDuration(getEnv("JWT_REFRESH_EXPIRY", "168h"), 168*time.Hour),
		BcryptCost:       parseInt(getEnv("BCRYPT_COST", "10"), 10),

		MLAPIURL:        strings.TrimRight(getEnv("ML_API_URL", "http://localhost:8001"), "/"),
		MLTimeout:       parseDuration(getEnv("ML_TIMEOUT", "60s"), 60*time.Second),
		MLMaxAttempts:   parseInt(getEnv("ML_MAX_ATTEMPTS", "3"), 3),
		MLHealthTimeout: parseDuration(getEnv("ML_HEALTH_TIMEOUT", "5s"), 5*time.Second),

		UploadsDir:       getEnv("UPLOADS_DIR", "uploads"),
		UploadsURLPrefix: strings.TrimRight(getEnv("UPLOADS_URL_PREFIX", "/api/v1/uploads"), "/"),

		StatsTimezone: getEnv("STATS_TIMEZONE", "UTC"),

		AdminEmails:   getEnv("ADMIN_EMAILS", ""),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       parseInt(getEnv("REDIS_DB", "0"), 0),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	switch c.DBDriver {
	case "postgres":
		if c.DBPassword == "" {
			return errors.New("DB_PASSWORD environment variable is required")
		}
	case "sqlite":
	default:
		return errors.New("DB_DRIVER must be postgres or sqlite")
	}
	if c.MLMaxAttempts < 1 {
		return errors.New("ML_MAX_ATTEMPTS must be at least 1")
	}
	if _, err := time.LoadLocation(c.StatsTimezone); err != nil {
		return errors.New("STATS_TIMEZONE is not a valid IANA zone")
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// Location returns the zone used to bucket records into calendar days.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.StatsTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
