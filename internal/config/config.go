package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/akozhevin/accounts-api/internal/models"
)

type Config struct {
	Port        int
	DatabaseURL string

	JWTSecret []byte
	// TokenTTL and CookieMaxAge are deliberately independent knobs: the
	// default cookie lifetime (15m) is shorter than the default token
	// validity (24h).
	TokenTTL     time.Duration
	CookieName   string
	CookieMaxAge time.Duration

	AppEnv       string
	LogLevel     string
	CORSOrigins  []string
	KafkaBrokers []string
}

func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env not loaded (%v), using environment", err)
	}

	cfg := &Config{
		Port:         envIntDefault("PORT", 3000),
		DatabaseURL:  databaseURL(),
		JWTSecret:    []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:     envDurationDefault("JWT_EXPIRES_IN", 24*time.Hour),
		CookieName:   envDefault("AUTH_COOKIE_NAME", "token"),
		CookieMaxAge: envDurationDefault("AUTH_COOKIE_MAX_AGE", 15*time.Minute),
		AppEnv:       envDefault("APP_ENV", "development"),
		LogLevel:     envDefault("LOG_LEVEL", "info"),
		CORSOrigins:  csv(envDefault("CORS_ORIGINS", "*")),
		KafkaBrokers: csv(os.Getenv("KAFKA_BROKERS")),
	}

	if len(cfg.JWTSecret) == 0 {
		return nil, fmt.Errorf("missing required env JWT_SECRET")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("missing required env DATABASE_URL (or DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME)")
	}
	return cfg, nil
}

// InitDB opens the process-wide pooled connection and migrates the
// users table. TranslateError turns driver unique-violation errors
// into gorm.ErrDuplicatedKey, which the repo relies on.
func InitDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("db connect failed: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, fmt.Errorf("db migration failed: %w", err)
	}
	return db, nil
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	password := os.Getenv("DB_PASSWORD")
	dbname := os.Getenv("DB_NAME")
	if host == "" || dbname == "" {
		return ""
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname)
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csv(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
