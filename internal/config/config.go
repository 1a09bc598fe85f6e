// Package config loads runtime configuration from the environment.
// Values may come from a .env file (see LoadEnvFile); real environment
// variables take precedence over the file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"
)

// Config holds all runtime configuration values.
type Config struct {
	Env  string // APP_ENV (dev, test, prod)
	Port string // APP_PORT

	DBDriver    string // DB_DRIVER: mysql (default) or sqlite
	DBUser      string
	DBPass      string // may be empty
	DBHost      string
	DBPort      string
	DBName      string
	SQLitePath  string // SQLITE_PATH, empty means in-memory
	TxIsolation string // DB_TX_ISOLATION: read_committed, repeatable_read, serializable

	JWTSecret string

	PolicyFile         string // POLICY_FILE, empty means the built-in table
	AdminProjectAccess string // ADMIN_PROJECT_ACCESS overrides the policy file when set

	AMQPURL       string // RABBITMQ_URL, falling back to AMQP_URL
	EventsEnabled bool
	ActivityLog   string // ACTIVITY_LOG_PATH

	LogLevel string
}

// LoadEnvFile reads path into the process environment without overriding
// variables that are already set.  A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads configuration values from the environment.  Required
// variables are enforced by must(); a missing one stops the process.
func Load() Config {
	cfg := Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		DBDriver:           strings.ToLower(envStr("DB_DRIVER", "mysql")),
		SQLitePath:         os.Getenv("SQLITE_PATH"),
		TxIsolation:        envStr("DB_TX_ISOLATION", ""),
		JWTSecret:          must("JWT_SECRET"),
		PolicyFile:         os.Getenv("POLICY_FILE"),
		AdminProjectAccess: os.Getenv("ADMIN_PROJECT_ACCESS"),
		AMQPURL:            envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		EventsEnabled:      envBool("EVENTS_ENABLED", true),
		ActivityLog:        envStr("ACTIVITY_LOG_PATH", "logs/activity.log"),
		LogLevel:           envStr("LOG_LEVEL", "info"),
	}
	if cfg.DBDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
		if cfg.TxIsolation == "" {
			cfg.TxIsolation = "repeatable_read"
		}
	}
	return cfg
}

// ParseLogLevel maps LOG_LEVEL onto a gommon level; unknown values give INFO.
func ParseLogLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	}
	return log.INFO
}

// must retrieves the value of a required environment variable and exits
// when it is unset or empty.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}
