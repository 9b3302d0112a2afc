package config

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

type Config struct {
	Port          string
	DatabaseDSN   string
	Env           string
	StaticDir     string
	CodePoolFile  string
	AdminUser     string
	AdminPassHash string
	RunMigrations bool
}

// Load loads configuration from environment with sensible defaults.
// Precedence: explicit env var > .env file (if loaded by caller) > default.
func Load() Config {
	cfg := Config{}
	cfg.Port = getEnv("PORT", "3000")
	cfg.DatabaseDSN = getEnv("DATABASE_DSN", "pos.db")
	cfg.Env = getEnv("APP_ENV", "development")
	cfg.StaticDir = getEnv("STATIC_DIR", "web")
	cfg.CodePoolFile = getEnv("CODE_POOL_FILE", "sysdata.dat")
	cfg.AdminUser = getEnv("ADMIN_USER", "admin")
	cfg.AdminPassHash = os.Getenv("ADMIN_PASS_HASH")
	cfg.RunMigrations = ParseBool("MIGRATIONS", false)
	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBool reads an env var as bool with default.
func ParseBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			logrus.WithField("key", key).Warnf("invalid boolean: %s", v)
			return def
		}
		return b
	}
	return def
}

// SetupLogger configures logrus output for the current environment.
func SetupLogger(env string) {
	logrus.SetOutput(os.Stdout)
	if env == "production" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.SetLevel(logrus.DebugLevel)
}
