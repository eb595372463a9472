package app

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerURL    string // Required-ish: base URL of the feed service (default: http://localhost:8000)
	DatabaseFile string // Optional: path to the SQLite state file (default: <user config dir>/flock/state.db)
	StateKey     string // Optional: passphrase sealing the persisted token (default: flock-local)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: warn)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	// A .env beside the binary is a dev convenience; absence is fine.
	_ = godotenv.Load()

	cfg := Config{
		ServerURL:    getEnvOrDefault("FLOCK_SERVER", "http://localhost:8000"),
		DatabaseFile: os.Getenv("FLOCK_DATABASE_FILE"),
		// The default key only keeps the token out of casual greps of the
		// state file. Set a real key to tie the session to this machine.
		StateKey:  getEnvOrDefault("FLOCK_STATE_KEY", "flock-local"),
		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "text"),
	}

	if cfg.DatabaseFile == "" {
		cfg.DatabaseFile = defaultDatabaseFile()
	}

	return cfg
}

func defaultDatabaseFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "flock.db"
	}
	return filepath.Join(dir, "flock", "state.db")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
