// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the process configuration.
type Config struct {
	// DBDriver is "sqlite3" or "postgres".
	DBDriver string
	// DBDSN is the driver DSN: a file path for sqlite3, a connection string
	// for postgres.
	DBDSN string
	// UserID identifies the learner; the tool is single-learner, default 1.
	UserID int64
	// TelegramToken enables the Telegram notifier when set.
	TelegramToken string
	// TelegramChatID is the chat reminders are delivered to.
	TelegramChatID int64
}

// Load reads the configuration from the environment. A missing .env file is
// not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver: getEnv("DB_DRIVER", "sqlite3"),
		DBDSN:    getEnv("DB_DSN", "data/studybot.db"),
		UserID:   1,
	}

	if v := os.Getenv("USER_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid USER_ID: %v", err)
		}
		cfg.UserID = id
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %v", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.DBDriver != "sqlite3" && cfg.DBDriver != "postgres" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
