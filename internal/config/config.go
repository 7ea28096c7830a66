package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI      string
	TelegramToken    string
	DispatchInterval time.Duration // recurring/one-time reminder dispatch tick
	DrainInterval    time.Duration // inbound update drain tick
	Debug            bool
}

func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional

	return &Config{
		DatabaseURI:      os.Getenv("DATABASE_URI"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		DispatchInterval: getDurationOrDefault("DISPATCH_INTERVAL", 30*time.Second),
		DrainInterval:    getDurationOrDefault("DRAIN_INTERVAL", 5*time.Second),
		Debug:            getBoolOrDefault("DEBUG", false),
	}, nil
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
