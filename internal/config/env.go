// Package config provides environment helpers for posetempo commands.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/xerrors"
)

// Default server configuration.
const (
	DefaultPort      = "8080"
	DefaultServerURL = "http://localhost:" + DefaultPort
)

// IsDev reports whether we are running in a development environment.
// An unset RUN_TIME_ENV counts as dev.
func IsDev() bool {
	env := os.Getenv("RUN_TIME_ENV")
	return env == "" || env == "dev"
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// when running in dev. A missing file is not an error.
func LoadDotEnv(files ...string) error {
	if !IsDev() {
		return nil
	}
	if len(files) == 0 {
		files = []string{".env"}
	}

	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return xerrors.Errorf("load env files %v: %w", existing, err)
	}
	return nil
}

// String returns the env var or the default.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var parsed as an int, or the default when unset or malformed.
func Int(key string, def int) int {
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

// Float returns the env var parsed as a float64, or the default.
func Float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Duration returns the env var parsed with time.ParseDuration, or the default.
func Duration(key string, def time.Duration) time.Duration {
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

// Bool returns the env var parsed with strconv.ParseBool, or the default.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
