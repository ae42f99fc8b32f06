// Package config reads process settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	SQLitePath    string
	SeedDemo      bool
	MigrationsDir string
}

// Load reads .env files (missing files are ignored) and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the current environment.
func FromEnv() Config {
	return Config{
		Addr:          getenv("APP_ADDR", ":8080"),
		SQLitePath:    getenv("SQLITE_PATH", "qctracker.db"),
		SeedDemo:      getbool("SEED_DEMO", true),
		MigrationsDir: strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getbool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}
