// Package config reads service settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

type Config struct {
	APIPort     string
	GamePort    string
	DataAPIBase string
	// Owner is the account allowed to edit the catalog and adjust tallies.
	Owner       string
	CatalogPath string
	Store       string
	SQLitePath  string
	DatabaseURL string
	MatchLogDir string
	LogLevel    string
	LogFormat   string
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// Load reads envFiles (default ".env") when present, then the environment.
// Variables already set in the environment win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	port := os.Getenv("PORT")
	cfg := Config{
		APIPort:     getenv("API_PORT", "8080"),
		GamePort:    getenv("GAME_PORT", "8081"),
		DataAPIBase: getenv("DATA_API_BASE", "http://localhost:8080"),
		Owner:       getenv("OWNER", ""),
		CatalogPath: getenv("CATALOG_PATH", ""),
		Store:       strings.ToLower(getenv("STORE", StoreMemory)),
		SQLitePath:  getenv("SQLITE_PATH", "omega.db"),
		DatabaseURL: getenv("DATABASE_URL", ""),
		MatchLogDir: getenv("MATCH_LOG_DIR", ""),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		LogFormat:   getenv("LOG_FORMAT", "console"),
	}
	// PORT is set by most hosting platforms and applies to whichever
	// binary is running.
	if port != "" {
		cfg.APIPort = port
		cfg.GamePort = port
	}

	switch cfg.Store {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("STORE=postgres needs DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
	return cfg, nil
}
