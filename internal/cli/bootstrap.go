// Package cli defines the sgtaxbot subcommands and the shared bootstrap they
// run through: env loading, logging, configuration, and database setup.
package cli

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ShaunLWM/SGCarLicenseBot/internal/config"
	"github.com/ShaunLWM/SGCarLicenseBot/internal/repo"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// bootstrap loads .env (when present), configuration, and logging. Every
// subcommand starts here.
func bootstrap() (config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return cfg, nil
}

// openDB creates the cache directory, opens the SQLite store, and migrates
// the schema.
func openDB(cfg config.Config) (*gorm.DB, error) {
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, err
	}
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
