// Command migrate creates or updates the database schema and exits.
package main

import (
	"os"

	"novabyte-blog/config"
	"novabyte-blog/logger"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.LogLevel, cfg.Env)

	db, err := config.InitDB(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := config.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("migration complete")
}
