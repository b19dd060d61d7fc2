package shared

import (
	"fmt"
	"sync/atomic"

	"github.com/glebarez/sqlite"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/memelore/meme-token-catalog/internal/database"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

var testDBCounter atomic.Int64

// SetupTestCfg builds a koanf instance from defaults only, no config file.
func SetupTestCfg() *koanf.Koanf {
	logger := zerolog.New(nil).With().Timestamp().Logger()
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(DefaultValues(), "."), nil); err != nil {
		logger.Fatal().Msgf("error loading configuration: %v", err)
	}
	return k
}

// SetupTestDB opens an isolated in-memory sqlite store with the catalog
// models migrated. Each call gets its own database.
func SetupTestDB() *database.Database {
	logger := zerolog.New(nil).With().Timestamp().Logger()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBCounter.Add(1))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open the in-memory database.")
	}

	// a pooled second connection would see an empty memory database
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	if err := conn.AutoMigrate(database.Models()...); err != nil {
		logger.Fatal().Err(err).Msg("Failed to migrate the in-memory database.")
	}

	dbInstance := database.NewDatabase(SetupTestCfg(), logger)
	dbInstance.DB = conn
	return dbInstance
}

// SetupRealDB connects to a locally running Postgres, for tests that need
// real constraint behavior. Uses the same koanf wiring as production.
func SetupRealDB(dsn string) *database.Database {
	logger := zerolog.New(nil).With().Timestamp().Logger()
	cfg := map[string]interface{}{
		"db.postgres.dsn": dsn,
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(cfg, "."), nil); err != nil {
		logger.Fatal().Msgf("error loading configuration: %v", err)
	}
	dbInstance := database.NewDatabase(k, logger)
	dbInstance.ConnectDatabase()
	if dbInstance.DB == nil {
		logger.Fatal().Msg("Failed to connect to the database.")
	}
	return dbInstance
}
