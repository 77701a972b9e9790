package daemon

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	storagemysql "github.com/gofiber/storage/mysql/v2"
	storagepostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/db/controller/kvstore"
	"github.com/idsync/idsync/internal/db/controller/user"
	"github.com/idsync/idsync/internal/db/dsn"
	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/logger/adapter/stdlogger"
)

const slowQueryThreshold = 200 * time.Millisecond

// openDB opens the configured gorm engine.
func openDB(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		dialector = gormpostgres.Open(dsn.Create(cfg))
	case config.EngineSQLite:
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		dialector = gormmysql.Open(dsn.Create(cfg))
	}

	logLevel := gormlogger.Warn
	if cfg.DevMode {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(stdlogger.New("gorm"), gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.DB.GormEngine == config.EngineSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// openStorage opens the key-value table of the configured engine. SQLite
// has no key-value driver and falls back to process memory.
func openStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EnginePostgres:
		return storagepostgres.New(storagepostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         cfg.Store.Table,
		})
	case config.EngineSQLite:
		log.Warn().Msg("sqlite has no key-value driver, key-value data is kept in memory")
		return memory.New()
	default:
		return storagemysql.New(storagemysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         cfg.Store.Table,
		})
	}
}

// openStore opens the identity store of the configured backend. The
// returned storage also keeps the OIDC state tokens.
func openStore(cfg *config.Config) (identity.Store, fiber.Storage, error) {
	storage := openStorage(cfg)

	if cfg.Store.Backend == config.StoreBackendKV {
		store, err := kvstore.New(storage)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create key-value store: %w", err)
		}

		return store, storage, nil
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	if err = user.Migrate(db); err != nil {
		return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	store, err := user.New(db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create user store: %w", err)
	}

	return store, storage, nil
}
