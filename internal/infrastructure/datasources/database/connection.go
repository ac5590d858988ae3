package database

import (
	"database/sql"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"referral-bot.backend/internal/config"
	"referral-bot.backend/internal/infrastructure/models"
)

var (
	gormOpen  = gorm.Open
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	dbPing    = func(db *sql.DB) error { return db.Ping() }
	migrateDB = models.Migrate
)

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return postgres.New(postgres.Config{
			DSN:                  cfg.URL(),
			PreferSimpleProtocol: true,
		}), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.SQLitePath + "?_busy_timeout=5000&_journal_mode=WAL"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewConnection opens the ledger database, verifies it answers and applies
// migrations when enabled
func NewConnection(cfg config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gormOpen(d, &gorm.Config{
		PrepareStmt: false,
		Logger:      gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return nil, fmt.Errorf("failed to get generic database object: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// sqlite allows one writer; serializing avoids SQLITE_BUSY under load
		sqlDB.SetMaxOpenConns(1)
	}

	if err := dbPing(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.AutoMigrate {
		if err := migrateDB(db); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}
	return db, nil
}
