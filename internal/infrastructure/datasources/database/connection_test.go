package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"referral-bot.backend/internal/config"
)

func TestNewConnection_UnknownDriver(t *testing.T) {
	db, err := NewConnection(config.DatabaseConfig{Driver: "mysql"})
	require.Error(t, err)
	require.Nil(t, db)
	require.Contains(t, err.Error(), "unsupported database driver")
}

func TestNewConnection_PostgresPingFailure(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:   config.DriverPostgres,
		Host:     "127.0.0.1",
		Port:     1,
		User:     "x",
		Password: "x",
		DBName:   "x",
		SSLMode:  "disable",
	}

	db, err := NewConnection(cfg)
	require.Error(t, err)
	require.Nil(t, db)
}

func TestNewConnection_SQLiteMigrates(t *testing.T) {
	cfg := config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "ledger.db"),
		AutoMigrate: true,
	}

	db, err := NewConnection(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.True(t, db.Migrator().HasTable("users"))
	require.True(t, db.Migrator().HasTable("referrals"))
	require.True(t, db.Migrator().HasTable("reward_accounts"))
	require.True(t, db.Migrator().HasTable("reward_codes"))
}

func TestNewConnection_Hooks(t *testing.T) {
	origOpen, origPing, origMigrate := gormOpen, dbPing, migrateDB
	t.Cleanup(func() {
		gormOpen = origOpen
		dbPing = origPing
		migrateDB = origMigrate
	})

	cfg := config.DatabaseConfig{
		Driver:      config.DriverSQLite,
		SQLitePath:  filepath.Join(t.TempDir(), "hooks.db"),
		AutoMigrate: true,
	}

	gormOpen = func(gorm.Dialector, ...gorm.Option) (*gorm.DB, error) {
		return nil, errors.New("open failed")
	}
	_, err := NewConnection(cfg)
	require.ErrorContains(t, err, "failed to open database")

	gormOpen = origOpen
	dbPing = func(*sql.DB) error { return errors.New("refused") }
	_, err = NewConnection(cfg)
	require.ErrorContains(t, err, "failed to ping database")

	dbPing = origPing
	migrateDB = func(*gorm.DB) error { return errors.New("bad schema") }
	_, err = NewConnection(cfg)
	require.ErrorContains(t, err, "failed to migrate database")
}
