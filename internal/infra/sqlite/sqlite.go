package sqlite

import (
	"fmt"

	gsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewGorm opens (or creates) the SQLite database at path. ":memory:" gives a
// private in-memory database.
func NewGorm(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(gsqlite.Open(path+dsnPragmas(path)), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open gorm connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite: retrieve sql db: %w", err)
	}

	// One connection serializes writers and keeps ":memory:" databases alive
	// for the lifetime of the pool.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	return db, nil
}

func dsnPragmas(path string) string {
	if path == ":memory:" {
		return ""
	}
	return "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}
