package repository

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"protaskinate/internal/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

const defaultDSN = "protaskinate.db"

// migrated lists the tables NewDB keeps in step with the model package.
var migrated = []interface{}{
	&model.User{},
	&model.Category{},
	&model.Task{},
	&model.TaskEvent{},
}

// NewDB opens the SQLite store behind dsn and migrates every table. An
// empty dsn opens protaskinate.db in the working directory.
func NewDB(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	if path, ok := sqliteFile(dsn); ok {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir %q: %w", dir, err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: storeLogger()})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(migrated...); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	return db, nil
}

// storeLogger reports slow queries and errors only. A miss on First is an
// ordinary ErrNotFound for callers, not a log line.
func storeLogger() logger.Interface {
	return logger.New(
		log.New(os.Stdout, "gorm: ", log.LstdFlags),
		logger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
}

// sqliteFile returns the file path behind dsn. In-memory databases have none.
func sqliteFile(dsn string) (string, bool) {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return "", false
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "", false
	}
	return path, true
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
