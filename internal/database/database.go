package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/readsync/internal/entities"
)

// connParams enables foreign keys (user cascade, book restrict) and makes
// concurrent writers wait instead of failing with SQLITE_BUSY.
const connParams = "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"

type Database struct {
	DB   *gorm.DB
	Path string
}

// NewDatabase opens (creating if needed) the SQLite store at dbPath and
// migrates the schema.
func NewDatabase(dbPath string) (*Database, error) {
	return NewDatabaseWithLogLevel(dbPath, logger.Warn)
}

// NewDatabaseWithLogLevel is NewDatabase with an explicit GORM log level.
func NewDatabaseWithLogLevel(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Parents first so the foreign keys of the per-user tables resolve.
	err = db.AutoMigrate(
		&entities.User{},
		&entities.Book{},
		&entities.UserBookState{},
		&entities.Bookmark{},
		&entities.Highlight{},
		&entities.Note{},
		&entities.Event{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db, Path: dbPath}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is usable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func dsn(path string) string {
	if strings.Contains(path, "?") {
		return path + "&" + connParams
	}
	return path + "?" + connParams
}
