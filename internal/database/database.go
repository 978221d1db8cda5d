// Package database provides the GORM-backed persistence foundation:
// connection management, a generic repository, query building, and
// transaction helpers.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database is the connection handle shared by all stores.
type Database interface {
	// Session returns a GORM session bound to the given context.
	Session(ctx context.Context) *gorm.DB

	// IsSQLite reports whether the underlying driver is SQLite.
	IsSQLite() bool

	// IsPostgres reports whether the underlying driver is PostgreSQL.
	IsPostgres() bool

	// ConfigurePool sets connection pool limits.
	ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error

	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error

	// Close closes the underlying connection.
	Close() error
}

type gormDatabase struct {
	db     *gorm.DB
	driver string
}

var errUnsupportedDriver = errors.New("unsupported database driver")

// NewDatabase opens a database connection from a URL. Supported schemes:
// sqlite:///path/to.db (or sqlite:///:memory:) and postgresql://...
func NewDatabase(ctx context.Context, url string) (Database, error) {
	dialector, err := parseDialector(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogAdapter{},
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	d := &gormDatabase{db: db, driver: dialector.Name()}
	if err := d.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return d, nil
}

// parseDialector maps a database URL to a GORM dialector.
func parseDialector(url string) (gorm.Dialector, error) {
	switch {
	case strings.HasPrefix(url, "sqlite:///"):
		path := strings.TrimPrefix(url, "sqlite:///")
		return sqlite.Open(path), nil
	case strings.HasPrefix(url, "postgresql://"), strings.HasPrefix(url, "postgres://"):
		return postgres.Open(url), nil
	default:
		return nil, errUnsupportedDriver
	}
}

func (d *gormDatabase) Session(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

func (d *gormDatabase) IsSQLite() bool {
	return d.driver == "sqlite"
}

func (d *gormDatabase) IsPostgres() bool {
	return d.driver == "postgres"
}

func (d *gormDatabase) ConfigurePool(maxOpen, maxIdle int, maxLifetime time.Duration) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("access sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(maxLifetime)
	return nil
}

func (d *gormDatabase) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("access sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (d *gormDatabase) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("access sql db: %w", err)
	}
	return sqlDB.Close()
}
