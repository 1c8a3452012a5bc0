// Package repo implements the persistence layer on top of GORM.
//
// Repositories are thin: they compose queries and map storage failures, but
// never apply business rules and never return domain failures. A lookup that
// finds nothing returns (nil, nil); callers decide what "missing" means.
//
// Two drivers are supported. SQLite (pure Go, glebarez/sqlite) is the
// default and is what tests use; Postgres (gorm.io/driver/postgres on pgx)
// is selected with DB_DRIVER=postgres.
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sqlite "github.com/glebarez/sqlite"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-commerce-backend/internal/config"
	"github.com/tbourn/go-commerce-backend/internal/domain"
)

// ErrDuplicate reports a unique constraint violation.
var ErrDuplicate = errors.New("repo: duplicate key")

// Open connects to the database selected by cfg, tunes the pool and, when
// traced is true, installs the OpenTelemetry GORM plugin.
func Open(cfg config.DBConfig, traced bool) (*gorm.DB, error) {
	var dial gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite, "":
		// Fail early on a missing parent directory instead of sqlite's
		// misleading "out of memory (14)".
		if dir := filepath.Dir(cfg.Path); dir != "." && !strings.HasPrefix(cfg.Path, "file:") {
			if _, err := os.Stat(dir); err != nil {
				return nil, err
			}
		}
		dial = sqlite.Open(cfg.Path)
	case config.DriverPostgres:
		dial = postgres.Open(cfg.URL)
	default:
		return nil, fmt.Errorf("repo: unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver != config.DriverPostgres {
		db.Exec("PRAGMA journal_mode=WAL;")
		db.Exec("PRAGMA synchronous=NORMAL;")
		db.Exec("PRAGMA foreign_keys=ON;")
		db.Exec("PRAGMA busy_timeout=5000;")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if traced {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("install tracing plugin: %w", err)
		}
	}
	return db, nil
}

// AutoMigrate creates or updates every table the application owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&OrderRow{},
		&WidgetRow{},
		&domain.Idempotency{},
	)
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// isUniqueViolation recognizes duplicate-key failures from every supported
// driver. glebarez/sqlite often reports them as plain text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// likePattern builds a case-insensitive substring pattern with LIKE
// metacharacters escaped (use with ESCAPE '\').
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + strings.ToLower(r.Replace(s)) + "%"
}
