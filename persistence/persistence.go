// Package persistence opens the bun database handle for the configured
// driver and applies the embedded goose migrations.
package persistence

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals
var gooseMu sync.Mutex

// Option configures Open
type Option func(*options)

type options struct {
	logger       *logrus.Entry
	maxOpenConns int
}

// WithQueryLogger logs every statement at debug level
func WithQueryLogger(logger *logrus.Entry) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxOpenConns caps the pool size
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		o.maxOpenConns = n
	}
}

// Open connects to driver ("sqlite" or "postgres") and pings it
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*bun.DB, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	var (
		sqldb *sql.DB
		db    *bun.DB
		err   error
	)

	switch driver {
	case DriverSQLite:
		sqldb, err = sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		// every connection to :memory: is a fresh database
		if isInMemory(dsn) {
			sqldb.SetMaxOpenConns(1)
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err = sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("db open error: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	if o.maxOpenConns > 0 && !(driver == DriverSQLite && isInMemory(dsn)) {
		sqldb.SetMaxOpenConns(o.maxOpenConns)
	}

	if o.logger != nil {
		db.AddQueryHook(&queryLogger{logger: o.logger})
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return db, nil
}

// Migrate applies all pending migrations for driver
func Migrate(ctx context.Context, db *bun.DB, driver string) error {
	dir, dialect, err := migrationSource(driver)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration dialect error: %w", err)
	}

	if err := goose.UpContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// Rollback reverts the most recent migration for driver
func Rollback(ctx context.Context, db *bun.DB, driver string) error {
	dir, dialect, err := migrationSource(driver)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration dialect error: %w", err)
	}

	if err := goose.DownContext(ctx, db.DB, dir); err != nil {
		return fmt.Errorf("rollback error: %w", err)
	}
	return nil
}

// Migrations lists the embedded migration files for driver
func Migrations(driver string) ([]string, error) {
	dir, _, err := migrationSource(driver)
	if err != nil {
		return nil, err
	}
	return fs.Glob(migrations, dir+"/*.sql")
}

func migrationSource(driver string) (dir, dialect string, err error) {
	switch driver {
	case DriverSQLite:
		return "migrations/sqlite", "sqlite3", nil
	case DriverPostgres:
		return "migrations/postgres", "pgx", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q", driver)
	}
}

func isInMemory(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

type queryLogger struct {
	logger *logrus.Entry
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	entry := h.logger.WithFields(logrus.Fields{
		"operation": event.Operation(),
		"duration":  time.Since(event.StartTime).String(),
	})
	// statement text is not logged, it carries bound password hashes
	if event.Err != nil && event.Err != sql.ErrNoRows {
		entry.WithField("error", event.Err.Error()).Warn("query failed")
		return
	}
	entry.Debug("query")
}
