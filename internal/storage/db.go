// Package db is the persistent store for market signals and the audit
// tables written around each run. It runs on Postgres (pgx) or SQLite
// (modernc, no cgo) through sqlx, with goose migrations shared by both.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/mpull123/thriftpulse/internal/core/ports"
	"github.com/mpull123/thriftpulse/migrations"
)

// Drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Database pool default constants
const (
	defaultMaxConns          int32         = 10
	defaultMinConns          int32         = 1
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute

	sqlitePragmas   = "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	migrationLockID = 4711
)

// DB wraps the sqlx handle and implements ports.Store.
type DB struct {
	X      *sqlx.DB
	Driver string
	Logger *zerolog.Logger

	pool *pgxpool.Pool
	now  func() time.Time
}

var _ ports.Store = (*DB)(nil)

// PoolOptions configures the Postgres connection pool.
type PoolOptions struct {
	MaxConns          int32
	MinConns          int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
}

// DefaultPoolOptions returns sensible default pool configuration.
func DefaultPoolOptions() PoolOptions {
	return PoolOptions{
		MaxConns:          defaultMaxConns,
		MinConns:          defaultMinConns,
		MaxConnIdleTime:   defaultMaxConnIdleTime,
		MaxConnLifetime:   defaultMaxConnLifetime,
		HealthCheckPeriod: defaultHealthCheckPeriod,
	}
}

// Options selects and configures the backend.
type Options struct {
	Driver      string
	PostgresDSN string
	SQLitePath  string
	Pool        PoolOptions
}

// Open connects to the configured backend.
func Open(ctx context.Context, opts Options, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	switch opts.Driver {
	case DriverPostgres:
		return openPostgres(ctx, opts.PostgresDSN, opts.Pool, logger)
	case DriverSQLite, "":
		return OpenSQLite(ctx, opts.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string, logger *zerolog.Logger) (*DB, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	raw, err := sql.Open("sqlite", path+sqlitePragmas)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// sqlite3 selects '?' bind vars in sqlx.
	x := sqlx.NewDb(raw, "sqlite3")
	x.SetMaxOpenConns(1)

	if err := x.PingContext(ctx); err != nil {
		_ = x.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &DB{X: x, Driver: DriverSQLite, Logger: logger, now: time.Now}, nil
}

func openPostgres(ctx context.Context, dsn string, opts PoolOptions, logger *zerolog.Logger) (*DB, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	applyPoolOptions(config, opts)

	pool, err := connectWithRetries(ctx, config)
	if err != nil {
		return nil, err
	}

	return &DB{
		X:      sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx"),
		Driver: DriverPostgres,
		Logger: logger,
		pool:   pool,
		now:    time.Now,
	}, nil
}

// applyPoolOptions applies non-zero pool options to the config.
func applyPoolOptions(config *pgxpool.Config, opts PoolOptions) {
	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}

	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}

	if opts.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	if opts.MaxConnLifetime > 0 {
		config.MaxConnLifetime = opts.MaxConnLifetime
	}

	if opts.HealthCheckPeriod > 0 {
		config.HealthCheckPeriod = opts.HealthCheckPeriod
	}
}

// connectWithRetries attempts to connect to the database with retries.
func connectWithRetries(ctx context.Context, config *pgxpool.Config) (*pgxpool.Pool, error) {
	var (
		pool *pgxpool.Pool
		err  error
	)

	for range maxConnectionRetries {
		pool, err = pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
		}

		if pool != nil {
			pool.Close()
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to database: %w", ctx.Err())
		case <-time.After(ConnectionRetrySleep):
		}
	}

	return nil, fmt.Errorf("failed to connect to database after retries: %w", err)
}

// Close closes the handle and, on Postgres, the pool behind it.
func (db *DB) Close() error {
	err := db.X.Close()

	if db.pool != nil {
		db.pool.Close()
	}

	return err
}

// Ping implements ports.HealthChecker.
func (db *DB) Ping(ctx context.Context) error {
	return db.X.PingContext(ctx)
}

type gooseLogger struct {
	logger *zerolog.Logger
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Fatal().Msgf(format, v...)
}

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info().Msgf(format, v...)
}

// Migrate applies pending migrations. On Postgres an advisory lock keeps
// concurrent instances from migrating at once.
func (db *DB) Migrate(ctx context.Context) error {
	dialect := "sqlite3"

	if db.Driver == DriverPostgres {
		dialect = "postgres"

		conn, err := db.pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("acquire connection: %w", err)
		}
		defer conn.Release()

		if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockID); err != nil {
			return fmt.Errorf("acquire advisory lock: %w", err)
		}

		defer func() {
			_, _ = conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockID)
		}()
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(&gooseLogger{logger: db.Logger})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db.X.DB, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}

	return t
}
