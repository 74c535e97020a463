// Package postgres stores user accounts in PostgreSQL through a pgx pool,
// with queries built by goqu and schema managed by goose.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const dialect = "postgres"

// Options tunes the connection pool. Zero values keep pgx defaults.
type Options struct {
	// URL is a postgres:// connection string.
	URL string
	// MaxConns caps the number of pooled connections.
	MaxConns int32
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
}

// PgSQL holds the pgx pool and the database/sql view of it used by goqu and goose.
type PgSQL struct {
	DB      *sql.DB
	Builder *goqu.Database
	Pool    *pgxpool.Pool
}

// New creates the pool and verifies connectivity.
func New(ctx context.Context, opts Options) (*PgSQL, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("could not parse pgxpool config: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.ConnMaxLifetime > 0 {
		cfg.MaxConnLifetime = opts.ConnMaxLifetime
	}
	if opts.ConnMaxIdleTime > 0 {
		cfg.MaxConnIdleTime = opts.ConnMaxIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	// goqu and goose both speak database/sql
	sqlDB := stdlib.OpenDBFromPool(pool)

	return &PgSQL{
		DB:      sqlDB,
		Builder: goqu.New(dialect, sqlDB),
		Pool:    pool,
	}, nil
}

// Ping reports whether the database is reachable.
func (p *PgSQL) Ping(ctx context.Context) error {
	return p.Pool.Ping(ctx)
}

// Migrate applies all embedded migrations.
func (p *PgSQL) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("could not set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, p.DB, "migrations"); err != nil {
		return fmt.Errorf("could not migrate postgres: %w", err)
	}
	return nil
}

// Close releases the pool and its database/sql wrapper.
func (p *PgSQL) Close() error {
	_ = p.DB.Close()
	p.Pool.Close()
	return nil
}
