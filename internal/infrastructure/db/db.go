// Package db opens the user store named by DATABASE_URL.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/handyhub/accounts/internal/core/ports"
	"github.com/handyhub/accounts/internal/infrastructure/config"
	mongodb "github.com/handyhub/accounts/internal/infrastructure/db/mongo"
	"github.com/handyhub/accounts/internal/infrastructure/db/postgres"
)

type Backend string

const (
	BackendMongo    Backend = "mongo"
	BackendPostgres Backend = "postgres"
)

var ErrUnsupportedScheme = errors.New("unsupported database url scheme")

// DetectBackend picks the backend from the scheme of url.
func DetectBackend(url string) (Backend, error) {
	scheme, _, ok := strings.Cut(url, "://")
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, url)
	}
	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// Store is an open user store.
type Store struct {
	Backend Backend
	Users   ports.UserRepository

	ping    func(context.Context) error
	migrate func(context.Context) error
	close   func(context.Context) error
}

// Open connects to the backend named by cfg.URL.
func Open(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*Store, error) {
	backend, err := DetectBackend(cfg.URL)
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendMongo:
		client, database, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.URL, Database: cfg.Name})
		if err != nil {
			return nil, err
		}
		repo := mongodb.NewUserRepository(database)
		log.Info().Str("database", cfg.Name).Msg("connected to mongodb")
		return &Store{
			Backend: backend,
			Users:   repo,
			ping:    func(ctx context.Context) error { return client.Ping(ctx, nil) },
			migrate: repo.EnsureIndexes,
			close:   client.Disconnect,
		}, nil

	default:
		pg, err := postgres.New(ctx, postgres.Options{URL: cfg.URL})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("connected to postgres")
		return &Store{
			Backend: backend,
			Users:   postgres.NewUserRepository(pg.Builder),
			ping:    pg.Ping,
			migrate: pg.Migrate,
			close:   func(context.Context) error { return pg.Close() },
		}, nil
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Migrate brings the schema up to date: goose migrations on PostgreSQL,
// index creation on MongoDB. Both are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.migrate(ctx); err != nil {
		return fmt.Errorf("migrate %s: %w", s.Backend, err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.close(ctx)
}
