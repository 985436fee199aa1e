package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Querier is the subset of pgxpool.Pool the store needs.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists resume analyses and profiles. Row-level ownership is enforced
// by scoping every read to the owning user id.
type Store struct {
	db     Querier
	logger *zap.Logger
}

func New(db Querier, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Connect opens a pgx connection pool and pings it to ensure connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pgx config: %w", err)
	}
	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("open pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
CREATE TABLE IF NOT EXISTS profiles (
	id UUID PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS resumes (
	id UUID PRIMARY KEY,
	owner_id UUID NOT NULL,
	filename TEXT NOT NULL,
	file_url TEXT NOT NULL,
	extracted_text TEXT,
	score DOUBLE PRECISION NOT NULL DEFAULT 0,
	experience_level TEXT NOT NULL DEFAULT 'entry-level',
	total_experience DOUBLE PRECISION NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'processing',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS skills (
	id BIGSERIAL PRIMARY KEY,
	resume_id UUID NOT NULL REFERENCES resumes(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	category TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	years DOUBLE PRECISION
);
CREATE TABLE IF NOT EXISTS feedback (
	id BIGSERIAL PRIMARY KEY,
	resume_id UUID NOT NULL REFERENCES resumes(id) ON DELETE CASCADE,
	suggestion TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS job_listings (
	id BIGSERIAL PRIMARY KEY,
	resume_id UUID NOT NULL REFERENCES resumes(id) ON DELETE CASCADE,
	title TEXT NOT NULL,
	company TEXT NOT NULL,
	location TEXT NOT NULL,
	match_percentage DOUBLE PRECISION NOT NULL DEFAULT 0,
	apply_url TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	salary_range TEXT NOT NULL DEFAULT 'Not specified',
	required_experience TEXT NOT NULL DEFAULT 'Not specified',
	job_type TEXT NOT NULL DEFAULT 'Not specified'
);
`)
	return err
}
