package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// EnsureSchema creates the tables and indexes when they do not exist yet.
// Ran once at boot; safe to run against an already-initialized database.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schemaSQL)
	return err
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS workers (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL DEFAULT '',
	phone TEXT NOT NULL DEFAULT '',
	skills TEXT[] NOT NULL DEFAULT '{}',
	skill_level TEXT NOT NULL DEFAULT 'junior',
	certifications TEXT[] NOT NULL DEFAULT '{}',
	current_lat DOUBLE PRECISION,
	current_lng DOUBLE PRECISION,
	availability_status TEXT NOT NULL DEFAULT 'offline',
	max_tickets_per_day INT NOT NULL DEFAULT 8,
	performance_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	total_completed INT NOT NULL DEFAULT 0,
	first_time_fix_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
	service_areas TEXT[] NOT NULL DEFAULT '{}',
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS tickets (
	id BIGSERIAL PRIMARY KEY,
	tracking_token TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	severity TEXT NOT NULL DEFAULT 'P3',
	status TEXT NOT NULL DEFAULT 'new',
	category TEXT NOT NULL DEFAULT '',
	equipment_type TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	lat DOUBLE PRECISION,
	lng DOUBLE PRECISION,
	skills_required TEXT[] NOT NULL DEFAULT '{}',
	time_estimate_minutes INT NOT NULL DEFAULT 0,
	sla_deadline TIMESTAMPTZ,
	confidence_score DOUBLE PRECISION,
	assigned_worker_id BIGINT REFERENCES workers(id),
	customer_name TEXT NOT NULL DEFAULT '',
	customer_phone TEXT NOT NULL DEFAULT '',
	customer_email TEXT NOT NULL DEFAULT '',
	customer_tier TEXT NOT NULL DEFAULT 'standard',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS assignments (
	id BIGSERIAL PRIMARY KEY,
	ticket_id BIGINT NOT NULL REFERENCES tickets(id),
	worker_id BIGINT NOT NULL REFERENCES workers(id),
	status TEXT NOT NULL DEFAULT 'pending',
	assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	scheduled_time TIMESTAMPTZ,
	eta TIMESTAMPTZ,
	actual_arrival TIMESTAMPTZ,
	actual_completion TIMESTAMPTZ,
	travel_distance_km DOUBLE PRECISION,
	travel_time_minutes DOUBLE PRECISION,
	skill_match_score DOUBLE PRECISION,
	proximity_score DOUBLE PRECISION,
	overall_score DOUBLE PRECISION,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets (status);
CREATE INDEX IF NOT EXISTS idx_tickets_sla_deadline ON tickets (sla_deadline);
CREATE INDEX IF NOT EXISTS idx_assignments_ticket ON assignments (ticket_id);
CREATE INDEX IF NOT EXISTS idx_assignments_worker_status ON assignments (worker_id, status);
`
