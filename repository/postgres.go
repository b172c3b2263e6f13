package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/you/subwayviz/models"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS handoffs (
		id          UUID PRIMARY KEY,
		station     TEXT NOT NULL,
		records     JSONB NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		expires_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_handoffs_expires_at ON handoffs (expires_at)`,
}

// PostgresHandoffRepository stores handoffs in PostgreSQL
type PostgresHandoffRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresHandoffRepository connects to databaseURL and ensures the
// handoffs table exists
func NewPostgresHandoffRepository(ctx context.Context, databaseURL string) (*PostgresHandoffRepository, error) {
	if databaseURL == "" {
		return nil, errors.New("database url cannot be empty")
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	log.Info().Msg("Connected to PostgreSQL handoff store")
	return &PostgresHandoffRepository{pool: pool}, nil
}

// Save inserts h, replacing any handoff with the same ID
func (r *PostgresHandoffRepository) Save(ctx context.Context, h models.Handoff) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("invalid handoff: %w", err)
	}

	records, err := json.Marshal(h.Records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO handoffs (id, station, records, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			station = EXCLUDED.station,
			records = EXCLUDED.records,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
	`, h.ID, h.Station, records, h.CreatedAt, h.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert handoff: %w", err)
	}
	return nil
}

// Get returns the handoff with id, or ErrHandoffNotFound if it is missing
// or expired
func (r *PostgresHandoffRepository) Get(ctx context.Context, id uuid.UUID) (*models.Handoff, error) {
	var (
		h       models.Handoff
		records []byte
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, station, records, created_at, expires_at
		FROM handoffs
		WHERE id = $1 AND expires_at > NOW()
	`, id).Scan(&h.ID, &h.Station, &records, &h.CreatedAt, &h.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrHandoffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query handoff: %w", err)
	}

	if err := json.Unmarshal(records, &h.Records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	return &h, nil
}

// DeleteExpired removes every handoff expired at now
func (r *PostgresHandoffRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM handoffs WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired handoffs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresHandoffRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresHandoffRepository) Close() error {
	r.pool.Close()
	return nil
}
