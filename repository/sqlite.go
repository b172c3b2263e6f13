package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/you/subwayviz/models"

	_ "modernc.org/sqlite"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS handoffs (
		id          TEXT PRIMARY KEY,
		station     TEXT NOT NULL,
		records     TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		expires_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_handoffs_expires_at ON handoffs (expires_at)`,
}

// sqliteTimeLayout is fixed-width so UTC timestamps compare correctly as text
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteHandoffRepository stores handoffs in a SQLite database
type SQLiteHandoffRepository struct {
	db *sql.DB
}

// NewSQLiteHandoffRepository opens (creating if needed) the database at
// dbPath and ensures the handoffs table exists
func NewSQLiteHandoffRepository(ctx context.Context, dbPath string) (*SQLiteHandoffRepository, error) {
	if dbPath == "" {
		return nil, errors.New("sqlite database path cannot be empty")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	log.Info().Str("path", dbPath).Msg("Connected to SQLite handoff store")
	return &SQLiteHandoffRepository{db: db}, nil
}

// Save inserts h, replacing any handoff with the same ID
func (r *SQLiteHandoffRepository) Save(ctx context.Context, h models.Handoff) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("invalid handoff: %w", err)
	}

	records, err := json.Marshal(h.Records)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO handoffs (id, station, records, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		h.ID.String(),
		h.Station,
		string(records),
		h.CreatedAt.UTC().Format(sqliteTimeLayout),
		h.ExpiresAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert handoff: %w", err)
	}
	return nil
}

// Get returns the handoff with id, or ErrHandoffNotFound if it is missing
// or expired
func (r *SQLiteHandoffRepository) Get(ctx context.Context, id uuid.UUID) (*models.Handoff, error) {
	var (
		h                   models.Handoff
		idStr, records      string
		createdAt, expireAt string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, station, records, created_at, expires_at
		FROM handoffs
		WHERE id = ?
	`, id.String()).Scan(&idStr, &h.Station, &records, &createdAt, &expireAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHandoffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query handoff: %w", err)
	}

	if h.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse handoff id: %w", err)
	}
	if h.CreatedAt, err = time.Parse(sqliteTimeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if h.ExpiresAt, err = time.Parse(sqliteTimeLayout, expireAt); err != nil {
		return nil, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if err := json.Unmarshal([]byte(records), &h.Records); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}

	if h.Expired(time.Now()) {
		return nil, ErrHandoffNotFound
	}
	return &h, nil
}

// DeleteExpired removes every handoff expired at now
func (r *SQLiteHandoffRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM handoffs WHERE expires_at <= ?`,
		now.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired handoffs: %w", err)
	}
	deleted, _ := result.RowsAffected()
	return deleted, nil
}

func (r *SQLiteHandoffRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteHandoffRepository) Close() error {
	return r.db.Close()
}
