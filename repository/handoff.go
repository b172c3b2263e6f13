package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/you/subwayviz/models"
)

// ErrHandoffNotFound is returned for unknown or expired handoff IDs
var ErrHandoffNotFound = errors.New("handoff not found")

// Store names a handoff backend
type Store string

const (
	StoreMemory   Store = "memory"
	StoreSQLite   Store = "sqlite"
	StorePostgres Store = "postgres"
)

// HandoffRepository keeps short-lived record snapshots between the query
// and visualization screens
type HandoffRepository interface {
	Save(ctx context.Context, h models.Handoff) error
	Get(ctx context.Context, id uuid.UUID) (*models.Handoff, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend
type Options struct {
	Store       Store
	SQLitePath  string
	DatabaseURL string
}

// Open creates the configured handoff repository
func Open(ctx context.Context, opts Options) (HandoffRepository, error) {
	switch opts.Store {
	case StoreMemory, "":
		return NewMemoryHandoffRepository(), nil
	case StoreSQLite:
		r, err := NewSQLiteHandoffRepository(ctx, opts.SQLitePath)
		if err != nil {
			return nil, err
		}
		return r, nil
	case StorePostgres:
		r, err := NewPostgresHandoffRepository(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unknown handoff store: %q", opts.Store)
}

// MemoryHandoffRepository is the default in-process store
type MemoryHandoffRepository struct {
	mu       sync.RWMutex
	handoffs map[uuid.UUID]models.Handoff
	now      func() time.Time
}

// NewMemoryHandoffRepository creates an empty in-memory store
func NewMemoryHandoffRepository() *MemoryHandoffRepository {
	return &MemoryHandoffRepository{
		handoffs: make(map[uuid.UUID]models.Handoff),
		now:      time.Now,
	}
}

// Save stores a copy of h
func (r *MemoryHandoffRepository) Save(ctx context.Context, h models.Handoff) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("invalid handoff: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handoffs[h.ID] = h.Clone()
	return nil
}

// Get returns a copy of the handoff, or ErrHandoffNotFound
func (r *MemoryHandoffRepository) Get(ctx context.Context, id uuid.UUID) (*models.Handoff, error) {
	r.mu.RLock()
	h, ok := r.handoffs[id]
	r.mu.RUnlock()

	if !ok || h.Expired(r.now()) {
		return nil, ErrHandoffNotFound
	}
	out := h.Clone()
	return &out, nil
}

// DeleteExpired removes every handoff expired at now
func (r *MemoryHandoffRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, h := range r.handoffs {
		if h.Expired(now) {
			delete(r.handoffs, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored handoffs, expired or not
func (r *MemoryHandoffRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handoffs)
}

func (r *MemoryHandoffRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryHandoffRepository) Close() error {
	return nil
}
