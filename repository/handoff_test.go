package repository_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/subwayviz/models"
	"github.com/you/subwayviz/repository"
)

// Tests of the handoff store implementations. The in-memory and sqlite
// stores always run, postgres only when DATABASE_URL is set.

type RepositoryBuilder func(t *testing.T) repository.HandoffRepository

func builders() map[string]RepositoryBuilder {
	b := map[string]RepositoryBuilder{
		"memory": func(t *testing.T) repository.HandoffRepository {
			return repository.NewMemoryHandoffRepository()
		},
		"sqlite": func(t *testing.T) repository.HandoffRepository {
			path := filepath.Join(t.TempDir(), "nested", "handoffs.db")
			r, err := repository.NewSQLiteHandoffRepository(context.Background(), path)
			require.NoError(t, err)
			return r
		},
	}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		b["postgres"] = func(t *testing.T) repository.HandoffRepository {
			r, err := repository.NewPostgresHandoffRepository(context.Background(), databaseURL)
			require.NoError(t, err)
			return r
		}
	}

	return b
}

func sampleRecords() []models.ArrivalRecord {
	return []models.ArrivalRecord{
		{LineName: "성수행 - 을지로입구방면", ArrivalMessage: "3분 후 (충정로)", SubwayID: "1002"},
		{LineName: "", ArrivalMessage: "전역 도착"},
	}
}

func forEachRepository(t *testing.T, test func(t *testing.T, r repository.HandoffRepository)) {
	for name, build := range builders() {
		t.Run(name, func(t *testing.T) {
			r := build(t)
			defer r.Close()
			test(t, r)
		})
	}
}

func TestSaveAndGet(t *testing.T) {
	forEachRepository(t, func(t *testing.T, r repository.HandoffRepository) {
		ctx := context.Background()
		h := models.NewHandoff("시청", sampleRecords(), time.Now(), time.Hour)

		require.NoError(t, r.Save(ctx, h))

		got, err := r.Get(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, h.ID, got.ID)
		assert.Equal(t, "시청", got.Station)
		assert.Equal(t, sampleRecords(), got.Records)
		assert.WithinDuration(t, h.CreatedAt, got.CreatedAt, time.Millisecond)
		assert.WithinDuration(t, h.ExpiresAt, got.ExpiresAt, time.Millisecond)
	})
}

func TestGetUnknown(t *testing.T) {
	forEachRepository(t, func(t *testing.T, r repository.HandoffRepository) {
		_, err := r.Get(context.Background(), uuid.New())
		assert.ErrorIs(t, err, repository.ErrHandoffNotFound)
	})
}

func TestGetExpired(t *testing.T) {
	forEachRepository(t, func(t *testing.T, r repository.HandoffRepository) {
		ctx := context.Background()
		h := models.NewHandoff("시청", sampleRecords(), time.Now().Add(-2*time.Hour), time.Hour)
		require.NoError(t, r.Save(ctx, h))

		_, err := r.Get(ctx, h.ID)
		assert.ErrorIs(t, err, repository.ErrHandoffNotFound)
	})
}

func TestDeleteExpired(t *testing.T) {
	forEachRepository(t, func(t *testing.T, r repository.HandoffRepository) {
		ctx := context.Background()
		now := time.Now()

		stale := models.NewHandoff("A", sampleRecords(), now.Add(-2*time.Hour), time.Hour)
		fresh := models.NewHandoff("B", sampleRecords(), now, time.Hour)
		require.NoError(t, r.Save(ctx, stale))
		require.NoError(t, r.Save(ctx, fresh))

		deleted, err := r.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, deleted, int64(1))

		_, err = r.Get(ctx, fresh.ID)
		assert.NoError(t, err)

		deleted, err = r.DeleteExpired(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(0), deleted)
	})
}

func TestStoredSnapshotIsIsolated(t *testing.T) {
	forEachRepository(t, func(t *testing.T, r repository.HandoffRepository) {
		ctx := context.Background()
		records := sampleRecords()
		h := models.NewHandoff("시청", records, time.Now(), time.Hour)
		require.NoError(t, r.Save(ctx, h))

		records[0].LineName = "mutated after handoff"
		h.Records[0].LineName = "mutated after save"

		got, err := r.Get(ctx, h.ID)
		require.NoError(t, err)
		got.Records[0].LineName = "mutated after get"

		again, err := r.Get(ctx, h.ID)
		require.NoError(t, err)
		assert.Equal(t, sampleRecords(), again.Records)
	})
}

func TestSaveRejectsInvalid(t *testing.T) {
	forEachRepository(t, func(t *testing.T, r repository.HandoffRepository) {
		err := r.Save(context.Background(), models.Handoff{})
		assert.Error(t, err)
	})
}

func TestPing(t *testing.T) {
	forEachRepository(t, func(t *testing.T, r repository.HandoffRepository) {
		assert.NoError(t, r.Ping(context.Background()))
	})
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	r, err := repository.Open(ctx, repository.Options{})
	require.NoError(t, err)
	assert.IsType(t, &repository.MemoryHandoffRepository{}, r)

	r, err = repository.Open(ctx, repository.Options{
		Store:      repository.StoreSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "h.db"),
	})
	require.NoError(t, err)
	assert.IsType(t, &repository.SQLiteHandoffRepository{}, r)
	require.NoError(t, r.Close())

	_, err = repository.Open(ctx, repository.Options{Store: repository.StorePostgres})
	assert.Error(t, err)

	_, err = repository.Open(ctx, repository.Options{Store: "redis"})
	assert.Error(t, err)
}

func TestMemoryLen(t *testing.T) {
	r := repository.NewMemoryHandoffRepository()
	ctx := context.Background()

	require.NoError(t, r.Save(ctx, models.NewHandoff("A", sampleRecords(), time.Now().Add(-time.Hour), time.Minute)))
	require.NoError(t, r.Save(ctx, models.NewHandoff("B", sampleRecords(), time.Now(), time.Hour)))
	assert.Equal(t, 2, r.Len())

	deleted, err := r.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	assert.Equal(t, 1, r.Len())
}
