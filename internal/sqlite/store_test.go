package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttle-router/internal/database"
	"shuttle-router/internal/testutil"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNew_HealthCheck(t *testing.T) {
	store := setupTestStore(t)
	require.NoError(t, store.HealthCheck(context.Background()))
	assert.Equal(t, MemoryPath, store.GetDBPath())
}

func TestNew_ReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.Runs().Create(ctx, testutil.SampleResult("run-a"), ""))
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()

	var version int
	require.NoError(t, store.db.QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, schemaVersion, version)

	_, total, err := store.Runs().List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRuns_CreateAndGet(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	in := testutil.SampleResult("run-1")
	in.Warnings = []string{"search stopped early (time_budget); returning the best solution found"}
	require.NoError(t, store.Runs().Create(ctx, in, "morning shift"))

	got, err := store.Runs().GetByID(ctx, "run-1")
	require.NoError(t, err)

	assert.Equal(t, in.RunID, got.RunID)
	assert.WithinDuration(t, in.CreatedAt, got.CreatedAt, time.Second)
	assert.Equal(t, in.Summary, got.Summary)
	assert.Equal(t, in.Warnings, got.Warnings)
	require.Len(t, got.Routes, 2)
	for i := range in.Routes {
		assert.Equal(t, in.Routes[i].VehicleID, got.Routes[i].VehicleID)
		assert.Equal(t, in.Routes[i].Load, got.Routes[i].Load)
		assert.Equal(t, in.Routes[i].Stops, got.Routes[i].Stops)
		assert.Equal(t, in.Routes[i].LoadSequence(), got.Routes[i].LoadSequence())
	}
}

func TestRuns_GetMissing(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.Runs().GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, database.ErrNotFound)
}

func TestRuns_CreateDuplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Runs().Create(ctx, testutil.SampleResult("dup"), ""))
	err := store.Runs().Create(ctx, testutil.SampleResult("dup"), "")
	require.ErrorIs(t, err, database.ErrDuplicateRun)
}

func TestRuns_CreateRequiresID(t *testing.T) {
	store := setupTestStore(t)
	require.Error(t, store.Runs().Create(context.Background(), testutil.SampleResult(""), ""))
}

func TestRuns_ListPaginationNewestFirst(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 7, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := testutil.SampleResult(fmt.Sprintf("run-%d", i))
		r.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, store.Runs().Create(ctx, r, fmt.Sprintf("note %d", i)))
	}

	page, total, err := store.Runs().List(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "run-4", page[0].ID)
	assert.Equal(t, "run-3", page[1].ID)
	assert.Equal(t, "note 4", page[0].Notes)
	assert.Equal(t, 8.0, page[0].TotalDistance)

	page, _, err = store.Runs().List(ctx, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "run-0", page[0].ID)
}

func TestRuns_DeleteCascades(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Runs().Create(ctx, testutil.SampleResult("gone"), ""))
	require.NoError(t, store.Runs().Delete(ctx, "gone"))

	var stops int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM run_stops WHERE run_id = ?", "gone").Scan(&stops))
	assert.Equal(t, 0, stops)

	require.ErrorIs(t, store.Runs().Delete(ctx, "gone"), database.ErrNotFound)
	_, err := store.Runs().GetByID(ctx, "gone")
	require.ErrorIs(t, err, database.ErrNotFound)
}
