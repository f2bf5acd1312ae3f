package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhood-matcher/internal/common/database"
)

func newMemoryStore(t *testing.T) *SQLiteStore {
	client, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store := NewSQLiteStore(client)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	sample := SampleNeighborhoods()

	require.NoError(t, store.UpsertMany(ctx, sample))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	got, err := store.GetNeighborhoods(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample, got)
}

func TestSQLiteStore_UpsertReplacesAndReorders(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)
	sample := SampleNeighborhoods()
	require.NoError(t, store.UpsertMany(ctx, sample))

	changed := sample[0]
	changed.DataQuality = 0.5
	require.NoError(t, store.UpsertMany(ctx, append(sample[1:2:2], changed)))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, count)

	n, err := store.GetNeighborhood(ctx, "soma-sf")
	require.NoError(t, err)
	assert.Equal(t, 0.5, n.DataQuality)
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := newMemoryStore(t)
	assert.Equal(t, "sqlite", store.Name())

	_, err := store.GetNeighborhood(context.Background(), "soma-sf")
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.GetNeighborhoods(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}
