package localcache

import (
	"context"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartsync/internal/domain"
)

func newTestCache(t *testing.T) *BadgerCache {
	t.Helper()
	cache, err := OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestLoad_Miss(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Load(context.Background())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	cart := &domain.Cart{Items: []domain.LineItem{
		{ID: "l1", ProductID: "p1", Quantity: 2, UnitPrice: 4.5, Name: "Widget"},
		{ID: "l2", ProductID: "p2", Quantity: 1},
	}}
	require.NoError(t, cache.Save(ctx, cart))

	got, err := cache.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "p1", got.Items[0].ProductID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.Equal(t, 4.5, got.Items[0].UnitPrice)
	assert.Equal(t, "p2", got.Items[1].ProductID)
}

func TestSave_Overwrites(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Save(ctx, &domain.Cart{Items: []domain.LineItem{{ID: "l1", ProductID: "p1", Quantity: 1}}}))
	require.NoError(t, cache.Save(ctx, &domain.Cart{}))

	got, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestLoad_CorruptEntryDegradesToMiss(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	err := cache.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cartKey, []byte("{not json"))
	})
	require.NoError(t, err)

	_, err = cache.Load(ctx)
	assert.ErrorIs(t, err, ErrCacheMiss, "corrupt entries surface as a miss, never a decode error")

	// next write replaces the corrupted entry
	require.NoError(t, cache.Save(ctx, &domain.Cart{Items: []domain.LineItem{{ID: "l1", ProductID: "p1", Quantity: 1}}}))
	got, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestAnonymousID_StableAcrossCalls(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	first, err := cache.AnonymousID(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := cache.AnonymousID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
