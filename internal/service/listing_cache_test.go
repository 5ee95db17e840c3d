package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ingenia-api/internal/models"
	appErrors "github.com/noah-isme/ingenia-api/pkg/errors"
)

type memoryListingStore struct {
	entries map[string][]byte
	gens    map[string]int64
	failGen bool
}

func newMemoryListingStore() *memoryListingStore {
	return &memoryListingStore{entries: map[string][]byte{}, gens: map[string]int64{}}
}

func (m *memoryListingStore) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryListingStore) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryListingStore) Generation(_ context.Context, name string) (int64, error) {
	if m.failGen {
		return 0, errors.New("redis down")
	}
	return m.gens[name], nil
}

func (m *memoryListingStore) Bump(_ context.Context, name string) (int64, error) {
	m.gens[name]++
	return m.gens[name], nil
}

func TestListingCacheFillsHitsAndInvalidates(t *testing.T) {
	store := newMemoryListingStore()
	cache := NewListingCache(store, NewMetricsService(), time.Minute, nil, true)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) ([]models.ActivitySummary, error) {
		loads++
		return []models.ActivitySummary{{ID: "a1", Title: "Puentes"}}, nil
	}

	items, err := cache.Load(ctx, listingPublic, load)
	require.NoError(t, err)
	require.Len(t, items, 1)
	_, err = cache.Load(ctx, listingPublic, load)
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
	assert.Contains(t, store.entries, "listings:public:v0")

	cache.Invalidate(ctx)
	_, err = cache.Load(ctx, listingPublic, load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
	assert.Contains(t, store.entries, "listings:public:v1")
}

func TestListingCacheFallsThrough(t *testing.T) {
	ctx := context.Background()
	calls := 0
	load := func(context.Context) ([]models.ActivitySummary, error) {
		calls++
		return nil, nil
	}

	disabled := NewListingCache(newMemoryListingStore(), nil, 0, nil, false)
	assert.Nil(t, disabled)
	_, err := disabled.Load(ctx, listingMarketplace, load)
	require.NoError(t, err)
	disabled.Invalidate(ctx)

	broken := newMemoryListingStore()
	broken.failGen = true
	_, err = NewListingCache(broken, nil, 0, nil, true).Load(ctx, listingMarketplace, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Empty(t, broken.entries)
}

func TestListingCacheDoesNotStoreFailures(t *testing.T) {
	store := newMemoryListingStore()
	cache := NewListingCache(store, nil, time.Minute, nil, true)

	_, err := cache.Load(context.Background(), listingPublic, func(context.Context) ([]models.ActivitySummary, error) {
		return nil, appErrors.Clone(appErrors.ErrRemote, "down")
	})
	require.Error(t, err)
	assert.Empty(t, store.entries)
}
