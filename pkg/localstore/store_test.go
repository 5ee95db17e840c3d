package localstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressKey(t *testing.T) {
	assert.Equal(t, "activity-progress:act-1", ProgressKey("act-1"))
	assert.Equal(t, "activity-progress:local", ProgressKey(""))
}

func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	_, ok, err := s.Get(ctx, DraftKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, DraftKey, []byte(`{"title":"a"}`)))
	require.NoError(t, s.Set(ctx, DraftKey, []byte(`{"title":"b"}`)))
	raw, ok, err := s.Get(ctx, DraftKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"title":"b"}`, string(raw))

	require.NoError(t, SetJSON(ctx, s, ProgressKey("act-1"), map[string]int{"current": 2}))
	var decoded map[string]int
	found, err := GetJSON(ctx, s, ProgressKey("act-1"), &decoded)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 2, decoded["current"])

	_, ok, err = s.Get(ctx, ProgressKey("act-2"))
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Remove(ctx, DraftKey))
	require.NoError(t, s.Remove(ctx, DraftKey))
	_, ok, err = s.Get(ctx, DraftKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	exerciseStore(t, s)
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, DraftRemoteIDKey, []byte("act-9")))

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	raw, ok, err := second.Get(ctx, DraftRemoteIDKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "act-9", string(raw))
}
