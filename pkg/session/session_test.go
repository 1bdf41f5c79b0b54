package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"network-orchestrator-be/internal/entity"
	"network-orchestrator-be/internal/pkg/logger"
	"network-orchestrator-be/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore accepts reads but rejects every write.
type failingStore struct {
	store.Store
}

func (failingStore) Set(ctx context.Context, key string, value []byte) error {
	return errors.New("disk full")
}

func (failingStore) Delete(ctx context.Context, key string) error {
	return errors.New("disk full")
}

func floatPtr(f float64) *float64 { return &f }

func TestUpsertMetadata_CreatesAndMerges(t *testing.T) {
	kv := store.NewMemoryStore()
	s := NewStore(kv, logger.NewNopLogger())
	clock := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }
	ctx := context.Background()

	created, err := s.UpsertMetadata(ctx, "tab-1", entity.SessionMetadata{
		ContentID:       "dQw4w9WgXcQ",
		PlatformTag:     "youtube",
		PositionSeconds: floatPtr(42),
		DurationSeconds: floatPtr(212),
		Title:           "Song",
	})
	require.NoError(t, err)
	assert.Equal(t, "tab-1", created.ContextID)
	assert.Equal(t, clock, created.LastUpdated)

	clock = clock.Add(time.Minute)
	merged, err := s.UpsertMetadata(ctx, "tab-1", entity.SessionMetadata{PositionSeconds: floatPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, "dQw4w9WgXcQ", merged.ContentID, "unset fields are kept")
	assert.Equal(t, "Song", merged.Title)
	assert.Equal(t, 0.0, merged.PositionSeconds, "explicit zero position is applied")
	assert.Equal(t, clock, merged.LastUpdated)

	var persisted entity.Session
	require.NoError(t, store.GetJSON(ctx, kv, store.SessionKey("tab-1"), &persisted))
	assert.Equal(t, merged.ContentID, persisted.ContentID)
	assert.Equal(t, merged.PositionSeconds, persisted.PositionSeconds)
	assert.True(t, merged.LastUpdated.Equal(persisted.LastUpdated))
}

func TestRecordMovement_CreatesShell(t *testing.T) {
	s := NewStore(store.NewMemoryStore(), logger.NewNopLogger())

	sess, err := s.RecordMovement(context.Background(), "tab-2", entity.MovementSample{VelocityKmh: 72, ContextID: "tab-2"})
	require.NoError(t, err)

	assert.False(t, sess.HasContent())
	require.NotNil(t, sess.LastMovement)
	assert.Equal(t, 72.0, sess.LastMovement.VelocityKmh)

	got, ok := s.Get("tab-2")
	require.True(t, ok)
	got.LastMovement.VelocityKmh = 0
	again, _ := s.Get("tab-2")
	assert.Equal(t, 72.0, again.LastMovement.VelocityKmh, "Get returns copies")
}

func TestRemove(t *testing.T) {
	kv := store.NewMemoryStore()
	s := NewStore(kv, logger.NewNopLogger())
	ctx := context.Background()

	_, err := s.UpsertMetadata(ctx, "tab-1", entity.SessionMetadata{ContentID: "x"})
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, "tab-1"))

	_, ok := s.Get("tab-1")
	assert.False(t, ok)
	_, err = kv.Get(ctx, store.SessionKey("tab-1"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPersistenceFailureKeepsMemory(t *testing.T) {
	s := NewStore(failingStore{Store: store.NewMemoryStore()}, logger.NewNopLogger())

	_, err := s.UpsertMetadata(context.Background(), "tab-1", entity.SessionMetadata{ContentID: "abc"})
	assert.ErrorIs(t, err, ErrPersistence)

	got, ok := s.Get("tab-1")
	require.True(t, ok)
	assert.Equal(t, "abc", got.ContentID)
}

func TestRehydrate(t *testing.T) {
	kv := store.NewMemoryStore()
	ctx := context.Background()

	first := NewStore(kv, logger.NewNopLogger())
	_, err := first.UpsertMetadata(ctx, "tab-1", entity.SessionMetadata{ContentID: "a", PlatformTag: "youtube"})
	require.NoError(t, err)
	_, err = first.UpsertMetadata(ctx, "tab-2", entity.SessionMetadata{ContentID: "b", PlatformTag: "netflix"})
	require.NoError(t, err)
	require.NoError(t, kv.Set(ctx, store.SessionKey("broken"), []byte("{")))

	second := NewStore(kv, logger.NewNopLogger())
	n, err := second.Rehydrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	list := second.List()
	require.Len(t, list, 2)
	assert.Equal(t, "tab-1", list[0].ContextID)
	assert.Equal(t, "netflix", list[1].PlatformTag)
}
