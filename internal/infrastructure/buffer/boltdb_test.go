package buffer

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/datewheel/internal/infrastructure/boltdb"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "outbox.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s, err := New(db, "")
	require.NoError(t, err)
	return s
}

func TestEnqueuePeekIsFIFO(t *testing.T) {
	s := newStore(t)
	for _, op := range []string{"create", "update", "delete"} {
		require.NoError(t, s.Enqueue(Item{Entity: EntityActivity, Operation: op, ActivityID: "42"}))
	}

	items, err := s.Peek(10)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "create", items[0].Operation)
	assert.Equal(t, "update", items[1].Operation)
	assert.Equal(t, "delete", items[2].Operation)
	assert.NotEmpty(t, items[0].ID)
	assert.False(t, items[0].Timestamp.IsZero())

	items, err = s.Peek(2)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestRemoveAndSize(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Enqueue(Item{Entity: EntityActivity, Operation: "create", ActivityID: "1"}))
	require.NoError(t, s.Enqueue(Item{Entity: EntityUsage, Operation: "touch", ActivityID: "1"}))

	items, err := s.Peek(1)
	require.NoError(t, err)
	require.NoError(t, s.Remove(items[0]))

	size, err := s.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	assert.Error(t, s.Remove(Item{ID: "never-read"}))
}

func TestMarkFailedKeepsPosition(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Enqueue(Item{Entity: EntityActivity, Operation: "create", ActivityID: "1"}))
	require.NoError(t, s.Enqueue(Item{Entity: EntityActivity, Operation: "update", ActivityID: "1"}))

	items, err := s.Peek(1)
	require.NoError(t, err)
	_, err = s.MarkFailed(items[0], errors.New("connection refused"))
	require.NoError(t, err)

	items, err = s.Peek(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "create", items[0].Operation)
	assert.Equal(t, 1, items[0].Retries)
	assert.Equal(t, "connection refused", items[0].LastError)
}

func TestCleanupDropsOldItems(t *testing.T) {
	s := newStore(t)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, s.Enqueue(Item{Entity: EntityActivity, Operation: "create", ActivityID: "1", Timestamp: old}))
	require.NoError(t, s.Enqueue(Item{Entity: EntityActivity, Operation: "update", ActivityID: "1", Timestamp: old}))
	require.NoError(t, s.Enqueue(Item{Entity: EntityActivity, Operation: "delete", ActivityID: "1"}))

	removed, err := s.Cleanup(time.Now().Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	items, err := s.Peek(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "delete", items[0].Operation)
}

func TestNilStore(t *testing.T) {
	var s *Store
	_, err := s.Size()
	assert.Error(t, err)
	assert.Error(t, s.Enqueue(Item{}))
}

func TestPeekDiscardsUndecodableItems(t *testing.T) {
	db, err := boltdb.Open(filepath.Join(t.TempDir(), "outbox.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	core, logs := observer.New(zapcore.WarnLevel)
	s, err := New(db, "outbox", WithLogger(zap.New(core)))
	require.NoError(t, err)

	require.NoError(t, s.Enqueue(Item{Entity: EntityActivity, Operation: "create", ActivityID: "1"}))
	require.NoError(t, db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte("outbox"))
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		return b.Put(sequenceKey(seq), []byte("{not json"))
	}))
	require.NoError(t, s.Enqueue(Item{Entity: EntityActivity, Operation: "update", ActivityID: "1"}))

	size, err := s.Size()
	require.NoError(t, err)
	require.Equal(t, 3, size)

	items, err := s.Peek(10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "create", items[0].Operation)
	assert.Equal(t, "update", items[1].Operation)

	size, err = s.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)
	assert.Equal(t, 1, logs.FilterMessage("undecodable outbox items discarded").Len())
}
