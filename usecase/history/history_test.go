package history

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/datewheel/repository"
	"github.com/fastygo/datewheel/repository/memory"
)

func TestAppendListClear(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	log := New(store, nil)

	first := time.Date(2026, time.March, 6, 19, 0, 0, 0, time.UTC)
	_, err := log.Append(ctx, "3", first)
	require.NoError(t, err)
	entry, err := log.Append(ctx, "7", first.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, first.Add(time.Minute).UnixMilli(), entry.Timestamp)

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "3", entries[0].ActivityID)
	assert.Equal(t, "7", entries[1].ActivityID)
	assert.True(t, entries[0].Time().Equal(first))

	raw, ok, err := store.Get(ctx, repository.KeySpinHistory)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"timestamp":1772823600000,"activityId":"3"},{"timestamp":1772823660000,"activityId":"7"}]`, string(raw))

	require.NoError(t, log.Clear(ctx))
	entries, err = log.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestMalformedHistoryStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	require.NoError(t, store.Set(ctx, repository.KeySpinHistory, json.RawMessage(`{"bad":true}`)))

	log := New(store, nil)
	entries, err := log.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = log.Append(ctx, "1", time.Time{})
	require.NoError(t, err)
	entries, err = log.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
