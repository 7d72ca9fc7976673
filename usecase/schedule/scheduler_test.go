package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/repository"
	"github.com/fastygo/datewheel/repository/memory"
	"github.com/fastygo/datewheel/usecase"
)

type fakeCatalog struct {
	items []domain.Activity
}

func (c *fakeCatalog) List() []domain.Activity { return c.items }

func (c *fakeCatalog) Get(id string) (domain.Activity, bool) {
	for _, a := range c.items {
		if a.ID == id {
			return a, true
		}
	}
	return domain.Activity{}, false
}

func catalog() *fakeCatalog {
	return &fakeCatalog{items: []domain.Activity{
		{ID: "X", Name: "X"},
		{ID: "Y", Name: "Y"},
		{ID: "Z", Name: "Z"},
	}}
}

func newScheduler(store repository.KVStore, c Catalog, opts ...Option) *Scheduler {
	opts = append([]Option{WithLocation(time.UTC), WithRandom(usecase.SeededRandom(3))}, opts...)
	return New(store, c, nil, opts...)
}

func TestSlotDatesAreFridayEvenings(t *testing.T) {
	s := newScheduler(memory.NewKVStore(), catalog())

	dates := s.SlotDates(2026, time.July)
	require.Len(t, dates, 5)
	for i, day := range []int{3, 10, 17, 24, 31} {
		assert.Equal(t, time.Date(2026, time.July, day, 19, 0, 0, 0, time.UTC), dates[i])
	}

	assert.Len(t, s.SlotDates(2026, time.February), 4)
}

func TestSlotDatesHonourConfiguredSlot(t *testing.T) {
	s := newScheduler(memory.NewKVStore(), catalog(), WithSlot(time.Sunday, 11))

	dates := s.SlotDates(2026, time.March)
	require.NotEmpty(t, dates)
	assert.Equal(t, time.Date(2026, time.March, 1, 11, 0, 0, 0, time.UTC), dates[0])
	for _, d := range dates {
		assert.Equal(t, time.Sunday, d.Weekday())
	}
}

func TestPinnedSlotIsStable(t *testing.T) {
	ctx := context.Background()
	s := newScheduler(memory.NewKVStore(), catalog())

	_, err := s.Reassign(ctx, time.Date(2026, time.July, 3, 8, 30, 0, 0, time.UTC), "X")
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		slots, err := s.ScheduleFor(ctx, 2026, time.July)
		require.NoError(t, err)
		require.Len(t, slots, 5)
		require.NotNil(t, slots[0].Activity)
		assert.Equal(t, "X", slots[0].Activity.ID)
		assert.True(t, slots[0].Pinned)
		for _, slot := range slots[1:] {
			assert.False(t, slot.Pinned)
		}
	}
}

func TestFallbackIsAlwaysAValidActivity(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	c := catalog()
	s := newScheduler(store, c)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		slots, err := s.ScheduleFor(ctx, 2026, time.July)
		require.NoError(t, err)
		slot := slots[1]
		require.NotNil(t, slot.Activity)
		_, ok := c.Get(slot.Activity.ID)
		assert.True(t, ok)
		seen[slot.Activity.ID] = true
	}
	assert.Greater(t, len(seen), 1)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, found, err := store.Get(ctx, repository.KeyScheduled)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDanglingPinFallsBack(t *testing.T) {
	ctx := context.Background()
	c := catalog()
	s := newScheduler(memory.NewKVStore(), c)

	_, err := s.Reassign(ctx, time.Date(2026, time.July, 10, 19, 0, 0, 0, time.UTC), "Z")
	require.NoError(t, err)
	c.items = c.items[:2]

	slots, err := s.ScheduleFor(ctx, 2026, time.July)
	require.NoError(t, err)
	require.NotNil(t, slots[1].Activity)
	assert.False(t, slots[1].Pinned)
	assert.Contains(t, []string{"X", "Y"}, slots[1].Activity.ID)
}

func TestReassignUpsertsByDate(t *testing.T) {
	ctx := context.Background()
	s := newScheduler(memory.NewKVStore(), catalog())
	friday := time.Date(2026, time.April, 3, 19, 0, 0, 0, time.UTC)

	_, err := s.Reassign(ctx, friday, "X")
	require.NoError(t, err)
	_, err = s.Reassign(ctx, friday.Add(-2*time.Hour), "Y")
	require.NoError(t, err)
	_, err = s.Reassign(ctx, friday.AddDate(0, 0, 7), "Z")
	require.NoError(t, err)

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Date.Equal(friday))
	assert.Equal(t, "Y", entries[0].ActivityID)
	assert.Equal(t, "Z", entries[1].ActivityID)
}

func TestReassignValidation(t *testing.T) {
	ctx := context.Background()
	s := newScheduler(memory.NewKVStore(), catalog())

	_, err := s.Reassign(ctx, time.Date(2026, time.July, 3, 19, 0, 0, 0, time.UTC), "missing")
	assert.ErrorIs(t, err, domain.ErrActivityNotFound)

	_, err = s.Reassign(ctx, time.Date(2026, time.July, 4, 19, 0, 0, 0, time.UTC), "X")
	assert.ErrorIs(t, err, domain.ErrUnknownSlot)
}

func TestEmptyCatalogLeavesSlotsOpen(t *testing.T) {
	s := newScheduler(memory.NewKVStore(), &fakeCatalog{})

	slots, err := s.ScheduleFor(context.Background(), 2026, time.July)
	require.NoError(t, err)
	require.Len(t, slots, 5)
	for _, slot := range slots {
		assert.Nil(t, slot.Activity)
	}
}

func TestScheduleForRejectsInvalidMonth(t *testing.T) {
	s := newScheduler(memory.NewKVStore(), catalog())
	_, err := s.ScheduleFor(context.Background(), 2026, 13)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}
