package settings

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/repository"
	"github.com/fastygo/datewheel/repository/memory"
)

func TestGetReturnsDefaultsWhenAbsent(t *testing.T) {
	svc := New(memory.NewKVStore(), nil)
	got, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
}

func TestGetFillsMissingFieldsFromDefaults(t *testing.T) {
	store := memory.NewKVStore()
	require.NoError(t, store.Set(context.Background(), repository.KeySettings, json.RawMessage(`{"theme":"dark"}`)))

	got, err := New(store, nil).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, got.Theme)
	assert.True(t, got.SoundEnabled)
	assert.True(t, got.ShowConfetti)
}

func TestUpdateMergesAndPersists(t *testing.T) {
	ctx := context.Background()
	store := memory.NewKVStore()
	svc := New(store, nil)

	off := false
	count := 2
	at := time.Date(2026, time.May, 1, 10, 0, 0, 0, time.UTC)
	got, err := svc.Update(ctx, domain.SettingsPatch{SoundEnabled: &off, OnboardingShownCount: &count, LastOnboardingDate: &at})
	require.NoError(t, err)
	assert.False(t, got.SoundEnabled)
	assert.True(t, got.ShowConfetti)
	assert.Equal(t, 2, got.OnboardingShownCount)

	reloaded, err := New(store, nil).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, got.SoundEnabled, reloaded.SoundEnabled)
	require.NotNil(t, reloaded.LastOnboardingDate)
	assert.True(t, at.Equal(*reloaded.LastOnboardingDate))
}

func TestUpdateRejectsUnknownTheme(t *testing.T) {
	theme := "sepia"
	_, err := New(memory.NewKVStore(), nil).Update(context.Background(), domain.SettingsPatch{Theme: &theme})
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
}

func TestToggleTheme(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.NewKVStore(), nil)

	got, err := svc.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeDark, got.Theme)

	got, err = svc.ToggleTheme(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ThemeLight, got.Theme)
}

func TestMalformedSettingsReadAsDefaults(t *testing.T) {
	store := memory.NewKVStore()
	require.NoError(t, store.Set(context.Background(), repository.KeySettings, json.RawMessage(`[1,2]`)))

	got, err := New(store, nil).Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSettings(), got)
}
