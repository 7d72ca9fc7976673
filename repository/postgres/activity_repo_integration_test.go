//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/internal/config"
	pgInfra "github.com/fastygo/datewheel/internal/infrastructure/postgres"
)

func newMirror(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("datewheel"),
		postgrescontainer.WithUsername("datewheel"),
		postgrescontainer.WithPassword("datewheel"),
		postgrescontainer.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := &config.Config{
		Database:   config.DatabaseConfig{URL: connStr},
		Migrations: config.MigrationsConfig{Enabled: true},
	}
	require.NoError(t, pgInfra.RunMigrations(cfg, nil))

	pool, err := pgInfra.NewPool(ctx, cfg.Database, nil)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestActivityRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewActivityRepository(newMirror(t))

	picnic := &domain.Activity{
		ID:       "picnic",
		Name:     "Picnic",
		Emoji:    "🧺",
		Category: "outdoor",
		Moods:    []string{"relaxed", "romantic"},
		IsCustom: true,
		Season:   "summer",
	}
	require.NoError(t, repo.Upsert(ctx, picnic))

	at := time.Date(2026, time.July, 3, 19, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchUsage(ctx, "picnic", at))
	require.NoError(t, repo.TouchUsage(ctx, "picnic", at.Add(-time.Hour)))

	picnic.Name = "Sunset picnic"
	picnic.UsageCount = 0
	require.NoError(t, repo.Upsert(ctx, picnic))

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	got := items[0]
	assert.Equal(t, "Sunset picnic", got.Name)
	assert.Equal(t, []string{"relaxed", "romantic"}, got.Moods)
	assert.Equal(t, 2, got.UsageCount)
	require.NotNil(t, got.LastUsedAt)
	assert.True(t, got.LastUsedAt.Equal(at))

	assert.ErrorIs(t, repo.TouchUsage(ctx, "missing", at), domain.ErrActivityNotFound)

	require.NoError(t, repo.Delete(ctx, "picnic"))
	require.NoError(t, repo.Delete(ctx, "picnic"))
	items, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}
