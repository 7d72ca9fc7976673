package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/repository"
)

type activityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository returns the Postgres mirror of the activity collection.
func NewActivityRepository(pool *pgxpool.Pool) repository.ActivityRepository {
	return &activityRepository{pool: pool}
}

func (r *activityRepository) List(ctx context.Context) ([]domain.Activity, error) {
	const query = `
	SELECT id, name, emoji, description, category, moods, is_custom, season, last_used_at, usage_count
	FROM activities
	ORDER BY created_at, id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]domain.Activity, 0)
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

// Upsert writes the editable fields. Usage columns are only set on insert;
// afterwards they move through TouchUsage alone.
func (r *activityRepository) Upsert(ctx context.Context, a *domain.Activity) error {
	if a == nil || a.ID == "" {
		return domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO activities (id, name, emoji, description, category, moods, is_custom, season, last_used_at, usage_count)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		emoji = EXCLUDED.emoji,
		description = EXCLUDED.description,
		category = EXCLUDED.category,
		moods = EXCLUDED.moods,
		is_custom = EXCLUDED.is_custom,
		season = EXCLUDED.season,
		updated_at = NOW()
	`
	_, err := r.pool.Exec(ctx, query,
		a.ID,
		a.Name,
		a.Emoji,
		a.Description,
		a.Category,
		nonNilStrings(a.Moods),
		a.IsCustom,
		nullString(a.Season),
		nullTime(a.LastUsedAt),
		a.UsageCount,
	)
	return err
}

// Delete is idempotent: removing an absent row succeeds.
func (r *activityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM activities WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *activityRepository) TouchUsage(ctx context.Context, id string, at time.Time) error {
	const query = `
	UPDATE activities
	SET usage_count = usage_count + 1,
		last_used_at = GREATEST(COALESCE(last_used_at, $2), $2),
		updated_at = NOW()
	WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, id, at.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrActivityNotFound
	}
	return nil
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var (
		a        domain.Activity
		season   *string
		lastUsed *time.Time
	)
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Emoji,
		&a.Description,
		&a.Category,
		&a.Moods,
		&a.IsCustom,
		&season,
		&lastUsed,
		&a.UsageCount,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActivityNotFound
		}
		return nil, err
	}
	if season != nil {
		a.Season = *season
	}
	if lastUsed != nil {
		t := lastUsed.UTC()
		a.LastUsedAt = &t
	}
	if a.Moods == nil {
		a.Moods = []string{}
	}
	return &a, nil
}
