package repository

import (
	"context"
	"time"

	"github.com/fastygo/datewheel/domain"
)

// ActivityRepository is the remote mirror of the activity collection.
type ActivityRepository interface {
	List(ctx context.Context) ([]domain.Activity, error)
	Upsert(ctx context.Context, activity *domain.Activity) error
	Delete(ctx context.Context, id string) error
	TouchUsage(ctx context.Context, id string, at time.Time) error
}
