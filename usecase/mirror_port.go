package usecase

import (
	"context"
	"time"

	"github.com/fastygo/datewheel/domain"
)

const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
	OperationTouch  = "touch"
)

// ActivityMirror abstracts the remote copy of the activity collection so use cases
// stay storage-agnostic. Implementations must not block on the network.
type ActivityMirror interface {
	MirrorActivity(ctx context.Context, operation string, activity *domain.Activity) error
	MirrorUsage(ctx context.Context, id string, at time.Time) error
}
