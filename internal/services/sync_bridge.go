package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/internal/infrastructure/buffer"
	"github.com/fastygo/datewheel/internal/observability"
	"github.com/fastygo/datewheel/usecase"
)

// SyncBridge turns registry mutations into outbox items. It never talks to
// the network; SyncProcessor delivers the items later.
type SyncBridge struct {
	store *buffer.Store
}

func NewSyncBridge(store *buffer.Store) *SyncBridge {
	return &SyncBridge{store: store}
}

func (b *SyncBridge) MirrorActivity(_ context.Context, operation string, activity *domain.Activity) error {
	if b == nil || b.store == nil || activity == nil {
		return domain.ErrInvalidPayload
	}
	item := buffer.Item{
		Entity:     buffer.EntityActivity,
		Operation:  operation,
		ActivityID: activity.ID,
	}
	if operation != usecase.OperationDelete {
		payload, err := json.Marshal(activity)
		if err != nil {
			return err
		}
		item.Data = payload
	}
	return b.enqueue(item)
}

func (b *SyncBridge) MirrorUsage(_ context.Context, id string, at time.Time) error {
	if b == nil || b.store == nil || id == "" {
		return domain.ErrInvalidPayload
	}
	payload, err := json.Marshal(buffer.UsagePayload{At: at.UTC()})
	if err != nil {
		return err
	}
	return b.enqueue(buffer.Item{
		Entity:     buffer.EntityUsage,
		Operation:  usecase.OperationTouch,
		ActivityID: id,
		Data:       payload,
	})
}

func (b *SyncBridge) enqueue(item buffer.Item) error {
	if err := b.store.Enqueue(item); err != nil {
		return err
	}
	if size, err := b.store.Size(); err == nil {
		observability.SetOutboxItems(size)
	}
	return nil
}

var _ usecase.ActivityMirror = (*SyncBridge)(nil)
