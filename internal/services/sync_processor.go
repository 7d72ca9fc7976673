package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/internal/infrastructure/buffer"
	"github.com/fastygo/datewheel/internal/observability"
	"github.com/fastygo/datewheel/repository"
	"github.com/fastygo/datewheel/usecase"
)

// ConnectionHealth abstracts the connection monitor functionality.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how often and how hard the outbox is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	Retention  time.Duration
}

// SyncProcessor replays outbox items against the remote activity mirror in
// enqueue order. A failing item blocks the ones behind it until it succeeds
// or runs out of retries, so operations on one activity never overtake each other.
type SyncProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	repo    repository.ActivityRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewSyncProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	repo repository.ActivityRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) *SyncProcessor {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 7 * 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sp := &SyncProcessor{
		store:   store,
		monitor: monitor,
		repo:    repo,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", max(1, int(cfg.Interval.Seconds())))
	_, _ = sp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := sp.Drain(ctx); err != nil {
			sp.logger.Error("outbox drain failed", zap.Error(err))
		}
	})
	_, _ = sp.cron.AddFunc("@hourly", func() {
		removed, err := sp.store.Cleanup(time.Now().Add(-sp.cfg.Retention))
		if err != nil {
			sp.logger.Error("outbox cleanup failed", zap.Error(err))
			return
		}
		if removed > 0 {
			sp.logger.Warn("expired outbox items discarded", zap.Int("count", removed))
		}
	})

	return sp
}

// Start launches the cron scheduler.
func (sp *SyncProcessor) Start() {
	if sp == nil || sp.cron == nil {
		return
	}
	sp.cron.Start()
	sp.logger.Info("sync processor started", zap.Duration("interval", sp.cfg.Interval))
}

// Stop waits for a running drain to finish or ctx to expire.
func (sp *SyncProcessor) Stop(ctx context.Context) {
	if sp == nil || sp.cron == nil {
		return
	}
	stopCtx := sp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	sp.logger.Info("sync processor stopped")
}

// Drain delivers one batch of outbox items.
func (sp *SyncProcessor) Drain(ctx context.Context) error {
	if sp == nil || sp.store == nil || sp.repo == nil {
		return nil
	}
	if sp.monitor != nil && !sp.monitor.IsOnline() {
		sp.logger.Debug("skipping outbox drain (offline)")
		return nil
	}
	defer sp.reportSize()

	items, err := sp.store.Peek(sp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := sp.deliver(ctx, item)
		if err == nil {
			if err := sp.store.Remove(item); err != nil {
				return err
			}
			continue
		}

		observability.RecordMirrorFailure()
		failed, markErr := sp.store.MarkFailed(item, err)
		if markErr != nil {
			return markErr
		}
		if failed.Retries >= sp.cfg.MaxRetries {
			sp.logger.Warn("dropping outbox item (max retries reached)",
				zap.String("item_id", item.ID),
				zap.String("activity_id", item.ActivityID),
				zap.String("operation", item.Operation),
				zap.Error(err))
			if err := sp.store.Remove(failed); err != nil {
				return err
			}
			continue
		}
		sp.logger.Info("outbox item failed, will retry",
			zap.String("item_id", item.ID),
			zap.Int("retries", failed.Retries),
			zap.Error(err))
		return nil
	}
	return nil
}

// Reconcile upserts local activities the remote mirror does not know yet.
// It is the catch-up path for activities created before sync was enabled.
func (sp *SyncProcessor) Reconcile(ctx context.Context, local []domain.Activity) (int, error) {
	if sp == nil || sp.repo == nil {
		return 0, nil
	}
	remote, err := sp.repo.List(ctx)
	if err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(remote))
	for _, a := range remote {
		known[a.ID] = struct{}{}
	}
	added := 0
	for i := range local {
		if _, ok := known[local[i].ID]; ok {
			continue
		}
		if err := sp.repo.Upsert(ctx, &local[i]); err != nil {
			return added, err
		}
		added++
	}
	if added > 0 {
		sp.logger.Info("remote mirror reconciled", zap.Int("added", added))
	}
	return added, nil
}

// Size returns the number of queued items.
func (sp *SyncProcessor) Size() int {
	if sp == nil || sp.store == nil {
		return 0
	}
	size, err := sp.store.Size()
	if err != nil {
		return 0
	}
	return size
}

func (sp *SyncProcessor) reportSize() {
	observability.SetOutboxItems(sp.Size())
}

func (sp *SyncProcessor) deliver(ctx context.Context, item buffer.Item) error {
	switch item.Entity {
	case buffer.EntityActivity:
		if item.Operation == usecase.OperationDelete {
			return sp.repo.Delete(ctx, item.ActivityID)
		}
		var activity domain.Activity
		if err := json.Unmarshal(item.Data, &activity); err != nil {
			return err
		}
		return sp.repo.Upsert(ctx, &activity)

	case buffer.EntityUsage:
		var usage buffer.UsagePayload
		if err := json.Unmarshal(item.Data, &usage); err != nil {
			return err
		}
		err := sp.repo.TouchUsage(ctx, item.ActivityID, usage.At)
		if errors.Is(err, domain.ErrActivityNotFound) {
			sp.logger.Debug("usage for activity missing remotely ignored", zap.String("activity_id", item.ActivityID))
			return nil
		}
		return err

	default:
		return fmt.Errorf("unsupported entity %s", item.Entity)
	}
}
