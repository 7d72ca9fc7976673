package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/repository"
)

// Log is the append-only record of revealed draws kept under "spin-history".
type Log struct {
	store  repository.KVStore
	logger *zap.Logger

	mu sync.Mutex
}

func New(store repository.KVStore, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{store: store, logger: logger}
}

// Append adds one entry at the end of the log.
func (l *Log) Append(ctx context.Context, activityID string, at time.Time) (domain.SpinHistoryEntry, error) {
	entry := domain.NewSpinHistoryEntry(activityID, at)

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, err := l.load(ctx)
	if err != nil {
		return domain.SpinHistoryEntry{}, err
	}
	entries = append(entries, entry)
	if err := repository.SaveJSON(ctx, l.store, repository.KeySpinHistory, entries); err != nil {
		l.logger.Error("failed to persist spin history", zap.Error(err))
		return domain.SpinHistoryEntry{}, domain.WrapError(domain.ErrCodeInternal, "persist spin history", err)
	}
	return entry, nil
}

// List returns every entry, oldest first.
func (l *Log) List(ctx context.Context) ([]domain.SpinHistoryEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *Log) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Delete(ctx, repository.KeySpinHistory); err != nil {
		return domain.WrapError(domain.ErrCodeInternal, "clear spin history", err)
	}
	return nil
}

func (l *Log) load(ctx context.Context) ([]domain.SpinHistoryEntry, error) {
	entries := make([]domain.SpinHistoryEntry, 0)
	if _, err := repository.LoadJSON(ctx, l.store, repository.KeySpinHistory, &entries); err != nil {
		if !errors.Is(err, repository.ErrMalformedDocument) {
			return nil, domain.WrapError(domain.ErrCodeInternal, "load spin history", err)
		}
		l.logger.Warn("stored spin history is malformed, starting empty", zap.Error(err))
		return make([]domain.SpinHistoryEntry, 0), nil
	}
	if entries == nil {
		entries = make([]domain.SpinHistoryEntry, 0)
	}
	return entries, nil
}
