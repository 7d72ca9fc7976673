package pool

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/internal/observability"
	"github.com/fastygo/datewheel/repository"
)

const (
	MinSize         = 2
	MaxSize         = 8
	DefaultInitSize = 6
)

// Catalog is the read side of the activity registry the pool resolves ids against.
type Catalog interface {
	List() []domain.Activity
	Get(id string) (domain.Activity, bool)
}

// ToggleResult tells the caller what a toggle did. BelowMinimum is set when a
// removal left fewer than MinSize members; AtCapacity when an addition was ignored.
type ToggleResult struct {
	Added        bool `json:"added"`
	Removed      bool `json:"removed"`
	BelowMinimum bool `json:"belowMinimum"`
	AtCapacity   bool `json:"atCapacity"`
	Size         int  `json:"size"`
}

// Manager holds the ordered ids currently on the wheel. Ids are resolved
// against the catalog on every read, so deleted activities drop out lazily.
type Manager struct {
	store   repository.KVStore
	catalog Catalog
	logger  *zap.Logger

	mu  sync.Mutex
	ids []string
}

// New restores the persisted selection, filtered against the catalog. When
// nothing valid is stored the first initSize catalog entries are used.
func New(ctx context.Context, store repository.KVStore, catalog Catalog, initSize int, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if initSize < MinSize || initSize > MaxSize {
		initSize = DefaultInitSize
	}
	m := &Manager{store: store, catalog: catalog, logger: logger}

	var saved []string
	if _, err := repository.LoadJSON(ctx, store, repository.KeySelectedActivities, &saved); err != nil {
		if !errors.Is(err, repository.ErrMalformedDocument) {
			return nil, domain.WrapError(domain.ErrCodeInternal, "load selection", err)
		}
		logger.Warn("stored selection is malformed, using defaults", zap.Error(err))
	}

	ids := m.resolve(saved)
	if len(ids) == 0 {
		for _, a := range catalog.List() {
			if len(ids) == initSize {
				break
			}
			ids = append(ids, a.ID)
		}
	}
	if len(ids) > MaxSize {
		ids = ids[:MaxSize]
	}
	m.ids = ids

	if err := m.persist(ctx, ids); err != nil {
		return nil, err
	}
	return m, nil
}

// Toggle removes the activity when it is on the wheel and adds it otherwise.
// Removal always proceeds; addition is ignored once the wheel holds MaxSize members.
func (m *Manager) Toggle(ctx context.Context, activityID string) (ToggleResult, error) {
	if _, ok := m.catalog.Get(activityID); !ok {
		return ToggleResult{}, domain.ErrActivityNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.resolve(m.ids)
	var result ToggleResult
	var next []string

	if i := indexOf(current, activityID); i >= 0 {
		next = make([]string, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		result.Removed = true
		result.BelowMinimum = len(next) < MinSize
	} else {
		if len(current) >= MaxSize {
			result.AtCapacity = true
			result.Size = len(current)
			return result, nil
		}
		next = append(append([]string(nil), current...), activityID)
		result.Added = true
	}

	if err := m.persist(ctx, next); err != nil {
		return ToggleResult{}, err
	}
	m.ids = next
	result.Size = len(next)
	if result.BelowMinimum {
		m.logger.Info("pool below draw minimum", zap.Int("size", result.Size))
	}
	return result, nil
}

// Replace sets the wheel from ids. Unknown and duplicate ids are dropped and the
// result is truncated to MaxSize.
func (m *Manager) Replace(ctx context.Context, ids []string) ([]domain.Activity, error) {
	next := m.resolve(ids)
	if len(next) > MaxSize {
		next = next[:MaxSize]
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.persist(ctx, next); err != nil {
		return nil, err
	}
	m.ids = next
	return m.activities(next), nil
}

// Refresh rewrites the stored selection without ids that no longer resolve.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.resolve(m.ids)
	if len(next) == len(m.ids) {
		return nil
	}
	if err := m.persist(ctx, next); err != nil {
		return err
	}
	m.ids = next
	return nil
}

// Members returns the resolved activities in wheel order.
func (m *Manager) Members() []domain.Activity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activities(m.resolve(m.ids))
}

func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolve(m.ids)
}

func (m *Manager) Len() int {
	return len(m.IDs())
}

// CanDraw reports whether the wheel size allows a draw.
func (m *Manager) CanDraw() bool {
	n := m.Len()
	return n >= MinSize && n <= MaxSize
}

func (m *Manager) resolve(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if indexOf(out, id) >= 0 {
			continue
		}
		if _, ok := m.catalog.Get(id); ok {
			out = append(out, id)
		}
	}
	return out
}

func (m *Manager) activities(ids []string) []domain.Activity {
	out := make([]domain.Activity, 0, len(ids))
	for _, id := range ids {
		if a, ok := m.catalog.Get(id); ok {
			out = append(out, a)
		}
	}
	return out
}

func (m *Manager) persist(ctx context.Context, ids []string) error {
	if err := repository.SaveJSON(ctx, m.store, repository.KeySelectedActivities, ids); err != nil {
		m.logger.Error("failed to persist selection", zap.Error(err))
		return domain.WrapError(domain.ErrCodeInternal, "persist selection", err)
	}
	observability.SetPoolSize(len(ids))
	return nil
}

func indexOf(ids []string, id string) int {
	for i := range ids {
		if ids[i] == id {
			return i
		}
	}
	return -1
}
