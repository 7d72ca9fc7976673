package registry

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/internal/observability"
	"github.com/fastygo/datewheel/repository"
	"github.com/fastygo/datewheel/usecase"
)

// DefaultRecentLimit is the number of entries Recent returns when asked for zero.
const DefaultRecentLimit = 5

// Registry owns the live set of activities and rewrites the whole
// "activities" document after every mutation.
type Registry struct {
	store  repository.KVStore
	mirror usecase.ActivityMirror
	logger *zap.Logger
	now    func() time.Time
	newID  func() string

	mu    sync.RWMutex
	items []domain.Activity
}

type Option func(*Registry)

// WithClock overrides the time source used for usage stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides how new activity ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// New loads the persisted activities. An absent, empty or malformed document
// seeds the registry with the built-in catalog, so the live set is never empty
// after construction. mirror may be nil.
func New(ctx context.Context, store repository.KVStore, mirror usecase.ActivityMirror, logger *zap.Logger, opts ...Option) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		store:  store,
		mirror: mirror,
		logger: logger,
		now:    time.Now,
		newID:  newActivityID,
	}
	for _, opt := range opts {
		opt(r)
	}

	var saved []domain.Activity
	found, err := repository.LoadJSON(ctx, store, repository.KeyActivities, &saved)
	if err != nil {
		if !errors.Is(err, repository.ErrMalformedDocument) {
			return nil, domain.WrapError(domain.ErrCodeInternal, "load activities", err)
		}
		logger.Warn("stored activities are malformed, seeding defaults", zap.Error(err))
	}

	if found {
		if items := dedupe(saved); len(items) > 0 {
			r.items = items
			return r, nil
		}
	}

	r.items = domain.DefaultCatalog()
	if err := r.persist(ctx, r.items); err != nil {
		return nil, err
	}
	logger.Info("seeded default activities", zap.Int("count", len(r.items)))
	return r, nil
}

// List returns the live set in insertion order.
func (r *Registry) List() []domain.Activity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.items)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func (r *Registry) Get(id string) (domain.Activity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := indexOf(r.items, id); i >= 0 {
		return r.items[i].Clone(), true
	}
	return domain.Activity{}, false
}

// Create appends a new custom activity with a fresh id.
func (r *Registry) Create(ctx context.Context, fields domain.ActivityFields) (domain.Activity, error) {
	if err := fields.Validate(); err != nil {
		return domain.Activity{}, err
	}
	activity := domain.Activity{}
	activity.Apply(fields.Patch())
	activity.IsCustom = true

	r.mu.Lock()
	activity.ID = r.uniqueID()
	next := append(cloneAll(r.items), activity)
	if err := r.persist(ctx, next); err != nil {
		r.mu.Unlock()
		return domain.Activity{}, err
	}
	r.items = next
	r.mu.Unlock()

	observability.RecordActivityMutation(usecase.OperationCreate)
	r.mirrorActivity(ctx, usecase.OperationCreate, activity)
	return activity.Clone(), nil
}

// Update applies patch to the activity with the given id. Unknown ids are a
// no-op. Fields set to an empty value are cleared, except name and emoji.
func (r *Registry) Update(ctx context.Context, id string, patch domain.ActivityPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	i := indexOf(r.items, id)
	if i < 0 {
		r.mu.Unlock()
		r.logger.Debug("update of unknown activity ignored", zap.String("activity_id", id))
		return nil
	}
	next := cloneAll(r.items)
	next[i].Apply(patch)
	if err := r.persist(ctx, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.items = next
	updated := next[i].Clone()
	r.mu.Unlock()

	observability.RecordActivityMutation(usecase.OperationUpdate)
	r.mirrorActivity(ctx, usecase.OperationUpdate, updated)
	return nil
}

// Remove deletes the activity with the given id. Unknown ids are a no-op.
func (r *Registry) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	i := indexOf(r.items, id)
	if i < 0 {
		r.mu.Unlock()
		r.logger.Debug("remove of unknown activity ignored", zap.String("activity_id", id))
		return nil
	}
	removed := r.items[i].Clone()
	next := make([]domain.Activity, 0, len(r.items)-1)
	next = append(next, cloneAll(r.items[:i])...)
	next = append(next, cloneAll(r.items[i+1:])...)
	if err := r.persist(ctx, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.items = next
	r.mu.Unlock()

	observability.RecordActivityMutation(usecase.OperationDelete)
	r.mirrorActivity(ctx, usecase.OperationDelete, removed)
	return nil
}

// Reset replaces the live set with the built-in catalog, discarding custom activities.
func (r *Registry) Reset(ctx context.Context) error {
	next := domain.DefaultCatalog()

	r.mu.Lock()
	previous := r.items
	if err := r.persist(ctx, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.items = next
	r.mu.Unlock()

	observability.RecordActivityMutation("reset")
	for _, a := range previous {
		if indexOf(next, a.ID) < 0 {
			r.mirrorActivity(ctx, usecase.OperationDelete, a)
		}
	}
	for _, a := range next {
		r.mirrorActivity(ctx, usecase.OperationUpdate, a)
	}
	return nil
}

// MarkUsed bumps the usage counter and last-used stamp. Unknown ids are a no-op.
func (r *Registry) MarkUsed(ctx context.Context, id string, at time.Time) error {
	if at.IsZero() {
		at = r.now()
	}
	r.mu.Lock()
	i := indexOf(r.items, id)
	if i < 0 {
		r.mu.Unlock()
		return nil
	}
	next := cloneAll(r.items)
	next[i].Touch(at)
	if err := r.persist(ctx, next); err != nil {
		r.mu.Unlock()
		return err
	}
	r.items = next
	r.mu.Unlock()

	observability.RecordActivityMutation(usecase.OperationTouch)
	if r.mirror != nil {
		if err := r.mirror.MirrorUsage(ctx, id, at); err != nil {
			r.logger.Warn("failed to mirror activity usage", zap.String("activity_id", id), zap.Error(err))
		}
	}
	return nil
}

// Search filters by a case-insensitive query on name or description and by
// category ("" or "all" match everything). Results are sorted by name.
func (r *Registry) Search(query, category string) []domain.Activity {
	r.mu.RLock()
	out := make([]domain.Activity, 0, len(r.items))
	for _, a := range r.items {
		if a.Matches(query, category) {
			out = append(out, a.Clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Recent returns the most recently used activities, newest first.
func (r *Registry) Recent(limit int) []domain.Activity {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	r.mu.RLock()
	out := make([]domain.Activity, 0)
	for _, a := range r.items {
		if a.LastUsedAt != nil {
			out = append(out, a.Clone())
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].LastUsedAt.After(*out[j].LastUsedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *Registry) persist(ctx context.Context, items []domain.Activity) error {
	if err := repository.SaveJSON(ctx, r.store, repository.KeyActivities, items); err != nil {
		r.logger.Error("failed to persist activities", zap.Error(err))
		return domain.WrapError(domain.ErrCodeInternal, "persist activities", err)
	}
	return nil
}

func (r *Registry) mirrorActivity(ctx context.Context, operation string, activity domain.Activity) {
	if r.mirror == nil {
		return
	}
	if err := r.mirror.MirrorActivity(ctx, operation, &activity); err != nil {
		r.logger.Warn("failed to mirror activity",
			zap.String("operation", operation),
			zap.String("activity_id", activity.ID),
			zap.Error(err))
	}
}

// uniqueID must be called with the write lock held.
func (r *Registry) uniqueID() string {
	for attempt := 0; attempt < 8; attempt++ {
		id := r.newID()
		if id != "" && indexOf(r.items, id) < 0 {
			return id
		}
	}
	for {
		if id := uuid.NewString(); indexOf(r.items, id) < 0 {
			return id
		}
	}
}

// newActivityID prefers time-ordered UUIDv7 ids and falls back to random v4.
func newActivityID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func indexOf(items []domain.Activity, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(items []domain.Activity) []domain.Activity {
	out := make([]domain.Activity, len(items))
	for i, a := range items {
		out[i] = a.Clone()
	}
	return out
}

// dedupe keeps the first record for every id so the uniqueness invariant holds
// even for a hand-edited document.
func dedupe(items []domain.Activity) []domain.Activity {
	seen := make(map[string]struct{}, len(items))
	out := make([]domain.Activity, 0, len(items))
	for _, a := range items {
		if a.ID == "" {
			continue
		}
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		if a.Moods == nil {
			a.Moods = []string{}
		}
		out = append(out, a)
	}
	return out
}
