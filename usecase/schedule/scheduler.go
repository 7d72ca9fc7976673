package schedule

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/internal/observability"
	"github.com/fastygo/datewheel/repository"
	"github.com/fastygo/datewheel/usecase"
)

const (
	DefaultWeekday = time.Friday
	DefaultHour    = 19
)

// Catalog is the read side of the activity registry. Fallback draws come
// from the full catalog, never from the wheel selection.
type Catalog interface {
	List() []domain.Activity
	Get(id string) (domain.Activity, bool)
}

// Scheduler assigns one activity to every weekly slot of a month. Saved
// entries pin a slot; every other slot gets a fresh draw on each call.
type Scheduler struct {
	store   repository.KVStore
	catalog Catalog
	rnd     usecase.Random
	logger  *zap.Logger

	weekday time.Weekday
	hour    int
	loc     *time.Location

	mu sync.Mutex
}

type Option func(*Scheduler)

// WithSlot moves the weekly slot to another weekday and hour.
func WithSlot(weekday time.Weekday, hour int) Option {
	return func(s *Scheduler) {
		if weekday >= time.Sunday && weekday <= time.Saturday {
			s.weekday = weekday
		}
		if hour >= 0 && hour < 24 {
			s.hour = hour
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithRandom(rnd usecase.Random) Option {
	return func(s *Scheduler) {
		if rnd != nil {
			s.rnd = rnd
		}
	}
}

func New(store repository.KVStore, catalog Catalog, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		store:   store,
		catalog: catalog,
		rnd:     usecase.DefaultRandom(),
		logger:  logger,
		weekday: DefaultWeekday,
		hour:    DefaultHour,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SlotDates lists every slot of the month in calendar order.
func (s *Scheduler) SlotDates(year int, month time.Month) []time.Time {
	first := time.Date(year, month, 1, s.hour, 0, 0, 0, s.loc)
	offset := (int(s.weekday) - int(first.Weekday()) + 7) % 7

	var out []time.Time
	for day := 1 + offset; ; day += 7 {
		d := time.Date(year, month, day, s.hour, 0, 0, 0, s.loc)
		if d.Month() != month {
			break
		}
		out = append(out, d)
	}
	return out
}

// ScheduleFor resolves every slot of the month. A saved entry whose activity
// still exists pins the slot; otherwise the slot gets an unsaved random draw.
// With an empty catalog unpinned slots carry no activity.
func (s *Scheduler) ScheduleFor(ctx context.Context, year int, month time.Month) ([]domain.Slot, error) {
	if month < time.January || month > time.December {
		return nil, domain.WrapError(domain.ErrCodeInvalid, "month must be between 1 and 12", domain.ErrInvalidPayload)
	}

	s.mu.Lock()
	entries, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	all := s.catalog.List()
	dates := s.SlotDates(year, month)
	slots := make([]domain.Slot, 0, len(dates))
	for _, date := range dates {
		slot := domain.Slot{Date: date}
		if entry, ok := s.find(entries, date); ok {
			if a, ok := s.catalog.Get(entry.ActivityID); ok {
				slot.Activity = &a
				slot.Pinned = true
			} else {
				s.logger.Debug("scheduled activity no longer exists",
					zap.Time("date", date),
					zap.String("activity_id", entry.ActivityID))
			}
		}
		if slot.Activity == nil && len(all) > 0 {
			a := all[s.rnd.IntN(len(all))].Clone()
			slot.Activity = &a
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Reassign pins activityID to the slot on date's calendar day, replacing any
// earlier pin for that day.
func (s *Scheduler) Reassign(ctx context.Context, date time.Time, activityID string) (domain.ScheduledActivity, error) {
	if _, ok := s.catalog.Get(activityID); !ok {
		return domain.ScheduledActivity{}, domain.ErrActivityNotFound
	}
	local := date.In(s.loc)
	if local.Weekday() != s.weekday {
		return domain.ScheduledActivity{}, domain.ErrUnknownSlot
	}
	entry := domain.ScheduledActivity{
		Date:       time.Date(local.Year(), local.Month(), local.Day(), s.hour, 0, 0, 0, s.loc),
		ActivityID: activityID,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return domain.ScheduledActivity{}, err
	}
	replaced := false
	for i := range entries {
		if domain.SameDay(entries[i].Date, entry.Date, s.loc) {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}

	if err := repository.SaveJSON(ctx, s.store, repository.KeyScheduled, entries); err != nil {
		s.logger.Error("failed to persist schedule", zap.Error(err))
		return domain.ScheduledActivity{}, domain.WrapError(domain.ErrCodeInternal, "persist schedule", err)
	}
	observability.RecordSchedulePin()
	s.logger.Info("slot reassigned",
		zap.Time("date", entry.Date),
		zap.String("activity_id", activityID),
		zap.Bool("replaced", replaced))
	return entry, nil
}

// Entries returns the saved pins as stored.
func (s *Scheduler) Entries(ctx context.Context) ([]domain.ScheduledActivity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Scheduler) find(entries []domain.ScheduledActivity, date time.Time) (domain.ScheduledActivity, bool) {
	for _, e := range entries {
		if domain.SameDay(e.Date, date, s.loc) {
			return e, true
		}
	}
	return domain.ScheduledActivity{}, false
}

func (s *Scheduler) load(ctx context.Context) ([]domain.ScheduledActivity, error) {
	entries := make([]domain.ScheduledActivity, 0)
	if _, err := repository.LoadJSON(ctx, s.store, repository.KeyScheduled, &entries); err != nil {
		if !errors.Is(err, repository.ErrMalformedDocument) {
			return nil, domain.WrapError(domain.ErrCodeInternal, "load schedule", err)
		}
		s.logger.Warn("stored schedule is malformed, ignoring saved pins", zap.Error(err))
		return make([]domain.ScheduledActivity, 0), nil
	}
	if entries == nil {
		entries = make([]domain.ScheduledActivity, 0)
	}
	return entries, nil
}
