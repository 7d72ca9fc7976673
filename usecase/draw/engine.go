package draw

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/internal/observability"
	"github.com/fastygo/datewheel/usecase"
)

type State string

const (
	StateIdle     State = "idle"
	StateDrawing  State = "drawing"
	StateRevealed State = "revealed"
)

const (
	MinPool = 2
	MaxPool = 8

	minTurns = 5
	maxTurns = 8

	DefaultSpinDuration = 4 * time.Second
	DefaultRevealDelay  = 300 * time.Millisecond
)

// UsageMarker records that an activity was drawn.
type UsageMarker interface {
	MarkUsed(ctx context.Context, id string, at time.Time) error
}

// HistoryAppender appends a revealed draw to the spin log.
type HistoryAppender interface {
	Append(ctx context.Context, activityID string, at time.Time) (domain.SpinHistoryEntry, error)
}

// Result is everything a renderer needs to animate a draw. SelectedIndex is
// decided first; RotationTarget is derived from it and always lands on it.
type Result struct {
	Pool            []domain.Activity `json:"pool"`
	SelectedIndex   int               `json:"selectedIndex"`
	Activity        domain.Activity   `json:"activity"`
	RotationTarget  float64           `json:"rotationTarget"`
	SegmentAngle    float64           `json:"segmentAngle"`
	FullTurns       int               `json:"fullTurns"`
	DurationSeconds float64           `json:"durationSeconds"`
	StartedAt       time.Time         `json:"startedAt"`
	RevealedAt      *time.Time        `json:"revealedAt,omitempty"`
}

// Status is a snapshot of the state machine.
type Status struct {
	State   State   `json:"state"`
	Current *Result `json:"current,omitempty"`
}

// Engine runs the idle -> drawing -> revealed -> idle state machine.
type Engine struct {
	marker  UsageMarker
	history HistoryAppender
	rnd     usecase.Random
	logger  *zap.Logger
	now     func() time.Time

	spinDuration time.Duration
	revealDelay  time.Duration

	mu      sync.Mutex
	state   State
	current *Result
}

type Option func(*Engine)

func WithRandom(rnd usecase.Random) Option {
	return func(e *Engine) {
		if rnd != nil {
			e.rnd = rnd
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithTiming sets the animation length reported to renderers and the pause
// Spin waits before revealing.
func WithTiming(spin, reveal time.Duration) Option {
	return func(e *Engine) {
		if spin > 0 {
			e.spinDuration = spin
		}
		if reveal >= 0 {
			e.revealDelay = reveal
		}
	}
}

// NewEngine builds an idle engine. marker and history may be nil.
func NewEngine(marker UsageMarker, history HistoryAppender, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		marker:       marker,
		history:      history,
		rnd:          usecase.DefaultRandom(),
		logger:       logger,
		now:          time.Now,
		spinDuration: DefaultSpinDuration,
		revealDelay:  DefaultRevealDelay,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BeginDraw picks the outcome and moves to drawing. It is rejected without
// touching state unless the engine is idle and the pool holds 2 to 8 entries.
func (e *Engine) BeginDraw(pool []domain.Activity) (Result, error) {
	switch {
	case len(pool) < MinPool:
		observability.RecordDraw("rejected")
		return Result{}, domain.ErrPoolTooSmall
	case len(pool) > MaxPool:
		observability.RecordDraw("rejected")
		return Result{}, domain.ErrPoolTooLarge
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case StateDrawing:
		observability.RecordDraw("rejected")
		return Result{}, domain.ErrDrawInProgress
	case StateRevealed:
		observability.RecordDraw("rejected")
		return Result{}, domain.ErrDrawNotReset
	}

	n := len(pool)
	idx := e.rnd.IntN(n)
	seg := SegmentAngle(n)
	turns := minTurns + e.rnd.IntN(maxTurns-minTurns)
	rotation := Rotation(turns, idx, seg, e.rnd.Float64()*seg)
	if SegmentFor(rotation, n) != idx {
		rotation = Rotation(turns, idx, seg, seg/2)
	}

	members := make([]domain.Activity, n)
	for i, a := range pool {
		members[i] = a.Clone()
	}
	result := Result{
		Pool:            members,
		SelectedIndex:   idx,
		Activity:        members[idx].Clone(),
		RotationTarget:  rotation,
		SegmentAngle:    seg,
		FullTurns:       turns,
		DurationSeconds: e.spinDuration.Seconds(),
		StartedAt:       e.now().UTC(),
	}
	e.state = StateDrawing
	e.current = &result
	observability.RecordDraw("started")

	e.logger.Debug("draw started",
		zap.String("activity_id", result.Activity.ID),
		zap.Int("selected_index", idx),
		zap.Int("pool_size", n))
	return cloneResult(result), nil
}

// Complete marks the running draw as revealed and records the usage. The
// outcome stands even when recording fails or ctx is already cancelled; such
// errors are returned alongside the revealed result.
func (e *Engine) Complete(ctx context.Context) (Result, error) {
	e.mu.Lock()
	if e.state != StateDrawing || e.current == nil {
		e.mu.Unlock()
		return Result{}, domain.ErrNoDrawInProgress
	}
	at := e.now().UTC()
	e.current.RevealedAt = &at
	e.state = StateRevealed
	result := cloneResult(*e.current)
	e.mu.Unlock()

	observability.RecordDraw("revealed")
	e.logger.Info("draw revealed",
		zap.String("activity_id", result.Activity.ID),
		zap.String("activity", result.Activity.Name))

	ctx = context.WithoutCancel(ctx)
	var errs []error
	if e.marker != nil {
		if err := e.marker.MarkUsed(ctx, result.Activity.ID, at); err != nil {
			errs = append(errs, err)
		}
	}
	if e.history != nil {
		if _, err := e.history.Append(ctx, result.Activity.ID, at); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		e.logger.Error("failed to record draw", zap.String("activity_id", result.Activity.ID), zap.Error(err))
		return result, domain.WrapError(domain.ErrCodeInternal, "record draw", err)
	}
	return result, nil
}

// Spin runs a whole draw for clients without an animation layer: begin, wait
// the reveal delay, complete. Cancelling ctx shortens the wait but never
// rolls back the decided outcome.
func (e *Engine) Spin(ctx context.Context, pool []domain.Activity) (Result, error) {
	if _, err := e.BeginDraw(pool); err != nil {
		return Result{}, err
	}
	if e.revealDelay > 0 {
		timer := time.NewTimer(e.revealDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	return e.Complete(ctx)
}

// Reset clears the revealed result and returns to idle. Usage effects stay.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StateIdle
	e.current = nil
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	status := Status{State: e.state}
	if e.current != nil {
		r := cloneResult(*e.current)
		status.Current = &r
	}
	return status
}

// SegmentAngle is the width in degrees of one wheel segment.
func SegmentAngle(n int) float64 {
	if n <= 0 {
		return 0
	}
	return 360 / float64(n)
}

// Rotation composes a presentation target from its parts.
func Rotation(fullTurns, index int, segment, jitter float64) float64 {
	return float64(fullTurns)*360 + float64(index)*segment + jitter
}

// SegmentFor recovers the segment index a rotation target stops on.
func SegmentFor(rotation float64, n int) int {
	if n <= 0 {
		return -1
	}
	r := math.Mod(rotation, 360)
	if r < 0 {
		r += 360
	}
	idx := int(math.Floor(r / SegmentAngle(n)))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func cloneResult(r Result) Result {
	out := r
	out.Pool = make([]domain.Activity, len(r.Pool))
	for i, a := range r.Pool {
		out.Pool[i] = a.Clone()
	}
	out.Activity = r.Activity.Clone()
	if r.RevealedAt != nil {
		t := *r.RevealedAt
		out.RevealedAt = &t
	}
	return out
}
