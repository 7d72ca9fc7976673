package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/datewheel/internal/infrastructure/buffer"
)

type probe func(ctx context.Context) error

// Monitor polls the optional remote dependencies. IsOnline reports whether
// the Postgres mirror can currently accept outbox items.
type Monitor struct {
	postgres probe
	redis    probe
	outbox   *buffer.Store

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

type Option func(*Monitor)

func WithPostgres(pool *pgxpool.Pool) Option {
	return func(m *Monitor) {
		if pool != nil {
			m.postgres = pool.Ping
		}
	}
}

func WithRedis(client *redislib.Client) Option {
	return func(m *Monitor) {
		if client != nil {
			m.redis = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}
}

func WithOutbox(store *buffer.Store) Option {
	return func(m *Monitor) {
		m.outbox = store
	}
}

func New(interval time.Duration, logger *zap.Logger, opts ...Option) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start runs one check synchronously, then keeps polling in the background.
func (m *Monitor) Start() {
	m.Refresh(context.Background())
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.PostgreSQL.Healthy
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Refresh(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Refresh probes every configured dependency and stores the result.
func (m *Monitor) Refresh(ctx context.Context) Status {
	outbox, size := m.checkOutbox()
	status := Status{
		PostgreSQL: m.check(ctx, "postgresql", m.postgres, 3*time.Second),
		Redis:      m.check(ctx, "redis", m.redis, 2*time.Second),
		Outbox:     outbox,
		OutboxSize: size,
		LastCheck:  time.Now().UTC(),
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if previous.PostgreSQL.Enabled && previous.PostgreSQL.Healthy != status.PostgreSQL.Healthy {
		m.logger.Info("mirror connectivity changed", zap.Bool("online", status.PostgreSQL.Healthy))
	}
	return status
}

func (m *Monitor) check(ctx context.Context, name string, p probe, timeout time.Duration) Check {
	if p == nil {
		return Check{}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p(ctx); err != nil {
		m.logger.Debug("dependency check failed", zap.String("dependency", name), zap.Error(err))
		return Check{Enabled: true, Error: err.Error()}
	}
	return Check{Enabled: true, Healthy: true}
}

func (m *Monitor) checkOutbox() (Check, int) {
	if m.outbox == nil {
		return Check{}, 0
	}
	size, err := m.outbox.Size()
	if err != nil {
		m.logger.Warn("outbox size check failed", zap.Error(err))
		return Check{Enabled: true, Error: err.Error()}, 0
	}
	return Check{Enabled: true, Healthy: true}, size
}
