package expiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/yndnr/redikv/internal/telemetry/metric"
)

// DefaultInterval is the pause between two sweeps.
const DefaultInterval = 100 * time.Millisecond

// ErrClock is returned when the wall clock reads before the Unix epoch.
var ErrClock = errors.New("expiry: system clock is before the Unix epoch")

// Store is the part of the storage engine the sweeper needs.
type Store interface {
	DeleteExpired(ctx context.Context, nowMs int64) int
	Len() int
	ExpiringLen() int
}

// Clock supplies the current time in Unix milliseconds.
type Clock interface {
	NowMilli() (int64, error)
}

type systemClock struct{}

func (systemClock) NowMilli() (int64, error) {
	ms := time.Now().UnixMilli()
	if ms < 0 {
		return 0, ErrClock
	}
	return ms, nil
}

// Option configures the Sweeper.
type Option func(*Sweeper)

// WithInterval sets the pause between sweeps. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Sweeper) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces the system clock.
func WithClock(c Clock) Option {
	return func(s *Sweeper) {
		s.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = l
	}
}

// WithMetrics records removed keys and sweep durations in m.
func WithMetrics(m *metric.Registry) Option {
	return func(s *Sweeper) {
		s.metrics = m
	}
}

// Sweeper periodically evicts expired keys.
type Sweeper struct {
	store    Store
	interval time.Duration
	clock    Clock
	logger   *slog.Logger
	metrics  *metric.Registry
}

// New creates a sweeper over store. It does nothing until Run.
func New(store Store, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    store,
		interval: DefaultInterval,
		clock:    systemClock{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the pause between sweeps.
func (s *Sweeper) Interval() time.Duration {
	return s.interval
}

// SweepOnce performs a single pass and returns the number of keys removed.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now, err := s.clock.NowMilli()
	if err != nil {
		return 0, fmt.Errorf("expiry: read clock: %w", err)
	}
	if now < 0 {
		return 0, ErrClock
	}

	start := time.Now()
	removed := s.store.DeleteExpired(ctx, now)
	s.metrics.SweepObserved(time.Since(start).Seconds())
	s.metrics.Expired(metric.ExpiryActive, removed)

	// Len and ExpiringLen take the read lock, skip them unless logged.
	if s.logger.Enabled(ctx, slog.LevelDebug) {
		s.logger.Debug("sweep done",
			"removed", removed,
			"keys", s.store.Len(),
			"expiring", s.store.ExpiringLen(),
		)
	}
	return removed, nil
}

// Run sweeps until ctx is cancelled or the clock fails. It locks the calling
// goroutine to its OS thread for the duration.
//
// A cancelled context is a normal stop and yields nil.
func (s *Sweeper) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.logger.Debug("sweeper started", "interval", s.interval)

	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		if _, err := s.SweepOnce(ctx); err != nil {
			s.logger.Error("sweeper stopped", "error", err)
			return err
		}

		timer.Reset(s.interval)
		select {
		case <-timer.C:
		case <-ctx.Done():
			s.logger.Debug("sweeper stopped")
			return nil
		}
	}
}
