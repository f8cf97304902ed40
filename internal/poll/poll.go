// Package poll implements the resilient status polling loop. The loop
// fetches an incident snapshot on a fixed cadence until the analysis
// completes (non-null root cause) or a maximum-attempt ceiling is reached,
// whichever comes first. Transient fetch failures never stop the loop.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oncallops/incidentwatch/internal/types"
)

// Fetcher fetches the current incident snapshot. *api.Client satisfies it.
type Fetcher interface {
	GetIncident(ctx context.Context, incidentID string) (*types.Incident, []types.LogEntry, error)
}

// Outcome distinguishes how a polling run ended.
type Outcome int

const (
	// OutcomeComplete means a snapshot with a non-null root cause was seen
	OutcomeComplete Outcome = iota
	// OutcomeTimedOut means maxAttempts ticks elapsed without completion
	OutcomeTimedOut
)

func (o Outcome) String() string {
	switch o {
	case OutcomeComplete:
		return "complete"
	case OutcomeTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Result is delivered exactly once per polling run.
type Result struct {
	// Outcome is how the run ended
	Outcome Outcome
	// Incident is the completing snapshot (nil on timeout)
	Incident *types.Incident
	// Attempts is the number of ticks consumed
	Attempts int
}

// Config holds polling parameters.
type Config struct {
	// Interval is the fixed tick cadence. No backoff is applied: a steady
	// cadence keeps the attempt ceiling a predictable wall-clock bound.
	// Default: 3s
	Interval time.Duration
	// MaxAttempts is the tick ceiling before the run times out.
	// Default: 40 (~2 minutes at the default interval)
	MaxAttempts int
}

// DefaultConfig returns the default polling parameters.
func DefaultConfig() Config {
	return Config{
		Interval:    3 * time.Second,
		MaxAttempts: 40,
	}
}

// Loop polls incident status on a fixed interval. A Loop is restartable:
// after a run delivers its Result (or Stop is called), Start may be called
// again, which begins a fresh run with a reset attempt counter.
type Loop struct {
	fetcher Fetcher
	cfg     Config
	log     *logrus.Logger

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	attempts int
}

// New creates a polling loop. Zero-valued config fields fall back to
// defaults.
func New(fetcher Fetcher, cfg Config, log *logrus.Logger) *Loop {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if log == nil {
		log = logrus.New()
	}
	return &Loop{
		fetcher: fetcher,
		cfg:     cfg,
		log:     log,
	}
}

// Start begins a polling run for the incident. onResult is invoked exactly
// once, from the loop goroutine, when the run completes or times out; it is
// not invoked when the run is cancelled via Stop. Starting an
// already-running loop is a no-op.
func (l *Loop) Start(ctx context.Context, incidentID string, onResult func(Result)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		l.log.WithField("incident", incidentID).Debug("Poll loop already running")
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	l.running = true
	l.cancel = cancel
	l.done = done
	l.attempts = 0

	go l.run(runCtx, incidentID, onResult, done)
}

// Stop halts the loop unconditionally and waits for the loop goroutine to
// exit, so no tick can fire after Stop returns. Safe to call when already
// stopped, and safe to call repeatedly.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	done := l.done
	l.mu.Unlock()

	cancel()
	<-done
}

// Attempts returns the attempt count of the current (or most recent) run.
func (l *Loop) Attempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.attempts
}

// run is the loop goroutine. It marks the loop stopped before delivering
// the result so the caller may restart the loop from inside onResult.
func (l *Loop) run(ctx context.Context, incidentID string, onResult func(Result), done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.markStopped()
			return
		case <-ticker.C:
			incident, _, err := l.fetcher.GetIncident(ctx, incidentID)
			if ctx.Err() != nil {
				l.markStopped()
				return
			}

			if err != nil {
				// Transient failure: log and keep ticking. The attempt
				// still counts so the ceiling stays a wall-clock bound.
				l.log.WithError(err).WithField("incident", incidentID).Warn("Poll fetch failed")
			} else if incident.HasRootCause() {
				attempts := l.incrementAttempts()
				l.markStopped()
				onResult(Result{Outcome: OutcomeComplete, Incident: incident, Attempts: attempts})
				return
			}

			attempts := l.incrementAttempts()
			if attempts >= l.cfg.MaxAttempts {
				l.log.WithFields(logrus.Fields{
					"incident": incidentID,
					"attempts": attempts,
				}).Warn("Poll attempts exhausted without completion")
				l.markStopped()
				onResult(Result{Outcome: OutcomeTimedOut, Attempts: attempts})
				return
			}
		}
	}
}

func (l *Loop) incrementAttempts() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.attempts++
	return l.attempts
}

func (l *Loop) markStopped() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.running = false
}
