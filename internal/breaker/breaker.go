// Package breaker implements a small circuit breaker for calls to external
// services such as the generative-text API.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the breaker position.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned without calling the operation while the breaker is open.
var ErrOpen = errors.New("circuit breaker is open")

// Config tunes the breaker.
type Config struct {
	// MaxFailures is the number of consecutive failures that opens the breaker.
	MaxFailures int
	// ResetTimeout is how long the breaker stays open before a trial call.
	ResetTimeout time.Duration
}

// Breaker guards an operation. Safe for concurrent use.
type Breaker struct {
	name string
	cfg  Config
	log  *zap.Logger
	now  func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	trial    bool // a half-open trial call is in flight
}

// New creates a closed breaker. Non-positive config values fall back to
// 3 failures and 30s.
func New(name string, cfg Config, logger *zap.Logger) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Breaker{
		name: name,
		cfg:  cfg,
		log:  logger.With(zap.String("breaker", name)),
		now:  time.Now,
	}
}

// Execute runs op unless the breaker is open. A failing op counts towards
// opening the breaker; context cancellation by the caller does not.
func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if err := b.before(); err != nil {
		return err
	}
	err := op(ctx)
	b.after(err)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			return ErrOpen
		}
		b.state = HalfOpen
		b.trial = true
		b.log.Info("breaker half-open, trying one call")
		return nil
	case HalfOpen:
		// Only one trial call at a time.
		if b.trial {
			return ErrOpen
		}
		b.trial = true
	}
	return nil
}

func (b *Breaker) after(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	wasTrial := b.state == HalfOpen
	b.trial = false

	if errors.Is(err, context.Canceled) {
		// A cancelled trial hands the half-open slot to the next caller.
		if wasTrial {
			b.state = Open
		}
		return
	}

	if err == nil {
		if b.state != Closed {
			b.log.Info("breaker closed", zap.String("from", b.state.String()))
		}
		b.state = Closed
		b.failures = 0
		return
	}

	b.failures++
	if wasTrial || b.failures >= b.cfg.MaxFailures {
		b.state = Open
		b.openedAt = b.now()
		b.log.Warn("breaker opened", zap.Int("failures", b.failures), zap.Error(err))
	}
}

// State returns the current position. An open breaker whose timeout has passed
// still reports Open until the next call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the breaker's label.
func (b *Breaker) Name() string {
	return b.name
}
