package resilience

import (
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrBreakerOpen is returned while a breaker is shedding calls.
var ErrBreakerOpen = eris.New("resilience: breaker open")

// Breaker stops calling a flaky collaborator after repeated failures.
// Threshold failures within Window open it for Cooldown; the first call
// after the cooldown is let through as a probe.
type Breaker struct {
	name      string
	threshold int
	window    time.Duration
	cooldown  time.Duration
	now       func() time.Time

	mu          sync.Mutex
	failures    int
	lastFailure time.Time
	openUntil   time.Time
}

// NewBreaker creates a Breaker. Non-positive arguments use 3 failures in
// 30s opening for 60s.
func NewBreaker(name string, threshold int, window, cooldown time.Duration) *Breaker {
	if threshold <= 0 {
		threshold = 3
	}
	if window <= 0 {
		window = 30 * time.Second
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &Breaker{name: name, threshold: threshold, window: window, cooldown: cooldown, now: time.Now}
}

// WithClock replaces the breaker's time source.
func (b *Breaker) WithClock(now func() time.Time) *Breaker {
	b.now = now
	return b
}

// Open reports whether calls are currently being shed.
func (b *Breaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.now().Before(b.openUntil)
}

// Allow returns ErrBreakerOpen while the breaker is open.
func (b *Breaker) Allow() error {
	if b.Open() {
		return eris.Wrapf(ErrBreakerOpen, "resilience: %s", b.name)
	}
	return nil
}

// Record feeds the outcome of a call into the breaker.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		b.failures = 0
		return
	}
	now := b.now()
	if now.Sub(b.lastFailure) > b.window {
		b.failures = 0
	}
	b.failures++
	b.lastFailure = now
	if b.failures >= b.threshold {
		b.openUntil = now.Add(b.cooldown)
		b.failures = 0
		zap.L().Warn("resilience: breaker opened",
			zap.String("collaborator", b.name),
			zap.Duration("cooldown", b.cooldown),
		)
	}
}
