package infra

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Breaker guards an unreliable dependency (the SMTP relay) so a dead relay
// fails jobs fast instead of tying up every worker on connect timeouts.
//
//	closed    calls pass; Threshold consecutive failures open the breaker
//	open      calls fail with ErrBreakerOpen until Cooldown elapses
//	half-open one probe passes; Recovery successes close, any failure reopens
type Breaker struct {
	name      string
	threshold int
	recovery  int
	cooldown  time.Duration

	mu        sync.Mutex
	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time
}

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	}
	return "unknown"
}

var ErrBreakerOpen = errors.New("circuit breaker is open")

type BreakerConfig struct {
	Threshold int
	Recovery  int
	Cooldown  time.Duration
}

// NewBreaker fills unset fields with 5 failures, 2 recoveries and a 60s cooldown.
func NewBreaker(name string, cfg BreakerConfig) *Breaker {
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	if cfg.Recovery <= 0 {
		cfg.Recovery = 2
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	return &Breaker{name: name, threshold: cfg.Threshold, recovery: cfg.Recovery, cooldown: cfg.Cooldown}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentLocked()
}

func (b *Breaker) currentLocked() BreakerState {
	if b.state == BreakerOpen && time.Since(b.openedAt) >= b.cooldown {
		b.transitionLocked(BreakerHalfOpen)
	}
	return b.state
}

// Do runs fn unless the breaker is open.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	if b.currentLocked() == BreakerOpen {
		b.mu.Unlock()
		return ErrBreakerOpen
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		if b.state == BreakerHalfOpen || b.failures >= b.threshold {
			b.openedAt = time.Now()
			b.transitionLocked(BreakerOpen)
		}
		return err
	}
	switch b.state {
	case BreakerClosed:
		b.failures = 0
	case BreakerHalfOpen:
		b.successes++
		if b.successes >= b.recovery {
			b.transitionLocked(BreakerClosed)
		}
	}
	return nil
}

func (b *Breaker) transitionLocked(to BreakerState) {
	if b.state == to {
		return
	}
	log.Info().Str("breaker", b.name).Str("from", b.state.String()).Str("to", to.String()).Msg("circuit breaker state change")
	b.state = to
	b.failures = 0
	b.successes = 0
}
