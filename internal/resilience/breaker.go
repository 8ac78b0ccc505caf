// Package resilience protects exchange calls with per-exchange circuit
// breakers so a failing venue does not stall the whole pipeline.
package resilience

import (
	"errors"
	"sync"
	"time"

	apperrors "dca-trader/internal/errors"
)

// BreakerState is the current mode of a circuit breaker.
type BreakerState string

const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// ErrBreakerOpen is returned when calls are being rejected because the
// exchange tripped its breaker.
var ErrBreakerOpen = errors.New("exchange circuit breaker is open")

// BreakerConfig tunes when a breaker trips and recovers.
type BreakerConfig struct {
	FailureThreshold int           // consecutive failures before opening
	SuccessThreshold int           // successes in half-open before closing
	CoolDown         time.Duration // open duration before probing again
}

// DefaultBreakerConfig returns the settings used for exchange calls.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		CoolDown:         30 * time.Second,
	}
}

// Breaker is a single circuit breaker. Only transport-level failures
// count against the threshold; order rejections and validation errors
// pass through without affecting the state.
type Breaker struct {
	name   string
	config BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	successes   int
	openedAt    time.Time
	lastFailure time.Time
}

// NewBreaker creates a closed breaker.
func NewBreaker(name string, config BreakerConfig) *Breaker {
	return &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
	}
}

// Allow reports whether a call may proceed. An open breaker moves to
// half-open once the cool-down has elapsed.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if time.Since(b.openedAt) < b.config.CoolDown {
			return ErrBreakerOpen
		}
		b.state = StateHalfOpen
		b.successes = 0
	}
	return nil
}

// Record feeds a call outcome back into the breaker. Errors that are
// not transport failures are treated as successes for breaker purposes.
func (b *Breaker) Record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil && isTransportFailure(err) {
		b.lastFailure = time.Now()
		switch b.state {
		case StateHalfOpen:
			b.open()
		case StateClosed:
			b.failures++
			if b.failures >= b.config.FailureThreshold {
				b.open()
			}
		}
		return
	}

	switch b.state {
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
		}
	case StateClosed:
		b.failures = 0
	}
}

func (b *Breaker) open() {
	b.state = StateOpen
	b.openedAt = time.Now()
	b.failures = 0
}

// State returns the current breaker state.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Reset forces the breaker closed.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
}

func isTransportFailure(err error) bool {
	return errors.Is(err, apperrors.ErrConnectionFailed) ||
		errors.Is(err, apperrors.ErrTimeout) ||
		errors.Is(err, apperrors.ErrRateLimited)
}

// BreakerSet holds one breaker per exchange, created on first use.
type BreakerSet struct {
	config BreakerConfig

	mu       sync.Mutex
	breakers map[string]*Breaker
}

// NewBreakerSet creates an empty set sharing one configuration.
func NewBreakerSet(config BreakerConfig) *BreakerSet {
	return &BreakerSet{
		config:   config,
		breakers: make(map[string]*Breaker),
	}
}

// Get returns the breaker for the named exchange, creating it if needed.
func (s *BreakerSet) Get(name string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	breaker, ok := s.breakers[name]
	if !ok {
		breaker = NewBreaker(name, s.config)
		s.breakers[name] = breaker
	}
	return breaker
}
