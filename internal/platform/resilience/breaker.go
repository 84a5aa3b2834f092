package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by Allow while the breaker is rejecting
// calls.
var ErrBreakerOpen = errors.New("breaker open")

type BreakerState int

const (
	BreakerClosed BreakerState = iota
	BreakerOpen
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// BreakerSettings tunes a Breaker. Zero values take defaults.
type BreakerSettings struct {
	Enabled          bool
	FailureThreshold int
	Cooldown         time.Duration
	HalfOpenProbes   int
}

func (s BreakerSettings) withDefaults() BreakerSettings {
	if s.FailureThreshold < 1 {
		s.FailureThreshold = 5
	}
	if s.Cooldown <= 0 {
		s.Cooldown = 15 * time.Second
	}
	if s.HalfOpenProbes < 1 {
		s.HalfOpenProbes = 1
	}
	return s
}

// Breaker protects a downstream dependency: after FailureThreshold
// consecutive failures it rejects calls for Cooldown, then lets a
// bounded number of probes through before closing again.
type Breaker struct {
	mu       sync.Mutex
	settings BreakerSettings
	clock    func() time.Time

	state     BreakerState
	failures  int
	openedAt  time.Time
	inFlight  int
	probeWins int
}

func NewBreaker(settings BreakerSettings) *Breaker {
	return &Breaker{
		settings: settings.withDefaults(),
		clock:    time.Now,
		state:    BreakerClosed,
	}
}

// Allow reports whether a call may proceed. Every successful Allow in
// the half-open state reserves a probe slot that Observe releases.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerOpen {
		if b.clock().Sub(b.openedAt) < b.settings.Cooldown {
			return ErrBreakerOpen
		}
		b.state = BreakerHalfOpen
		b.inFlight = 0
		b.probeWins = 0
	}

	if b.state == BreakerHalfOpen {
		if b.inFlight >= b.settings.HalfOpenProbes {
			return ErrBreakerOpen
		}
		b.inFlight++
	}
	return nil
}

// Observe records the outcome of a call admitted by Allow.
func (b *Breaker) Observe(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerClosed:
		if err == nil {
			b.failures = 0
			return
		}
		b.failures++
		if b.failures >= b.settings.FailureThreshold {
			b.trip()
		}
	case BreakerHalfOpen:
		if b.inFlight > 0 {
			b.inFlight--
		}
		if err != nil {
			b.trip()
			return
		}
		b.probeWins++
		if b.probeWins >= b.settings.HalfOpenProbes && b.inFlight == 0 {
			b.state = BreakerClosed
			b.failures = 0
		}
	case BreakerOpen:
		if err != nil {
			b.openedAt = b.clock()
		}
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == BreakerOpen && b.clock().Sub(b.openedAt) >= b.settings.Cooldown {
		return BreakerHalfOpen
	}
	return b.state
}

func (b *Breaker) trip() {
	b.state = BreakerOpen
	b.openedAt = b.clock()
	b.failures = 0
	b.inFlight = 0
	b.probeWins = 0
}
