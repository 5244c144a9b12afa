// Package resilience wraps a pkg/transport.Transport with the retry and
// circuit-breaker policy from spec.md §4.6: a three-state breaker
// (closed/open/half-open) guarding a retry loop driven by pkg/retry
// strategies.
package resilience

import (
	"sync"
	"time"

	"github.com/creasty/defaults"
)

// State is one of the three circuit breaker states.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// CircuitBreakerConfig tunes the breaker. HalfOpenProbes bounds how many
// concurrent trial requests are allowed through while half-open — once that
// many probes are in flight, further calls are rejected until one resolves.
// Zero-value fields are filled in by DefaultCircuitBreakerConfig/
// NewCircuitBreaker via creasty/defaults, mirroring the teacher's
// pkg/configuration.Parse use of `defaults.Set` over struct tags.
type CircuitBreakerConfig struct {
	MaxFailures    int           `default:"5"`
	ResetTimeout   time.Duration `default:"30s"`
	HalfOpenProbes int           `default:"1"`
}

// DefaultCircuitBreakerConfig returns a CircuitBreakerConfig with every
// field set to its `default` struct tag value.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	cfg := CircuitBreakerConfig{}
	_ = defaults.Set(&cfg)
	return cfg
}

// breakerRejected is the error type behind ErrCircuitOpen.
type breakerRejected struct{}

func (breakerRejected) Error() string { return "circuit breaker open" }

// ErrCircuitOpen is a sentinel for a breaker rejection. Allow itself reports
// rejection as false, and ResilientTransport.Execute reports it as a
// *model.CircuitOpenError, not as this value.
var ErrCircuitOpen error = breakerRejected{}

// CircuitBreaker guards a downstream dependency: after MaxFailures
// consecutive failures it opens and rejects calls for ResetTimeout, then
// allows up to HalfOpenProbes trial calls through; a trial failure reopens
// it immediately, and HalfOpenProbes trial successes close it and reset the
// failure count.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu                sync.Mutex
	state             State
	failures          int
	lastFailure       time.Time
	halfOpenInFlight  int
	halfOpenSuccesses int
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	_ = defaults.Set(&cfg)
	if cfg.HalfOpenProbes <= 0 {
		cfg.HalfOpenProbes = 1
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// Allow reports whether a call may proceed right now, transitioning
// open -> half-open once ResetTimeout has elapsed. When it allows a
// half-open probe through, the caller MUST eventually call Success or
// Failure exactly once to release the probe slot.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true

	case StateOpen:
		if time.Since(cb.lastFailure) < cb.cfg.ResetTimeout {
			return false
		}
		cb.state = StateHalfOpen
		cb.halfOpenInFlight = 0
		cb.halfOpenSuccesses = 0
		fallthrough

	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.cfg.HalfOpenProbes {
			return false
		}
		cb.halfOpenInFlight++
		return true

	default:
		return false
	}
}

// Success records a successful call. In HALF_OPEN, the circuit only closes
// once HalfOpenProbes consecutive successes have been recorded; in CLOSED
// it simply clears the failure count.
func (cb *CircuitBreaker) Success() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateHalfOpen {
		cb.failures = 0
		return
	}

	if cb.halfOpenInFlight > 0 {
		cb.halfOpenInFlight--
	}
	cb.halfOpenSuccesses++
	if cb.halfOpenSuccesses >= cb.cfg.HalfOpenProbes {
		cb.state = StateClosed
		cb.failures = 0
		cb.halfOpenInFlight = 0
		cb.halfOpenSuccesses = 0
	}
}

// Failure records a failed call. A half-open probe failing reopens the
// circuit immediately; a closed-state failure opens it once MaxFailures is
// reached.
func (cb *CircuitBreaker) Failure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastFailure = time.Now()

	if cb.state == StateHalfOpen {
		cb.state = StateOpen
		cb.halfOpenInFlight = 0
		cb.halfOpenSuccesses = 0
		return
	}

	cb.failures++
	if cb.failures >= cb.cfg.MaxFailures {
		cb.state = StateOpen
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// SinceLastFailure reports how long it has been since the last recorded
// failure, for CircuitOpenError diagnostics.
func (cb *CircuitBreaker) SinceLastFailure() time.Duration {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.lastFailure.IsZero() {
		return 0
	}
	return time.Since(cb.lastFailure)
}

// Reset forces the breaker back to closed with a zero failure count.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.state = StateClosed
	cb.failures = 0
	cb.halfOpenInFlight = 0
	cb.halfOpenSuccesses = 0
}
