// Package retry implements the fixed/linear/exponential (+ jitter) and
// decorrelated-jitter delay strategies from spec.md §4.5. Each strategy is a
// pure function attempt >= 1 -> Duration (CalculateDelay). pkg/resilience
// adapts Strategy into github.com/cenkalti/backoff/v4's BackOff interface
// and drives the actual retry loop through backoff.Retry; this package has
// no dependency on that library, matching spec.md §4.5's description of a
// strategy as a pure function rather than a stateful retry driver.
package retry

import (
	"math"
	"math/rand"
	"sync/atomic"
	"time"
)

// Strategy is a pure delay function: the n-th retry attempt (n >= 1) maps to
// a Duration to wait before making it.
type Strategy interface {
	CalculateDelay(attempt int) time.Duration
}

// Fixed always waits Delay, regardless of attempt number.
type Fixed struct {
	Delay time.Duration
}

func (f *Fixed) CalculateDelay(attempt int) time.Duration { return f.Delay }

// Linear waits n * Delay before the n-th attempt.
type Linear struct {
	Delay time.Duration
}

func (l *Linear) CalculateDelay(attempt int) time.Duration {
	return time.Duration(attempt) * l.Delay
}

// Exponential waits 2^(n-1) * Delay before the n-th attempt.
type Exponential struct {
	Delay time.Duration
}

func (e *Exponential) CalculateDelay(attempt int) time.Duration {
	return exponentialDelay(e.Delay, attempt)
}

func exponentialDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := math.Pow(2, float64(attempt-1))
	return time.Duration(factor * float64(base))
}

// FullJitter returns uniform(0, exponential(Delay, n)).
type FullJitter struct {
	Delay time.Duration
	Rand  *rand.Rand // nil uses the package-level source
}

func (f *FullJitter) CalculateDelay(attempt int) time.Duration {
	max := exponentialDelay(f.Delay, attempt)
	if max <= 0 {
		return 0
	}
	return time.Duration(f.rand().Int63n(int64(max) + 1))
}

func (f *FullJitter) rand() *rand.Rand {
	if f.Rand != nil {
		return f.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// EqualJitter returns exponential(Delay, n)/2 + uniform(0, exponential(Delay, n)/2).
type EqualJitter struct {
	Delay time.Duration
	Rand  *rand.Rand
}

func (e *EqualJitter) CalculateDelay(attempt int) time.Duration {
	full := exponentialDelay(e.Delay, attempt)
	half := full / 2
	if half <= 0 {
		return half
	}
	return half + time.Duration(e.rand().Int63n(int64(half)+1))
}

func (e *EqualJitter) rand() *rand.Rand {
	if e.Rand != nil {
		return e.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// Decorrelated implements the AWS "decorrelated jitter" strategy:
// uniform(Delay, 3*previous), where previous starts at Delay and is updated
// to the returned delay on every call. previous is held in an atomic.Int64
// of nanoseconds so concurrent callers linearize correctly, per spec.md §5.
type Decorrelated struct {
	Delay time.Duration
	Rand  *rand.Rand

	previous atomic.Int64 // nanoseconds; 0 means "not yet initialized"
}

// CalculateDelay ignores attempt — decorrelated jitter only depends on the
// running previous-delay state, not the attempt index — but still
// implements Strategy so it's interchangeable with the others.
func (d *Decorrelated) CalculateDelay(attempt int) time.Duration {
	prev := d.previous.Load()
	if prev == 0 {
		prev = int64(d.Delay)
	}
	lo := int64(d.Delay)
	hi := prev * 3
	if hi <= lo {
		hi = lo + 1
	}
	next := lo + d.rand().Int63n(hi-lo+1)
	d.previous.Store(next)
	return time.Duration(next)
}

func (d *Decorrelated) rand() *rand.Rand {
	if d.Rand != nil {
		return d.Rand
	}
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

var (
	_ Strategy = (*Fixed)(nil)
	_ Strategy = (*Linear)(nil)
	_ Strategy = (*Exponential)(nil)
	_ Strategy = (*FullJitter)(nil)
	_ Strategy = (*EqualJitter)(nil)
	_ Strategy = (*Decorrelated)(nil)
)
