package resilience

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/creasty/defaults"
	"github.com/opnet-go/op-core/pkg/model"
	"github.com/opnet-go/op-core/pkg/retry"
	"github.com/opnet-go/op-core/pkg/transport"
)

// DefaultRetryableStatus is the status set the resilient transport retries
// on when no explicit set is configured: 408, 429, and the 5xx codes that
// typically indicate a transient upstream problem.
func DefaultRetryableStatus() map[int]bool {
	return map[int]bool{
		http.StatusRequestTimeout:      true,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	}
}

// Config tunes ResilientTransport. MaxRetryDelay is filled in by
// creasty/defaults when left zero; MaxRetries is not, since zero is a
// meaningful "never retry" value that a defaulting pass must not clobber.
type Config struct {
	Strategy        retry.Strategy
	MaxRetries      int
	MaxRetryDelay   time.Duration `default:"30s"`
	RetryableStatus map[int]bool
	Breaker         *CircuitBreaker
}

func (c Config) withDefaults() Config {
	_ = defaults.Set(&c)
	if c.Strategy == nil {
		c.Strategy = &retry.Exponential{Delay: 200 * time.Millisecond}
	}
	if c.RetryableStatus == nil {
		c.RetryableStatus = DefaultRetryableStatus()
	}
	if c.Breaker == nil {
		c.Breaker = NewCircuitBreaker(DefaultCircuitBreakerConfig())
	}
	return c
}

// ResilientTransport decorates a transport.Transport with the retry and
// circuit-breaker execute() policy from spec.md §4.6. It implements
// transport.Transport itself, so it composes transparently with any caller
// that depends on that interface.
type ResilientTransport struct {
	inner transport.Transport
	cfg   Config
}

func NewResilientTransport(inner transport.Transport, cfg Config) *ResilientTransport {
	return &ResilientTransport{inner: inner, cfg: cfg.withDefaults()}
}

func (rt *ResilientTransport) AddRequestInterceptor(ic transport.RequestInterceptor) {
	rt.inner.AddRequestInterceptor(ic)
}

func (rt *ResilientTransport) AddResponseInterceptor(ic transport.ResponseInterceptor) {
	rt.inner.AddResponseInterceptor(ic)
}

func (rt *ResilientTransport) Close() error { return rt.inner.Close() }

// errRetryableStatus marks an operation attempt that returned a response
// with a retryable status code, so backoff.Retry keeps retrying without
// treating it as a hard failure once retries are exhausted.
var errRetryableStatus = errors.New("resilience: retryable response status")

// Execute runs req through the breaker/retry loop, driven by
// github.com/cenkalti/backoff/v4's Retry. The request body (if any) is
// buffered once up front so it can be replayed on every attempt.
func (rt *ResilientTransport) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	var bodyBytes []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, err
		}
		bodyBytes = b
	}

	var lastResp *http.Response

	operation := func() error {
		if !rt.cfg.Breaker.Allow() {
			return backoff.Permanent(&model.CircuitOpenError{SinceOpen: rt.cfg.Breaker.SinceLastFailure().String()})
		}

		attemptReq := cloneRequest(req, bodyBytes)
		resp, err := rt.inner.Execute(ctx, attemptReq)

		if err == nil && !rt.cfg.RetryableStatus[resp.StatusCode] {
			rt.cfg.Breaker.Success()
			lastResp = resp
			return nil
		}

		rt.cfg.Breaker.Failure()

		if lastResp != nil {
			transport.DrainAndClose(lastResp)
			lastResp = nil
		}

		if err != nil {
			return err
		}

		lastResp = resp
		return errRetryableStatus
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&backoffAdapter{strategy: rt.cfg.Strategy, maxDelay: rt.cfg.MaxRetryDelay}, uint64(rt.cfg.MaxRetries)),
		ctx,
	)

	err := backoff.Retry(operation, b)
	switch {
	case err == nil:
		return lastResp, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, err
	case lastResp != nil:
		// Retries exhausted on a retryable status: spec.md §4.6 surfaces the
		// last observed response rather than an error in this case.
		return lastResp, nil
	default:
		return nil, err
	}
}

func cloneRequest(req *http.Request, body []byte) *http.Request {
	clone := req.Clone(req.Context())
	if body != nil {
		clone.Body = io.NopCloser(bytes.NewReader(body))
		clone.ContentLength = int64(len(body))
	}
	return clone
}

// backoffAdapter adapts a retry.Strategy — a pure attempt -> Duration
// function per spec.md §4.5 — into cenkalti/backoff/v4's stateful BackOff
// interface, driving the attempt counter itself and capping every computed
// delay at maxDelay before handing it to backoff.Retry.
type backoffAdapter struct {
	strategy retry.Strategy
	maxDelay time.Duration
	attempt  int
}

func (a *backoffAdapter) NextBackOff() time.Duration {
	a.attempt++
	d := a.strategy.CalculateDelay(a.attempt)
	if d > a.maxDelay {
		d = a.maxDelay
	}
	return d
}

func (a *backoffAdapter) Reset() { a.attempt = 0 }

var _ backoff.BackOff = (*backoffAdapter)(nil)

var _ transport.Transport = (*ResilientTransport)(nil)
