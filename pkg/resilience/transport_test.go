package resilience

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opnet-go/op-core/pkg/retry"
	"github.com/opnet-go/op-core/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport(t *testing.T, srv *httptest.Server, cfg Config) *ResilientTransport {
	t.Helper()
	base := transport.New(srv.Client())
	return NewResilientTransport(base, cfg)
}

func TestResilientTransportRetriesOnRetryableStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := newTestTransport(t, srv, Config{
		Strategy:   &retry.Fixed{Delay: time.Millisecond},
		MaxRetries: 5,
	})

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := rt.Execute(context.Background(), req)
	require.NoError(t, err)
	transport.DrainAndClose(resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestResilientTransportGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	rt := newTestTransport(t, srv, Config{
		Strategy:   &retry.Fixed{Delay: time.Millisecond},
		MaxRetries: 2,
	})

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := rt.Execute(context.Background(), req)
	require.NoError(t, err)
	transport.DrainAndClose(resp)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "initial attempt + 2 retries")
}

func TestResilientTransportDoesNotRetryNonRetryableStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	rt := newTestTransport(t, srv, Config{
		Strategy:   &retry.Fixed{Delay: time.Millisecond},
		MaxRetries: 5,
	})

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	resp, err := rt.Execute(context.Background(), req)
	require.NoError(t, err)
	transport.DrainAndClose(resp)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResilientTransportRejectsFastWhenBreakerOpen(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	breaker := NewCircuitBreaker(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour, HalfOpenProbes: 1})
	rt := newTestTransport(t, srv, Config{
		Strategy:   &retry.Fixed{Delay: time.Millisecond},
		MaxRetries: 0,
		Breaker:    breaker,
	})

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)

	_, err = rt.Execute(context.Background(), req)
	require.NoError(t, err) // single attempt returns the 503 response, not an error

	req2, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	_, err = rt.Execute(context.Background(), req2)
	assert.Error(t, err, "breaker should now be open and reject without calling the server again")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResilientTransportReplaysRequestBodyAcrossRetries(t *testing.T) {
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(buf)
		bodies = append(bodies, string(buf))
		if len(bodies) < 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rt := newTestTransport(t, srv, Config{
		Strategy:   &retry.Fixed{Delay: time.Millisecond},
		MaxRetries: 3,
	})

	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("hello"))
	require.NoError(t, err)

	resp, err := rt.Execute(context.Background(), req)
	require.NoError(t, err)
	transport.DrainAndClose(resp)

	require.Len(t, bodies, 2)
	assert.Equal(t, "hello", bodies[0])
	assert.Equal(t, "hello", bodies[1])
}
