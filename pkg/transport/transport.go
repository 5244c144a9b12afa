// Package transport defines the Transport capability used to send signed
// GNAP/HTTP-message-signature requests, and a base implementation backed by
// net/http. pkg/resilience wraps a Transport with retry and circuit-breaker
// behavior without changing this interface.
package transport

import (
	"context"
	"io"
	"net/http"
)

// RequestInterceptor can observe or mutate a request before it is sent.
// Returning an error aborts the call before it reaches the network.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor observes a response after the round trip completes.
// It cannot replace the response, only inspect it (and return an error to
// abort further processing, e.g. interceptor-level validation).
type ResponseInterceptor func(resp *http.Response) error

// Transport is the capability surface every GNAP client component depends
// on: execute a prepared *http.Request and get a *http.Response, with
// request/response interceptors for cross-cutting concerns (logging,
// correlation IDs) and an explicit Close for connection-pool teardown.
type Transport interface {
	Execute(ctx context.Context, req *http.Request) (*http.Response, error)
	Close() error
	AddRequestInterceptor(ic RequestInterceptor)
	AddResponseInterceptor(ic ResponseInterceptor)
}

// BaseTransport is the innermost Transport: a thin, interceptor-aware
// wrapper around *http.Client. It does not retry and does not know about
// circuit breakers — that policy lives one layer up in pkg/resilience.
type BaseTransport struct {
	client    *http.Client
	reqHooks  []RequestInterceptor
	respHooks []ResponseInterceptor
}

// New builds a BaseTransport. A nil client uses http.DefaultClient's
// transport settings via a fresh *http.Client{}.
func New(client *http.Client) *BaseTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &BaseTransport{client: client}
}

func (t *BaseTransport) AddRequestInterceptor(ic RequestInterceptor) {
	t.reqHooks = append(t.reqHooks, ic)
}

func (t *BaseTransport) AddResponseInterceptor(ic ResponseInterceptor) {
	t.respHooks = append(t.respHooks, ic)
}

// Execute runs the request interceptors, performs the round trip, then runs
// the response interceptors. The request body is read fully is the caller's
// responsibility if it needs to be replayed across retries — BaseTransport
// itself never retries.
func (t *BaseTransport) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	for _, ic := range t.reqHooks {
		if err := ic(req); err != nil {
			return nil, err
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}

	for _, ic := range t.respHooks {
		if err := ic(resp); err != nil {
			return resp, err
		}
	}

	return resp, nil
}

func (t *BaseTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

// DrainAndClose discards and closes a response body so the underlying
// connection can be reused by the pool. Callers that only need the status
// code or have already copied what they need should call this instead of a
// bare resp.Body.Close().
func DrainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

var _ Transport = (*BaseTransport)(nil)
