// Package model holds the error taxonomy and wire-adjacent value types
// shared by every subsystem of the core: keys, httpsig, grant, token, and
// resilience. Named sentinel-style error types follow the teacher's
// pkg/model/errors.go and pkg/helpers/error.go conventions: a concrete
// exported type per failure kind, each wrapping an optional cause.
package model

import "fmt"

// KeyError reports a failure in key generation, loading, or derivation.
type KeyError struct {
	Op  string
	Err error
}

func (e *KeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("key: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("key: %s", e.Op)
}

func (e *KeyError) Unwrap() error { return e.Err }

// NewKeyError builds a KeyError for operation op.
func NewKeyError(op string, err error) *KeyError {
	return &KeyError{Op: op, Err: err}
}

// SignatureError reports that signing or verification could not proceed:
// a referenced header was missing from the component plan, the signature
// base64 was malformed, or the signing algorithm is unavailable.
type SignatureError struct {
	Op  string
	Err error
}

func (e *SignatureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signature: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("signature: %s", e.Op)
}

func (e *SignatureError) Unwrap() error { return e.Err }

// NewSignatureError builds a SignatureError for operation op.
func NewSignatureError(op string, err error) *SignatureError {
	return &SignatureError{Op: op, Err: err}
}

// GrantError reports a non-2xx grant response, a JSON (de)serialization
// failure, or a protocol violation encountered while negotiating a GNAP
// grant. Status is zero when the failure did not come from a non-2xx
// response (e.g. malformed request, transport error, undecodable body).
type GrantError struct {
	Op       string
	Status   int
	Body     []byte
	Problem  *ProblemDetail
	Err      error
}

func (e *GrantError) Error() string {
	switch {
	case e.Status != 0 && e.Problem != nil:
		return fmt.Sprintf("grant: %s: status %d: %s", e.Op, e.Status, e.Problem.Title)
	case e.Status != 0:
		return fmt.Sprintf("grant: %s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("grant: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("grant: %s", e.Op)
	}
}

func (e *GrantError) Unwrap() error { return e.Err }

// NewGrantError builds a GrantError with no HTTP status: a failure in request
// construction, JSON (un)marshalling, signing, or the transport call itself.
func NewGrantError(op string, err error) *GrantError {
	return &GrantError{Op: op, Err: err}
}

// NewGrantStatusError builds a GrantError from a non-2xx HTTP response.
func NewGrantStatusError(op string, status int, body []byte) *GrantError {
	ge := &GrantError{Op: op, Status: status, Body: body}
	ge.Problem = parseProblemDetail(body)
	return ge
}

// TokenError reports a failure rotating or revoking an access token.
type TokenError struct {
	Op      string
	Status  int
	Body    []byte
	Problem *ProblemDetail
	Err     error
}

func (e *TokenError) Error() string {
	switch {
	case e.Status != 0 && e.Problem != nil:
		return fmt.Sprintf("token: %s: status %d: %s", e.Op, e.Status, e.Problem.Title)
	case e.Status != 0:
		return fmt.Sprintf("token: %s: status %d", e.Op, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("token: %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("token: %s", e.Op)
	}
}

func (e *TokenError) Unwrap() error { return e.Err }

// NewTokenError builds a TokenError with no HTTP status: a failure in request
// construction, signing, the transport call, or decoding the response.
func NewTokenError(op string, err error) *TokenError {
	return &TokenError{Op: op, Err: err}
}

// NewTokenStatusError builds a TokenError from a non-2xx HTTP response.
func NewTokenStatusError(op string, status int, body []byte) *TokenError {
	te := &TokenError{Op: op, Status: status, Body: body}
	te.Problem = parseProblemDetail(body)
	return te
}

// CircuitOpenError is returned by the resilient transport when the breaker
// fast-fails a request without ever invoking the base transport.
type CircuitOpenError struct {
	// SinceOpen is how long the breaker has been open, for operator
	// diagnostics; it does not change retry behavior.
	SinceOpen string
}

func (e *CircuitOpenError) Error() string {
	return "circuit breaker open: " + e.SinceOpen + " since last failure"
}
