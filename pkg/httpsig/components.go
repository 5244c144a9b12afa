// Package httpsig builds the RFC 9421 HTTP message signature base string,
// signs it with an Ed25519 KeyPair, and verifies signatures produced by
// this or another RFC 9421 implementation. This is the bit-exact core of
// the module: any whitespace or ordering difference here voids the
// signature, so nothing in this package takes a shortcut relative to
// RFC 9421 even where Go's stdlib would make one tempting.
package httpsig

import "strings"

// The RFC 9421 component identifiers this module signs (two derived
// components and four headers), listed in the order Identifiers emits them.
const (
	compMethod        = "@method"
	compTargetURI     = "@target-uri"
	compAuthorization = "authorization"
	compContentDigest = "content-digest"
	compContentType   = "content-type"
	compContentLength = "content-length"
)

// Components is a request-signing plan: method, absolute target URI, a
// case-insensitive header map, and an optional body. It is immutable after
// construction.
type Components struct {
	method    string
	targetURI string
	headers   map[string]string // lower-cased header name -> value
	order     []string          // lower-cased names, in the order NewComponents visited them
	body      []byte
	hasBody   bool
}

// NewComponents builds a signing plan. Header keys are normalized to
// lowercase for lookup; insertion order of the headers argument does not
// matter. body may be nil to represent a bodyless request (GET/DELETE).
func NewComponents(method, targetURI string, headers map[string]string, body []byte) *Components {
	h := make(map[string]string, len(headers))
	order := make([]string, 0, len(headers))
	for k, v := range headers {
		lk := strings.ToLower(k)
		if _, exists := h[lk]; !exists {
			order = append(order, lk)
		}
		h[lk] = v
	}
	return &Components{
		method:    strings.ToUpper(method),
		targetURI: targetURI,
		headers:   h,
		order:     order,
		body:      body,
		hasBody:   len(body) > 0,
	}
}

// Method returns the uppercased HTTP method.
func (c *Components) Method() string { return c.method }

// TargetURI returns the absolute target URI.
func (c *Components) TargetURI() string { return c.targetURI }

// Body returns the request body, or nil.
func (c *Components) Body() []byte { return c.body }

// Header looks up a header value case-insensitively.
func (c *Components) Header(name string) (string, bool) {
	v, ok := c.headers[strings.ToLower(name)]
	return v, ok
}

// Identifiers returns the ordered component identifier list per spec.md
// §4.3: @method, @target-uri, then authorization/content-digest/
// content-type/content-length, each only if its header is present —
// content-digest is additionally skipped when there is no body, even if
// the header was supplied (a digest header over an empty body is not a
// component this signer recognizes as present).
func (c *Components) Identifiers() []string {
	ids := []string{compMethod, compTargetURI}
	if _, ok := c.headers[compAuthorization]; ok {
		ids = append(ids, compAuthorization)
	}
	if _, ok := c.headers[compContentDigest]; ok && c.hasBody {
		ids = append(ids, compContentDigest)
	}
	if _, ok := c.headers[compContentType]; ok {
		ids = append(ids, compContentType)
	}
	if _, ok := c.headers[compContentLength]; ok {
		ids = append(ids, compContentLength)
	}
	return ids
}
