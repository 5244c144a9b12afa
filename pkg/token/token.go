// Package token manages the lifetime of a GNAP access token: wrapping a
// grant response's access_token member in a type with expiry predicates,
// and rotating/revoking it against its manage URI. Grounded on the
// teacher's pkg/trust client method shape (explicit *Client with a signer
// and transport dependency, one method per remote operation) and on
// pkg/trust/cache.go for the ttlcache usage pattern.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opnet-go/op-core/pkg/model"
)

// AccessToken is the client-side view of a GNAP access_token response
// member: its bearer value, where to manage it, and when it expires.
type AccessToken struct {
	Value     string
	Manage    string
	Access    []model.Access
	ExpiresAt time.Time // zero means "unknown expiry"
}

// FromResponse builds an AccessToken from a grant/continue response's
// access_token member. issuedAt is the time the response was received. When
// ExpiresIn is absent, this falls back to a best-effort parse of Value as a
// JWT and reads its exp claim — purely advisory, since GNAP access tokens
// are opaque bearer strings by default and are not required to be JWTs.
func FromResponse(resp *model.AccessTokenResponse, issuedAt time.Time) *AccessToken {
	at := &AccessToken{
		Value:  resp.Value,
		Manage: resp.Manage,
		Access: resp.Access,
	}

	switch {
	case resp.ExpiresIn > 0:
		at.ExpiresAt = issuedAt.Add(time.Duration(resp.ExpiresIn) * time.Second)
	default:
		if exp, ok := jwtExpiry(resp.Value); ok {
			at.ExpiresAt = exp
		}
	}

	return at
}

// jwtExpiry best-effort parses token as a JWT and extracts its exp claim,
// without verifying any signature — this is purely a fallback hint for
// opaque tokens that happen to be JWT-shaped, never a trust decision.
func jwtExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(token, claims)
	if err != nil {
		return time.Time{}, false
	}
	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(int64(expFloat), 0), true
}

// IsExpired reports whether the token's known expiry has passed as of now.
// A token with unknown expiry is never reported expired.
func (a *AccessToken) IsExpired(now time.Time) bool {
	if a.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(a.ExpiresAt)
}

// IsExpiringSoon reports whether the token will expire within the given
// window. A token with unknown expiry is never reported expiring soon.
func (a *AccessToken) IsExpiringSoon(now time.Time, within time.Duration) bool {
	if a.ExpiresAt.IsZero() {
		return false
	}
	return a.ExpiresAt.Sub(now) <= within
}
