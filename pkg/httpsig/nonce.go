package httpsig

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/opnet-go/op-core/pkg/model"
)

// generateNonce draws 16 cryptographically random bytes, base64-encoded,
// freshly per signature. Mirrors the teacher's
// oauth2.GenerateCryptographicNonce: probe crypto/rand availability first
// so an unavailable CSPRNG surfaces as a clear SignatureError rather than a
// panic deep in ed25519 signing.
func generateNonce() (string, error) {
	probe := make([]byte, 1)
	if _, err := io.ReadFull(rand.Reader, probe); err != nil {
		return "", model.NewSignatureError("nonce", err)
	}
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", model.NewSignatureError("nonce", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
