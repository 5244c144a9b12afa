package keys

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/opnet-go/op-core/pkg/model"
)

// JWK is the JSON Web Key view of an Ed25519 public key, exactly the fields
// spec.md §3 names — nothing more.
type JWK struct {
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Kty string `json:"kty"`
	Crv string `json:"crv"`
	X   string `json:"x"`
	Use string `json:"use,omitempty"`
}

// ToJWK extracts the KeyPair's public key into its JWK form: kty=OKP,
// crv=Ed25519, alg=EdDSA, x = base64url-no-pad(raw 32-byte public key).
func (k *KeyPair) ToJWK() (*JWK, error) {
	if k.keyID == "" {
		return nil, model.NewKeyError("to_jwk", errors.New("key id must not be blank"))
	}
	return &JWK{
		Kid: k.keyID,
		Alg: "EdDSA",
		Kty: "OKP",
		Crv: "Ed25519",
		X:   base64.RawURLEncoding.EncodeToString(k.public),
		Use: "sig",
	}, nil
}

// IsValid checks the structural invariants from spec.md §3: kid non-blank,
// x is valid base64url decoding to exactly 32 bytes, and the JSON shape
// round-trips through a real JWK parser (lestrrat-go/jwx/v3), which also
// catches a kty/crv combination that isn't actually a valid OKP/Ed25519 key.
func (j *JWK) IsValid() bool {
	if j.Kid == "" {
		return false
	}
	raw, err := base64.RawURLEncoding.DecodeString(j.X)
	if err != nil || len(raw) != 32 {
		return false
	}
	data, err := json.Marshal(j)
	if err != nil {
		return false
	}
	if _, err := jwk.ParseKey(data); err != nil {
		return false
	}
	return true
}
