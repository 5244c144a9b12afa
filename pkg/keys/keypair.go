// Package keys generates, loads, and uses Ed25519 key pairs, and produces
// their JWK (RFC 8037) form. Grounded on the teacher's pkg/jose/jwk.go
// (ParseSigningKey/CreateJWK shape) and pkg/pki/jwk.go (lestrrat-go/jwx/v3
// usage), adapted from ECDSA key-file loading to in-memory Ed25519 pairs —
// this module never touches the filesystem for key material (spec.md's
// Non-goals exclude persistent key storage).
package keys

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"errors"
	"strings"

	"github.com/opnet-go/op-core/pkg/model"
)

// KeyPair is an immutable Ed25519 key pair exclusively owned by one key id.
// Equality compares (KeyID, PublicKey) only, per spec.md's invariant — two
// KeyPairs with the same id and public key are the same identity even if
// constructed independently.
type KeyPair struct {
	keyID   string
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// Generate creates a new Ed25519 key pair using a cryptographically strong
// RNG (crypto/rand, via ed25519.GenerateKey).
func Generate(keyID string) (*KeyPair, error) {
	if strings.TrimSpace(keyID) == "" {
		return nil, model.NewKeyError("generate", errors.New("key id must not be blank"))
	}
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, model.NewKeyError("generate", err)
	}
	return &KeyPair{keyID: keyID, private: priv, public: pub}, nil
}

// FromPKCS8X509 loads a key pair from a PKCS#8 DER-encoded private key and an
// X.509 SubjectPublicKeyInfo DER-encoded public key. Per spec.md's design
// notes, public-key derivation from the private scalar is deliberately not
// attempted here — both halves must be supplied and are cross-checked
// against each other.
func FromPKCS8X509(keyID string, privDER, pubDER []byte) (*KeyPair, error) {
	if strings.TrimSpace(keyID) == "" {
		return nil, model.NewKeyError("load", errors.New("key id must not be blank"))
	}

	privAny, err := x509.ParsePKCS8PrivateKey(privDER)
	if err != nil {
		return nil, model.NewKeyError("load: parse pkcs8 private key", err)
	}
	priv, ok := privAny.(ed25519.PrivateKey)
	if !ok {
		return nil, model.NewKeyError("load", errors.New("private key is not Ed25519"))
	}

	pubAny, err := x509.ParsePKIXPublicKey(pubDER)
	if err != nil {
		return nil, model.NewKeyError("load: parse x509 public key", err)
	}
	pub, ok := pubAny.(ed25519.PublicKey)
	if !ok {
		return nil, model.NewKeyError("load", errors.New("public key is not Ed25519"))
	}

	if !bytes.Equal(priv.Public().(ed25519.PublicKey), pub) {
		return nil, model.NewKeyError("load", errors.New("public key does not match private key"))
	}

	return &KeyPair{keyID: keyID, private: priv, public: pub}, nil
}

// KeyID returns the identifier this pair is registered under.
func (k *KeyPair) KeyID() string { return k.keyID }

// PublicKey returns the raw 32-byte Ed25519 public key.
func (k *KeyPair) PublicKey() ed25519.PublicKey {
	out := make(ed25519.PublicKey, len(k.public))
	copy(out, k.public)
	return out
}

// Sign signs data and returns the 64-byte Ed25519 signature. Ed25519 is
// deterministic: the same (key, data) always yields the same signature.
func (k *KeyPair) Sign(data []byte) ([]byte, error) {
	if k.private == nil {
		return nil, model.NewKeyError("sign", errors.New("key pair has no private key"))
	}
	sig := ed25519.Sign(k.private, data)
	if len(sig) != ed25519.SignatureSize {
		return nil, model.NewKeyError("sign", errors.New("unexpected signature length"))
	}
	return sig, nil
}

// Verify reports whether signature is a valid Ed25519 signature over data
// for this key's public half. A tampered or wrong-length signature yields
// false, not an error — only a structurally invalid public key is an error,
// and KeyPair can't hold one, so Verify here never errors.
func (k *KeyPair) Verify(data, signature []byte) bool {
	if len(k.public) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(k.public, data, signature)
}

// Equal compares two key pairs by (KeyID, PublicKey) only, per spec.md.
func (k *KeyPair) Equal(other *KeyPair) bool {
	if k == nil || other == nil {
		return k == other
	}
	return k.keyID == other.keyID && bytes.Equal(k.public, other.public)
}

// String never includes private key material.
func (k *KeyPair) String() string {
	return "KeyPair{keyID: " + k.keyID + "}"
}
