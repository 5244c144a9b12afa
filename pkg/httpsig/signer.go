package httpsig

import (
	"encoding/base64"
	"time"

	"github.com/opnet-go/op-core/pkg/keys"
	"github.com/opnet-go/op-core/pkg/model"
)

// SignatureHeaders holds the two headers a caller must attach to the
// outbound request: Signature-Input and Signature.
type SignatureHeaders struct {
	SignatureInput string
	Signature      string
}

// Signer builds RFC 9421 signature bases and signs/verifies them with an
// Ed25519 KeyPair. A Signer is immutable after construction — it holds only
// a borrowed, already-immutable *keys.KeyPair — so concurrent Sign/Verify
// calls need no external synchronization.
type Signer struct {
	key *keys.KeyPair
}

// NewSigner builds a Signer over key.
func NewSigner(key *keys.KeyPair) *Signer {
	return &Signer{key: key}
}

// Sign builds the signature base for c's derived component list, signs it,
// and returns the Signature-Input/Signature header pair to attach to the
// outbound request.
func (s *Signer) Sign(c *Components) (*SignatureHeaders, error) {
	ids := c.Identifiers()
	base, err := buildBase(c, ids)
	if err != nil {
		return nil, err
	}

	nonce, err := generateNonce()
	if err != nil {
		return nil, err
	}

	sig, err := s.key.Sign([]byte(base))
	if err != nil {
		return nil, model.NewSignatureError("sign", err)
	}

	params := SignatureParams{
		Identifiers: ids,
		Created:     time.Now().Unix(),
		KeyID:       s.key.KeyID(),
		Alg:         "ed25519",
		Nonce:       nonce,
	}

	return &SignatureHeaders{
		SignatureInput: encodeSignatureInput(params),
		Signature:      encodeSignature(base64.StdEncoding.EncodeToString(sig)),
	}, nil
}

// Verify rebuilds the signature base from c using the component list named
// in signatureInputHeader, and checks signatureHeader against it with this
// Signer's public key. A structurally malformed signature value is a
// SignatureError; a well-formed but incorrect signature returns
// (false, nil), matching KeyPair.Verify's no-error-on-mismatch contract.
func (s *Signer) Verify(c *Components, signatureInputHeader, signatureHeader string) (bool, error) {
	params, err := parseSignatureInput(signatureInputHeader)
	if err != nil {
		return false, err
	}

	base, err := buildBase(c, params.Identifiers)
	if err != nil {
		return false, err
	}

	b64sig, err := parseSignature(signatureHeader)
	if err != nil {
		return false, err
	}
	sig, err := base64.StdEncoding.DecodeString(b64sig)
	if err != nil {
		return false, model.NewSignatureError("verify", err)
	}

	return s.key.Verify([]byte(base), sig), nil
}
