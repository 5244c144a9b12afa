package httpsig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/opnet-go/op-core/pkg/model"
)

// SignatureParams is the parsed form of a Signature-Input header value.
type SignatureParams struct {
	Identifiers []string
	Created     int64
	KeyID       string
	Alg         string
	Nonce       string
}

// encodeSignatureInput renders the Signature-Input header value. Parameter
// order is fixed — created, keyid, alg, nonce — per spec.md §6.
func encodeSignatureInput(p SignatureParams) string {
	var b strings.Builder
	b.WriteString("sig=(")
	for i, id := range p.Identifiers {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%q", id)
	}
	b.WriteString(")")
	fmt.Fprintf(&b, ";created=%d;keyid=%q;alg=%q;nonce=%q", p.Created, p.KeyID, p.Alg, p.Nonce)
	return b.String()
}

// parseSignatureInput parses a Signature-Input header value produced by
// encodeSignatureInput (or an RFC 9421-compliant peer using the same
// sig=(...) label and parameter set).
func parseSignatureInput(header string) (SignatureParams, error) {
	var p SignatureParams

	header = strings.TrimSpace(header)
	const label = "sig="
	if !strings.HasPrefix(header, label) {
		return p, model.NewSignatureError("parse_signature_input", errors.New("missing sig= label"))
	}
	rest := header[len(label):]

	open := strings.IndexByte(rest, '(')
	close := strings.IndexByte(rest, ')')
	if open != 0 || close < open {
		return p, model.NewSignatureError("parse_signature_input", errors.New("malformed component list"))
	}
	idList := rest[open+1 : close]
	if strings.TrimSpace(idList) != "" {
		for _, tok := range strings.Fields(idList) {
			p.Identifiers = append(p.Identifiers, strings.Trim(tok, `"`))
		}
	}

	params := rest[close+1:]
	for _, kv := range strings.Split(strings.TrimPrefix(params, ";"), ";") {
		kv = strings.TrimSpace(kv)
		if kv == "" {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq < 0 {
			return p, model.NewSignatureError("parse_signature_input", fmt.Errorf("malformed parameter %q", kv))
		}
		key := kv[:eq]
		val := strings.Trim(kv[eq+1:], `"`)
		switch key {
		case "created":
			ts, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return p, model.NewSignatureError("parse_signature_input", fmt.Errorf("malformed created: %w", err))
			}
			p.Created = ts
		case "keyid":
			p.KeyID = val
		case "alg":
			p.Alg = val
		case "nonce":
			p.Nonce = val
		}
	}
	return p, nil
}

// encodeSignature renders the Signature header value: sig=:<b64>:.
func encodeSignature(sig string) string {
	return "sig=:" + sig + ":"
}

// parseSignature extracts the base64 payload from a Signature header value.
func parseSignature(header string) (string, error) {
	header = strings.TrimSpace(header)
	const label = "sig=:"
	if !strings.HasPrefix(header, label) || !strings.HasSuffix(header, ":") {
		return "", model.NewSignatureError("parse_signature", errors.New("malformed Signature header"))
	}
	return header[len(label) : len(header)-1], nil
}
