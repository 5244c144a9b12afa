package httpsig

import (
	"fmt"
	"strings"

	"github.com/opnet-go/op-core/pkg/model"
)

// buildBase renders the RFC 9421 signature base string for the given
// component plan and explicit, ordered identifier list. Signing always
// passes components.Identifiers(); verification passes whatever identifier
// list the Signature-Input header named, which may or may not match what
// Identifiers() would derive from the reconstructed request — a mismatch
// there is a verification failure, not a panic, so the two are kept
// separate.
func buildBase(c *Components, identifiers []string) (string, error) {
	var b strings.Builder
	for _, id := range identifiers {
		value, err := componentValue(c, id)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%q: %s\n", id, value)
	}
	b.WriteString(`"@signature-params": (`)
	for i, id := range identifiers {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%q", id)
	}
	b.WriteByte(')')
	return b.String(), nil
}

func componentValue(c *Components, id string) (string, error) {
	switch id {
	case compMethod:
		return c.method, nil
	case compTargetURI:
		return c.targetURI, nil
	default:
		v, ok := c.Header(id)
		if !ok {
			return "", model.NewSignatureError("build_base", fmt.Errorf("component %q has no corresponding header", id))
		}
		return v, nil
	}
}
