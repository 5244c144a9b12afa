// Package digest implements the Content-Digest header value for SHA-256 in
// the exact literal form spec.md repeats throughout (§3, §4.2, §6, and
// testable Scenario 2): sha-256=:<base64(sha256(body))>:=, with a trailing
// "=" after the closing ":". Kept on the standard library (crypto/sha256,
// encoding/base64) deliberately — see SPEC_FULL.md §4.2 for why no
// ecosystem dependency fits this concern.
package digest

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const (
	prefix = "sha-256=:"
	suffix = ":="
)

// Digest computes the Content-Digest header value for body.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return prefix + base64.StdEncoding.EncodeToString(sum[:]) + suffix
}

// Validate reports whether header is the correct Content-Digest for body.
func Validate(body []byte, header string) bool {
	return Digest(body) == header
}

// ExtractHash returns the base64 hash portion of header, or "" if header
// isn't of the form sha-256=:...:=.
func ExtractHash(header string) string {
	if len(header) < len(prefix)+len(suffix) || !strings.HasPrefix(header, prefix) || !strings.HasSuffix(header, suffix) {
		return ""
	}
	inner := header[len(prefix) : len(header)-len(suffix)]
	if inner == "" {
		return ""
	}
	return inner
}

// IsValidFormat reports whether header is of the form sha-256=:<b64>:= and
// the inner portion is valid base64.
func IsValidFormat(header string) bool {
	hash := ExtractHash(header)
	if hash == "" {
		return false
	}
	_, err := base64.StdEncoding.DecodeString(hash)
	return err == nil
}
