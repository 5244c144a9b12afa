package model

import (
	"encoding/json"

	"github.com/moogar0880/problems"
)

// ProblemDetail is an RFC 7807 problem-details view over a non-2xx grant or
// token response body. It is attached to GrantError/TokenError whenever the
// body decodes as problem+json; callers that don't care about structure can
// still use GrantError.Body / TokenError.Body directly.
type ProblemDetail struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Status   int    `json:"status,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// parseProblemDetail attempts to decode body as an RFC 7807 problem. It
// returns nil, not an error, when the body isn't problem-shaped JSON — a
// grant/token error always carries the raw body regardless.
func parseProblemDetail(body []byte) *ProblemDetail {
	if len(body) == 0 {
		return nil
	}
	var p problems.Problem
	if err := json.Unmarshal(body, &p); err != nil {
		return nil
	}
	if p.Title == "" && p.Detail == "" {
		return nil
	}
	return &ProblemDetail{
		Type:     p.Type,
		Title:    p.Title,
		Detail:   p.Detail,
		Status:   p.Status,
		Instance: p.Instance,
	}
}
