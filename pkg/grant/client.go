package grant

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/opnet-go/op-core/pkg/digest"
	"github.com/opnet-go/op-core/pkg/httpsig"
	"github.com/opnet-go/op-core/pkg/logger"
	"github.com/opnet-go/op-core/pkg/model"
	"github.com/opnet-go/op-core/pkg/token"
	"github.com/opnet-go/op-core/pkg/transport"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Result is the outcome of a request/continue call: the state it
// classifies to, the raw GrantResponse, and — when APPROVED — the issued
// AccessToken.
type Result struct {
	State       State
	Response    *model.GrantResponse
	AccessToken *token.AccessToken
}

// Client drives the GNAP grant negotiation: request_grant, continue_grant,
// and cancel_grant, per spec.md §4.4. Grounded on the teacher's
// pkg/vcclient.Client request-building shape, adapted from a fixed-base-URL
// JSON REST client to one that signs every request with RFC 9421 headers
// against an arbitrary endpoint URI per call.
type Client struct {
	signer    *httpsig.Signer
	transport transport.Transport
	log       *logger.Log
}

// NewClient builds a grant Client.
func NewClient(signer *httpsig.Signer, tr transport.Transport, log *logger.Log) *Client {
	return &Client{signer: signer, transport: tr, log: log}
}

// RequestGrant POSTs req to endpoint: INIT -> REQUEST_SENT -> classified
// result, per spec.md §4.4's first four transitions.
func (c *Client) RequestGrant(ctx context.Context, endpoint string, req *model.GrantRequest) (*Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, model.NewGrantError("request_grant", err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, model.NewGrantError("request_grant", err)
	}

	return c.send(ctx, "request_grant", http.MethodPost, endpoint, body, nil)
}

// ContinueGrant POSTs {"interact_ref": interactRef} to continueInfo.URI with
// the GNAP continuation token as bearer authorization, per spec.md §4.4's
// INTERACTION_REQUIRED/PENDING -> PENDING|APPROVED|FAILED transitions.
func (c *Client) ContinueGrant(ctx context.Context, continueInfo *model.ContinueInfo, interactRef string) (*Result, error) {
	creq := &model.ContinueRequest{InteractRef: interactRef}
	if err := validate.Struct(creq); err != nil {
		return nil, model.NewGrantError("continue_grant", err)
	}

	body, err := json.Marshal(creq)
	if err != nil {
		return nil, model.NewGrantError("continue_grant", err)
	}

	auth := "GNAP " + continueInfo.AccessToken.Value
	return c.send(ctx, "continue_grant", http.MethodPost, continueInfo.URI, body, map[string]string{"authorization": auth})
}

// CancelGrant DELETEs continueInfo.URI with the GNAP continuation token,
// moving any non-terminal state to CANCELLED. It returns nil on 2xx; any
// other status is a GrantError carrying the status and response body.
func (c *Client) CancelGrant(ctx context.Context, continueInfo *model.ContinueInfo) error {
	auth := "GNAP " + continueInfo.AccessToken.Value
	result, err := c.send(ctx, "cancel_grant", http.MethodDelete, continueInfo.URI, nil, map[string]string{"authorization": auth})
	if err != nil {
		return err
	}
	if result.State == StateFailed {
		return model.NewGrantError("cancel_grant", nil)
	}
	return nil
}

// send builds, signs, and executes one grant-protocol HTTP call, then
// classifies a 2xx response (or, for DELETE/cancel, reports cancellation).
func (c *Client) send(ctx context.Context, op, method, uri string, body []byte, extraHeaders map[string]string) (*Result, error) {
	correlationID := uuid.NewString()
	log := c.log.New(op)

	headers := map[string]string{}
	for k, v := range extraHeaders {
		headers[k] = v
	}

	var bodyReader io.Reader
	if len(body) > 0 {
		headers["content-type"] = "application/json"
		headers["content-length"] = strconv.Itoa(len(body))
		headers["content-digest"] = digest.Digest(body)
		bodyReader = bytes.NewReader(body)
	}

	components := httpsig.NewComponents(method, uri, headers, body)
	sigHeaders, err := c.signer.Sign(components)
	if err != nil {
		return nil, model.NewGrantError(op, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, bodyReader)
	if err != nil {
		return nil, model.NewGrantError(op, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Signature-Input", sigHeaders.SignatureInput)
	req.Header.Set("Signature", sigHeaders.Signature)

	log.Info("sending grant request", "uri", uri, "method", method, "correlation_id", correlationID,
		"authorization", logger.MaskHeader("authorization", headers["authorization"]))

	resp, err := c.transport.Execute(ctx, req)
	if err != nil {
		log.Error(err, "grant transport call failed", "uri", uri, "correlation_id", correlationID)
		return nil, model.NewGrantError(op, err)
	}
	defer transport.DrainAndClose(resp)

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewGrantError(op, err)
	}

	if method == http.MethodDelete {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return &Result{State: StateCancelled}, nil
		}
		log.ByStatus(resp.StatusCode, "cancel_grant failed", "status", resp.StatusCode, "correlation_id", correlationID)
		return nil, model.NewGrantStatusError(op, resp.StatusCode, respBody)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.ByStatus(resp.StatusCode, "grant call failed", "status", resp.StatusCode, "correlation_id", correlationID)
		return nil, model.NewGrantStatusError(op, resp.StatusCode, respBody)
	}

	var grantResp model.GrantResponse
	if err := json.Unmarshal(respBody, &grantResp); err != nil {
		return nil, model.NewGrantError(op, err)
	}

	result := classify(&grantResp)
	if result.State == StateApproved {
		result.AccessToken = token.FromResponse(grantResp.AccessToken, time.Now())
	}
	return result, nil
}

// classify maps a GrantResponse onto the APPROVED/INTERACTION_REQUIRED/
// PENDING/FAILED table from spec.md §3 and §4.4.
func classify(resp *model.GrantResponse) *Result {
	switch {
	case resp.AccessToken != nil:
		return &Result{State: StateApproved, Response: resp}
	case resp.Continue != nil && resp.Interact != nil:
		return &Result{State: StateInteractionRequired, Response: resp}
	case resp.Continue != nil:
		return &Result{State: StatePending, Response: resp}
	default:
		return &Result{State: StateFailed, Response: resp}
	}
}
