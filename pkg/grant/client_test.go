package grant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/opnet-go/op-core/pkg/digest"
	"github.com/opnet-go/op-core/pkg/httpsig"
	"github.com/opnet-go/op-core/pkg/keys"
	"github.com/opnet-go/op-core/pkg/model"
	"github.com/opnet-go/op-core/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	kp, err := keys.Generate("k1")
	require.NoError(t, err)
	signer := httpsig.NewSigner(kp)
	tr := transport.New(srv.Client())
	return NewClient(signer, tr, nil)
}

func validGrantRequest() *model.GrantRequest {
	return &model.GrantRequest{
		AccessToken: model.AccessTokenRequest{
			Access: []model.Access{{Type: model.AccessTypeQuote, Actions: []string{"create"}}},
		},
		Client: model.Client{
			Key:     model.ClientKey{JWKS: "https://client.example/jwks.json"},
			Display: model.Display{Name: "test client"},
		},
	}
}

func TestRequestGrantClassifiesApproved(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("Content-Digest"))
		assert.NotEmpty(t, r.Header.Get("Signature-Input"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.True(t, digest.Validate(body, r.Header.Get("Content-Digest")))

		_ = json.NewEncoder(w).Encode(model.GrantResponse{
			AccessToken: &model.AccessTokenResponse{
				Value:  "tok123",
				Manage: "https://as.example/manage/1",
			},
		})
	}))
	defer srv.Close()

	c := newClient(t, srv)
	result, err := c.RequestGrant(context.Background(), srv.URL+"/grant", validGrantRequest())
	require.NoError(t, err)
	assert.Equal(t, StateApproved, result.State)
	require.NotNil(t, result.AccessToken)
	assert.Equal(t, "tok123", result.AccessToken.Value)
}

func TestRequestGrantClassifiesInteractionRequired(t *testing.T) {
	want := model.GrantResponse{
		Continue: &model.ContinueInfo{
			AccessToken: struct {
				Value string `json:"value" validate:"required"`
			}{Value: "ct"},
			URI: "https://as.example/continue",
		},
		Interact: &model.InteractResponse{
			Redirect: "https://as.example/interact/redirect",
			Finish:   "f",
		},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	c := newClient(t, srv)
	result, err := c.RequestGrant(context.Background(), srv.URL+"/grant", validGrantRequest())
	require.NoError(t, err)
	assert.Equal(t, StateInteractionRequired, result.State)
	assert.Nil(t, result.AccessToken)

	if diff := cmp.Diff(want, *result.Response); diff != "" {
		t.Errorf("GrantResponse round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestGrantClassifiesPending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(model.GrantResponse{
			Continue: &model.ContinueInfo{
				AccessToken: struct {
					Value string `json:"value" validate:"required"`
				}{Value: "ct"},
				URI: "https://as.example/continue",
			},
		})
	}))
	defer srv.Close()

	c := newClient(t, srv)
	result, err := c.RequestGrant(context.Background(), srv.URL+"/grant", validGrantRequest())
	require.NoError(t, err)
	assert.Equal(t, StatePending, result.State)
}

func TestRequestGrantNon2xxIsGrantError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"title":"invalid_request"}`))
	}))
	defer srv.Close()

	c := newClient(t, srv)
	_, err := c.RequestGrant(context.Background(), srv.URL+"/grant", validGrantRequest())
	require.Error(t, err)

	var ge *model.GrantError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, http.StatusBadRequest, ge.Status)
	require.NotNil(t, ge.Problem)
	assert.Equal(t, "invalid_request", ge.Problem.Title)
}

func TestRequestGrantRejectsInvalidRequestBeforeSending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should never reach the server")
	}))
	defer srv.Close()

	c := newClient(t, srv)
	_, err := c.RequestGrant(context.Background(), srv.URL+"/grant", &model.GrantRequest{})
	assert.Error(t, err)
}

func TestContinueGrantSendsBearerAuthorizationAndInteractRef(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GNAP ct", r.Header.Get("Authorization"))

		var body model.ContinueRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ref-1", body.InteractRef)

		_ = json.NewEncoder(w).Encode(model.GrantResponse{
			AccessToken: &model.AccessTokenResponse{Value: "tok456"},
		})
	}))
	defer srv.Close()

	c := newClient(t, srv)
	continueInfo := &model.ContinueInfo{
		AccessToken: struct {
			Value string `json:"value" validate:"required"`
		}{Value: "ct"},
		URI: srv.URL + "/continue",
	}

	result, err := c.ContinueGrant(context.Background(), continueInfo, "ref-1")
	require.NoError(t, err)
	assert.Equal(t, StateApproved, result.State)
}

func TestCancelGrantSendsDeleteWithAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "GNAP ct", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newClient(t, srv)
	continueInfo := &model.ContinueInfo{
		AccessToken: struct {
			Value string `json:"value" validate:"required"`
		}{Value: "ct"},
		URI: srv.URL + "/continue",
	}

	err := c.CancelGrant(context.Background(), continueInfo)
	assert.NoError(t, err)
}

func TestCancelGrantFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newClient(t, srv)
	continueInfo := &model.ContinueInfo{
		AccessToken: struct {
			Value string `json:"value" validate:"required"`
		}{Value: "ct"},
		URI: srv.URL + "/continue",
	}

	err := c.CancelGrant(context.Background(), continueInfo)
	assert.Error(t, err)
}
