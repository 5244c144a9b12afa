package grant

import (
	"testing"

	"github.com/opnet-go/op-core/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestClassifyApproved(t *testing.T) {
	resp := &model.GrantResponse{AccessToken: &model.AccessTokenResponse{Value: "t"}}
	assert.Equal(t, StateApproved, classify(resp).State)
}

func TestClassifyInteractionRequired(t *testing.T) {
	resp := &model.GrantResponse{
		Continue: &model.ContinueInfo{URI: "https://a/c"},
		Interact: &model.InteractResponse{Redirect: "https://a/r"},
	}
	assert.Equal(t, StateInteractionRequired, classify(resp).State)
}

func TestClassifyPending(t *testing.T) {
	resp := &model.GrantResponse{Continue: &model.ContinueInfo{URI: "https://a/c"}}
	assert.Equal(t, StatePending, classify(resp).State)
}

func TestClassifyFailedWhenNoRecognizedShape(t *testing.T) {
	resp := &model.GrantResponse{}
	assert.Equal(t, StateFailed, classify(resp).State)
}
