// Package grant implements the GNAP grant state machine: request/continue/
// cancel, and the APPROVED/INTERACTION_REQUIRED/PENDING classification of a
// server's response. Grounded on the teacher's pkg/vcclient.Client
// request/do/call shape (pkg/vcclient/client.go) and pkg/oauth2's
// validator-before-serialize pattern.
package grant

// State is one of the seven grant negotiation states from spec.md §4.4.
type State string

const (
	StateInit                State = "init"
	StateRequestSent         State = "request_sent"
	StateInteractionRequired State = "interaction_required"
	StatePending             State = "pending"
	StateApproved            State = "approved"
	StateCancelled           State = "cancelled"
	StateFailed              State = "failed"
)
