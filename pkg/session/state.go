package session

import "github.com/Ryan-Har/gymsync/pkg/models"

// State is whether the client holds a token.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	switch s {
	case Authenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// Reason says why a transition happened.
type Reason string

const (
	ReasonLogin    Reason = "login"
	ReasonRestored Reason = "restored"
	ReasonLogout   Reason = "logout"
	ReasonRejected Reason = "rejected"
)

// Transition is delivered to observers after every state change.
// Identity is the new identity when entering Authenticated and the
// identity being dropped when leaving it.
type Transition struct {
	From     State
	To       State
	Reason   Reason
	Identity models.Identity
}

// Observer is called synchronously after each transition, in subscription order.
type Observer func(Transition)
