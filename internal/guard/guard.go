package guard

import (
	"github.com/Purab2001/CourseHub-client/internal/session"
)

// State is the gate decision for a protected view.
type State int

const (
	// Pending blocks the protected subtree while the session is still
	// resolving. It never admits or denies.
	Pending State = iota
	// Denied redirects to the sign-in entry point, carrying the
	// originally requested location.
	Denied
	// Admitted mounts the protected subtree.
	Admitted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Denied:
		return "denied"
	case Admitted:
		return "admitted"
	default:
		return "unknown"
	}
}

// Evaluate derives the gate decision from a session snapshot. The
// guard holds no state of its own; transitions are driven solely by
// session updates. Role plays no part here; role restriction is a
// menu concern, not an access-denial state.
func Evaluate(s session.Session) State {
	if s.Loading {
		return Pending
	}
	if !s.SignedIn() {
		return Denied
	}
	return Admitted
}
