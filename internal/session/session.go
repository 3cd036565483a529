package session

import (
	"github.com/Purab2001/CourseHub-client/internal/identity"
	"github.com/Purab2001/CourseHub-client/internal/profile"
	"github.com/Purab2001/CourseHub-client/internal/role"
)

// Session is the process-wide authentication state: the current
// identity (or none), the merged backend profile, and whether that
// determination is still pending. Consumers read snapshots and must
// never mutate them.
type Session struct {
	Identity *identity.Identity
	Profile  *profile.Profile
	Loading  bool
}

// SignedIn reports whether an authenticated identity is present.
func (s Session) SignedIn() bool {
	return s.Identity != nil
}

// EffectiveRole derives the role used to gate menus and views.
func (s Session) EffectiveRole() role.Role {
	return role.Resolve(s.Profile, s.SignedIn())
}
