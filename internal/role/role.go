package role

import "github.com/Purab2001/CourseHub-client/internal/profile"

// Role is the effective role used to gate menus and views.
type Role string

const (
	Student    Role = "student"
	Instructor Role = "instructor"
	Admin      Role = "admin"
	Guest      Role = "guest"
)

// Resolve derives the effective role from the synced profile. It is
// pure and total: unknown or missing role strings fall back to
// student for a signed-in identity, and guest when nobody is signed
// in. A nil profile is valid (provider-only fallback session).
func Resolve(p *profile.Profile, signedIn bool) Role {
	if !signedIn {
		return Guest
	}
	if p == nil {
		return Student
	}
	switch Role(p.Role) {
	case Student, Instructor, Admin:
		return Role(p.Role)
	default:
		return Student
	}
}
