package profile

// Profile is the authoritative application-side record for a
// principal, owned by the CourseHub backend. Email is the join key
// against the provider identity.
type Profile struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Photo  string `json:"photo,omitempty"`
	Status string `json:"status"`
}

const (
	StatusActive = "active"

	// DefaultRole is the role hint sent for every social sign-in and
	// the fallback when the backend has no role on record. The server
	// remains authoritative and may override it.
	DefaultRole = "student"
)
