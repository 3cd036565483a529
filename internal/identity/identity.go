package identity

// Identity represents the authenticated principal as known to the
// identity provider. It contains facts only, no decisions; role and
// status live in the backend profile, not here.
type Identity struct {
	UID         string // provider-scoped unique user identifier
	Email       string // email registered with the provider
	DisplayName string // optional display name
	PhotoURL    string // optional avatar URL
}

// ProfileUpdate carries the display fields a user may change on the
// provider. Nil fields are left untouched.
type ProfileUpdate struct {
	DisplayName *string
	PhotoURL    *string
}
