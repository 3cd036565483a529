package provider

import (
	"context"
	"time"
)

// Credential is the provider credential cached across gateway
// restarts so the startup signed-in check can restore the previous
// session. It intentionally stores the refresh credential only,
// never a live identity token.
type Credential struct {
	UID          string    // provider user identifier
	Email        string    // email at last sign-in
	RefreshToken string    // opaque refresh credential
	ExpiresAt    time.Time // cache expiry, not token expiry
}

// CredentialStore defines how the cached credential is persisted.
// The gateway holds a single session, so the store keeps at most one
// record. Implementations (e.g., Redis) must remain opaque.
type CredentialStore interface {
	Save(ctx context.Context, cred Credential) error
	// Load returns the cached credential, or nil when none is stored.
	Load(ctx context.Context) (*Credential, error)
	Clear(ctx context.Context) error
}
