package provider

import (
	"context"

	"github.com/Purab2001/CourseHub-client/internal/identity"
)

// StateListener observes identity state changes. It receives the
// signed-in identity, or nil after sign-out. Listeners are invoked
// in event order, one at a time.
type StateListener func(ident *identity.Identity)

// IdpCredential is the artifact of a completed federated OAuth
// exchange, forwarded to the identity provider to finish sign-in.
type IdpCredential struct {
	ProviderID  string // e.g. "google.com", "github.com"
	IDToken     string // OIDC id_token, when the provider issues one
	AccessToken string // OAuth access token, for non-OIDC providers
}

// Provider defines the contract of the external identity provider.
// Implementations own credentials and the current signed-in user;
// they make no role or profile decisions.
type Provider interface {
	// Start performs the initial signed-in check (restoring any cached
	// credential) and emits the first state-change event. Call after
	// the first listener is registered.
	Start(ctx context.Context) error

	CreateUser(ctx context.Context, email, password string) (*identity.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*identity.Identity, error)
	SignInWithIdp(ctx context.Context, cred IdpCredential) (*identity.Identity, error)
	SignOut(ctx context.Context) error

	// Token returns a current identity token for the signed-in user,
	// refreshing it first when forceRefresh is set or the cached one
	// expired. Returns an error when nobody is signed in.
	Token(ctx context.Context, forceRefresh bool) (string, error)

	UpdateProfile(ctx context.Context, update identity.ProfileUpdate) error
	DeleteCurrentUser(ctx context.Context) error

	// OnStateChange registers a standing listener on the sign-in state
	// stream. The returned function releases the registration and must
	// be called exactly once on teardown.
	OnStateChange(listener StateListener) (unsubscribe func())
}
