package oauth

import (
	"context"

	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
)

// Exchanger defines the contract every federated sign-in backend
// must implement. Implementations exchange an authorization code for
// a credential the identity provider accepts; they must not perform
// sign-in, profile sync, or session management themselves.
type Exchanger interface {
	// Name returns the exchanger identifier (e.g. "google", "github").
	Name() string

	// AuthCodeURL returns the OAuth authorization URL.
	// State and PKCE parameters are provided by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode exchanges the authorization code for provider
	// credentials, returned in the shape the identity provider's
	// federated sign-in call expects.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*provider.IdpCredential, error)
}
