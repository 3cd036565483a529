package github

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"

	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
)

const (
	name  = "github"
	idpID = "github.com"
)

// Exchanger implements federated sign-in against GitHub. GitHub is
// plain OAuth, not OIDC, so the access token itself is the credential
// forwarded to the identity provider.
type Exchanger struct {
	oauthConfig *oauth2.Config
}

func New(
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Exchanger, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("github oauth config missing required fields")
	}

	return &Exchanger{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     oauthgithub.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
	}, nil
}

// Name returns the exchanger identifier used by the registry.
func (e *Exchanger) Name() string {
	return name
}

// AuthCodeURL builds the OAuth authorization URL with PKCE parameters.
func (e *Exchanger) AuthCodeURL(state string, codeChallenge string) string {
	return e.oauthConfig.AuthCodeURL(
		state,
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
}

func (e *Exchanger) ExchangeCode(
	ctx context.Context,
	code string,
	codeVerifier string,
) (*provider.IdpCredential, error) {

	token, err := e.oauthConfig.Exchange(
		ctx,
		code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, fmt.Errorf("github token exchange failed: %w", err)
	}

	if token.AccessToken == "" {
		return nil, errors.New("github did not return access token")
	}

	return &provider.IdpCredential{
		ProviderID:  idpID,
		AccessToken: token.AccessToken,
	}, nil
}
