package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
	"github.com/Purab2001/CourseHub-client/internal/logger"
)

const (
	name  = "google"
	idpID = "google.com"
)

// Exchanger implements federated sign-in against Google using OIDC
// discovery. It returns the verified id_token for the identity
// provider's federated sign-in call; no session decisions are made
// here.
type Exchanger struct {
	oauthConfig *oauth2.Config
	verifier    *oidc.IDTokenVerifier
}

func New(
	ctx context.Context,
	clientID string,
	clientSecret string,
	redirectURL string,
) (*Exchanger, error) {

	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("google oauth config missing required fields")
	}

	oidcProvider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("failed to init google oidc provider: %w", err)
	}

	verifier := oidcProvider.Verifier(&oidc.Config{
		ClientID: clientID,
	})

	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     oidcProvider.Endpoint(),
		Scopes: []string{
			oidc.ScopeOpenID,
			"profile",
			"email",
		},
	}

	return &Exchanger{
		oauthConfig: oauthCfg,
		verifier:    verifier,
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
		oauth2.AccessTypeOnline,
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
		return nil, fmt.Errorf("google token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("google did not return id_token")
	}

	idToken, err := e.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("google id_token verification failed: %w", err)
	}

	var claims struct {
		Subject string `json:"sub"`
		Email   string `json:"email"`
	}

	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("google id_token claims parse failed: %w", err)
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, errors.New("google id_token missing required claims")
	}

	logger.L().Info("google oidc verified",
		zap.String("issuer", idToken.Issuer),
		zap.Strings("audience", idToken.Audience),
		zap.Int64("expiry_unix", idToken.Expiry.Unix()),
	)

	return &provider.IdpCredential{
		ProviderID:  idpID,
		IDToken:     rawIDToken,
		AccessToken: token.AccessToken,
	}, nil
}
