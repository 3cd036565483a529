package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/identity"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
)

const (
	defaultToolkitURL = "https://identitytoolkit.googleapis.com/v1"
	defaultTokenURL   = "https://securetoken.googleapis.com/v1"

	// How long a restored credential stays cached after last use.
	credentialTTL = 30 * 24 * time.Hour

	// Refresh the identity token this long before its actual expiry.
	tokenSlack = 30 * time.Second
)

// Client implements the identity provider contract over the Firebase
// identity-toolkit REST API. It holds the current signed-in user and
// emits state changes; profile and role decisions live elsewhere.
type Client struct {
	apiKey     string
	toolkitURL string
	tokenURL   string
	httpClient *http.Client
	store      provider.CredentialStore
	log        *zap.Logger
	notifier   *provider.Notifier

	mu      sync.Mutex
	current *account
}

// account is the provider-side view of the signed-in user plus its
// live token material.
type account struct {
	ident        identity.Identity
	idToken      string
	refreshToken string
	tokenExpiry  time.Time
}

type Option func(*Client)

// WithEndpoints overrides the identity-toolkit and secure-token base
// URLs (tests, emulator).
func WithEndpoints(toolkitURL, tokenURL string) Option {
	return func(c *Client) {
		c.toolkitURL = strings.TrimRight(toolkitURL, "/")
		c.tokenURL = strings.TrimRight(tokenURL, "/")
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// New creates a Firebase REST client. store persists the refresh
// credential across restarts; pass a MemoryStore to disable that.
func New(
	apiKey string,
	store provider.CredentialStore,
	log *zap.Logger,
	opts ...Option,
) (*Client, error) {

	if apiKey == "" {
		return nil, errors.New("firebase api key is required")
	}
	if store == nil {
		store = provider.NewMemoryStore()
	}

	c := &Client{
		apiKey:     apiKey,
		toolkitURL: defaultToolkitURL,
		tokenURL:   defaultTokenURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		store:      store,
		log:        log,
		notifier:   provider.NewNotifier(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// OnStateChange registers a standing listener on the sign-in state
// stream.
func (c *Client) OnStateChange(listener provider.StateListener) func() {
	return c.notifier.Subscribe(listener)
}

// Start restores the previous session from the credential store, if
// any, and emits the initial state-change event.
func (c *Client) Start(ctx context.Context) error {
	cred, err := c.store.Load(ctx)
	if err != nil {
		c.log.Warn("credential cache read failed", zap.Error(err))
	}

	if cred == nil {
		c.notifier.Emit(nil)
		return nil
	}

	acct, err := c.refreshWith(ctx, cred.RefreshToken)
	if err != nil {
		// Stale or revoked credential. Start signed out.
		c.log.Warn("session restore failed", zap.Error(err))
		_ = c.store.Clear(ctx)
		c.notifier.Emit(nil)
		return nil
	}

	if err := c.lookup(ctx, acct); err != nil {
		c.log.Warn("session restore lookup failed", zap.Error(err))
	}

	c.setCurrent(ctx, acct)
	return nil
}

func (c *Client) CreateUser(
	ctx context.Context,
	email string,
	password string,
) (*identity.Identity, error) {

	var resp authResponse
	err := c.postToolkit(ctx, "accounts:signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return c.signedIn(ctx, resp)
}

func (c *Client) SignInWithPassword(
	ctx context.Context,
	email string,
	password string,
) (*identity.Identity, error) {

	var resp authResponse
	err := c.postToolkit(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return c.signedIn(ctx, resp)
}

func (c *Client) SignInWithIdp(
	ctx context.Context,
	cred provider.IdpCredential,
) (*identity.Identity, error) {

	post := url.Values{}
	post.Set("providerId", cred.ProviderID)
	if cred.IDToken != "" {
		post.Set("id_token", cred.IDToken)
	} else {
		post.Set("access_token", cred.AccessToken)
	}

	var resp authResponse
	err := c.postToolkit(ctx, "accounts:signInWithIdp", map[string]any{
		"postBody":            post.Encode(),
		"requestUri":          "http://localhost",
		"returnSecureToken":   true,
		"returnIdpCredential": true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	return c.signedIn(ctx, resp)
}

// SignOut clears the current user and credential cache and emits the
// signed-out event. Idempotent.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	wasSignedIn := c.current != nil
	c.current = nil
	c.mu.Unlock()

	if err := c.store.Clear(ctx); err != nil {
		c.log.Warn("credential cache clear failed", zap.Error(err))
	}

	if wasSignedIn {
		c.notifier.Emit(nil)
	}
	return nil
}

// Token returns a current identity token, refreshing first when
// forced or expired.
func (c *Client) Token(ctx context.Context, forceRefresh bool) (string, error) {
	c.mu.Lock()
	acct := c.current
	c.mu.Unlock()

	if acct == nil {
		return "", errors.New("no user is signed in")
	}

	if !forceRefresh && time.Now().Add(tokenSlack).Before(acct.tokenExpiry) {
		return acct.idToken, nil
	}

	refreshed, err := c.refreshWith(ctx, acct.refreshToken)
	if err != nil {
		return "", err
	}
	refreshed.ident = acct.ident
	if refreshed.ident.UID == "" {
		refreshed.ident.UID = acct.ident.UID
	}

	c.mu.Lock()
	// Only install the refreshed token if this account is still the
	// signed-in one; a concurrent sign-out wins.
	if c.current == acct {
		c.current = refreshed
	}
	c.mu.Unlock()

	return refreshed.idToken, nil
}

func (c *Client) UpdateProfile(
	ctx context.Context,
	update identity.ProfileUpdate,
) error {

	token, err := c.Token(ctx, false)
	if err != nil {
		return err
	}

	body := map[string]any{
		"idToken":           token,
		"returnSecureToken": false,
	}
	var deletes []string
	if update.DisplayName != nil {
		if *update.DisplayName == "" {
			deletes = append(deletes, "DISPLAY_NAME")
		} else {
			body["displayName"] = *update.DisplayName
		}
	}
	if update.PhotoURL != nil {
		if *update.PhotoURL == "" {
			deletes = append(deletes, "PHOTO_URL")
		} else {
			body["photoUrl"] = *update.PhotoURL
		}
	}
	if len(deletes) > 0 {
		body["deleteAttribute"] = deletes
	}

	var resp authResponse
	if err := c.postToolkit(ctx, "accounts:update", body, &resp); err != nil {
		return err
	}

	c.mu.Lock()
	if c.current != nil {
		if update.DisplayName != nil {
			c.current.ident.DisplayName = *update.DisplayName
		}
		if update.PhotoURL != nil {
			c.current.ident.PhotoURL = *update.PhotoURL
		}
	}
	c.mu.Unlock()

	return nil
}

// DeleteCurrentUser deletes the account at the provider and emits
// the signed-out event.
func (c *Client) DeleteCurrentUser(ctx context.Context) error {
	token, err := c.Token(ctx, false)
	if err != nil {
		return err
	}

	var resp struct{}
	if err := c.postToolkit(ctx, "accounts:delete", map[string]any{
		"idToken": token,
	}, &resp); err != nil {
		return err
	}

	return c.SignOut(ctx)
}

// signedIn installs the authenticated account, persists its refresh
// credential, and emits the state change.
func (c *Client) signedIn(
	ctx context.Context,
	resp authResponse,
) (*identity.Identity, error) {

	if resp.LocalID == "" || resp.IDToken == "" {
		return nil, errors.New("identity response missing uid or token")
	}

	acct := &account{
		ident: identity.Identity{
			UID:         resp.LocalID,
			Email:       resp.Email,
			DisplayName: resp.DisplayName,
			PhotoURL:    resp.PhotoURL,
		},
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
		tokenExpiry:  time.Now().Add(resp.expiresIn()),
	}

	c.setCurrent(ctx, acct)

	ident := acct.ident
	return &ident, nil
}

func (c *Client) setCurrent(ctx context.Context, acct *account) {
	c.mu.Lock()
	c.current = acct
	c.mu.Unlock()

	if acct.refreshToken != "" {
		err := c.store.Save(ctx, provider.Credential{
			UID:          acct.ident.UID,
			Email:        acct.ident.Email,
			RefreshToken: acct.refreshToken,
			ExpiresAt:    time.Now().Add(credentialTTL),
		})
		if err != nil {
			c.log.Warn("credential cache write failed", zap.Error(err))
		}
	}

	ident := acct.ident
	c.notifier.Emit(&ident)
}

// refreshWith exchanges a refresh token for fresh token material.
func (c *Client) refreshWith(
	ctx context.Context,
	refreshToken string,
) (*account, error) {

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	endpoint := fmt.Sprintf("%s/token?key=%s", c.tokenURL, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, toolkitError(raw)
	}

	var resp struct {
		IDToken      string `json:"id_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    string `json:"expires_in"`
		UserID       string `json:"user_id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("token refresh response malformed: %w", err)
	}

	expires, _ := strconv.Atoi(resp.ExpiresIn)
	if expires <= 0 {
		expires = 3600
	}

	return &account{
		ident:        identity.Identity{UID: resp.UserID},
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
		tokenExpiry:  time.Now().Add(time.Duration(expires) * time.Second),
	}, nil
}

// lookup fills the account's display fields from the provider.
func (c *Client) lookup(ctx context.Context, acct *account) error {
	var resp struct {
		Users []struct {
			LocalID     string `json:"localId"`
			Email       string `json:"email"`
			DisplayName string `json:"displayName"`
			PhotoURL    string `json:"photoUrl"`
		} `json:"users"`
	}

	err := c.postToolkit(ctx, "accounts:lookup", map[string]any{
		"idToken": acct.idToken,
	}, &resp)
	if err != nil {
		return err
	}
	if len(resp.Users) == 0 {
		return errors.New("account lookup returned no users")
	}

	u := resp.Users[0]
	acct.ident = identity.Identity{
		UID:         u.LocalID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
	return nil
}

// authResponse is the common shape of the identity-toolkit sign-in
// and sign-up responses.
type authResponse struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	PhotoURL     string `json:"photoUrl"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

func (r authResponse) expiresIn() time.Duration {
	secs, _ := strconv.Atoi(r.ExpiresIn)
	if secs <= 0 {
		secs = 3600
	}
	return time.Duration(secs) * time.Second
}

func (c *Client) postToolkit(
	ctx context.Context,
	action string,
	body map[string]any,
	out any,
) error {

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	endpoint := fmt.Sprintf(
		"%s/%s?key=%s",
		c.toolkitURL,
		action,
		url.QueryEscape(c.apiKey),
	)
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		endpoint,
		bytes.NewReader(payload),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return toolkitError(raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identity provider response malformed: %w", err)
	}
	return nil
}

// codeByMessage translates identity-toolkit error strings to the
// provider codes the rest of the gateway understands.
var codeByMessage = map[string]identity.Code{
	"EMAIL_NOT_FOUND":             identity.CodeUserNotFound,
	"INVALID_PASSWORD":            identity.CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   identity.CodeInvalidCredential,
	"INVALID_EMAIL":               identity.CodeInvalidEmail,
	"USER_DISABLED":               identity.CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": identity.CodeTooManyRequests,
	"EMAIL_EXISTS":                identity.CodeEmailInUse,
	"WEAK_PASSWORD":               identity.CodeWeakPassword,
}

func toolkitError(raw []byte) error {
	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Error.Message == "" {
		return fmt.Errorf("identity provider error: %s", string(raw))
	}

	// Messages may carry a detail suffix, e.g. "WEAK_PASSWORD : ...".
	msg := payload.Error.Message
	if i := strings.IndexAny(msg, " :"); i > 0 {
		msg = msg[:i]
	}

	base := fmt.Errorf("identity provider rejected request: %s", payload.Error.Message)
	if code, ok := codeByMessage[msg]; ok {
		return identity.NewError(code, base)
	}
	return base
}
