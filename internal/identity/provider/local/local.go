package local

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Purab2001/CourseHub-client/internal/identity"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
	"github.com/Purab2001/CourseHub-client/internal/utils"
)

const issuer = "coursehub-local"

// account is a locally registered user. Password-less accounts come
// from federated sign-in.
type account struct {
	uid          string
	email        string
	passwordHash string
	displayName  string
	photoURL     string
	disabled     bool
}

// Provider is the in-process identity provider used in dev mode and
// tests. It implements the same contract as the hosted provider:
// bcrypt-verified passwords, signed identity tokens, a state-change
// stream, and credential-cache restore.
type Provider struct {
	secret   []byte
	lifetime time.Duration
	store    provider.CredentialStore
	log      *zap.Logger
	notifier *provider.Notifier

	mu            sync.Mutex
	accounts      map[string]*account // keyed by lowercased email
	refreshTokens map[string]string   // refresh token -> uid
	current       *account
}

func New(
	secret string,
	lifetime time.Duration,
	store provider.CredentialStore,
	log *zap.Logger,
) *Provider {

	if store == nil {
		store = provider.NewMemoryStore()
	}
	if lifetime <= 0 {
		lifetime = time.Hour
	}

	return &Provider{
		secret:        []byte(secret),
		lifetime:      lifetime,
		store:         store,
		log:           log,
		notifier:      provider.NewNotifier(),
		accounts:      make(map[string]*account),
		refreshTokens: make(map[string]string),
	}
}

func (p *Provider) OnStateChange(listener provider.StateListener) func() {
	return p.notifier.Subscribe(listener)
}

// Start restores a cached sign-in if the account still exists, then
// emits the initial state-change event.
func (p *Provider) Start(ctx context.Context) error {
	cred, err := p.store.Load(ctx)
	if err != nil {
		p.log.Warn("credential cache read failed", zap.Error(err))
	}

	if cred != nil {
		p.mu.Lock()
		acct, ok := p.accounts[strings.ToLower(cred.Email)]
		if ok && !acct.disabled && p.refreshTokens[cred.RefreshToken] == acct.uid {
			p.current = acct
		} else {
			acct = nil
		}
		p.mu.Unlock()

		if acct != nil {
			p.notifier.Emit(identityOf(acct))
			return nil
		}
		_ = p.store.Clear(ctx)
	}

	p.notifier.Emit(nil)
	return nil
}

func (p *Provider) CreateUser(
	ctx context.Context,
	email string,
	password string,
) (*identity.Identity, error) {

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	key := strings.ToLower(email)

	p.mu.Lock()
	if existing, ok := p.accounts[key]; ok && existing.passwordHash != "" {
		p.mu.Unlock()
		return nil, identity.NewError(
			identity.CodeEmailInUse,
			fmt.Errorf("account already exists for %s", email),
		)
	}

	acct, ok := p.accounts[key]
	if !ok {
		acct = &account{uid: uuid.NewString(), email: email}
		p.accounts[key] = acct
	}
	acct.passwordHash = string(hash)
	p.mu.Unlock()

	return p.signIn(ctx, acct)
}

func (p *Provider) SignInWithPassword(
	ctx context.Context,
	email string,
	password string,
) (*identity.Identity, error) {

	p.mu.Lock()
	acct, ok := p.accounts[strings.ToLower(email)]
	p.mu.Unlock()

	if !ok || acct.passwordHash == "" {
		return nil, identity.NewError(
			identity.CodeUserNotFound,
			errors.New("no account for email"),
		)
	}
	if acct.disabled {
		return nil, identity.NewError(
			identity.CodeUserDisabled,
			errors.New("account disabled"),
		)
	}
	if err := bcrypt.CompareHashAndPassword(
		[]byte(acct.passwordHash),
		[]byte(password),
	); err != nil {
		return nil, identity.NewError(identity.CodeWrongPassword, err)
	}

	return p.signIn(ctx, acct)
}

// SignInWithIdp simulates federated sign-in. The dev convention is
// that the exchange step asserts the user's email in the credential's
// AccessToken field; an account is created on first sign-in, matching
// the hosted provider's behavior.
func (p *Provider) SignInWithIdp(
	ctx context.Context,
	cred provider.IdpCredential,
) (*identity.Identity, error) {

	email := cred.AccessToken
	if email == "" || !strings.Contains(email, "@") {
		return nil, identity.NewError(
			identity.CodeInvalidCredential,
			errors.New("federated credential missing email assertion"),
		)
	}

	key := strings.ToLower(email)

	p.mu.Lock()
	acct, ok := p.accounts[key]
	if !ok {
		acct = &account{uid: uuid.NewString(), email: email}
		p.accounts[key] = acct
	}
	disabled := acct.disabled
	p.mu.Unlock()

	if disabled {
		return nil, identity.NewError(
			identity.CodeUserDisabled,
			errors.New("account disabled"),
		)
	}

	return p.signIn(ctx, acct)
}

func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	wasSignedIn := p.current != nil
	p.current = nil
	p.mu.Unlock()

	if err := p.store.Clear(ctx); err != nil {
		p.log.Warn("credential cache clear failed", zap.Error(err))
	}

	if wasSignedIn {
		p.notifier.Emit(nil)
	}
	return nil
}

func (p *Provider) Token(ctx context.Context, forceRefresh bool) (string, error) {
	p.mu.Lock()
	acct := p.current
	p.mu.Unlock()

	if acct == nil {
		return "", errors.New("no user is signed in")
	}

	// Tokens are minted locally, so force-refresh and plain reads are
	// the same operation.
	_ = forceRefresh
	return p.mint(acct)
}

func (p *Provider) UpdateProfile(
	ctx context.Context,
	update identity.ProfileUpdate,
) error {

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return errors.New("no user is signed in")
	}
	if update.DisplayName != nil {
		p.current.displayName = *update.DisplayName
	}
	if update.PhotoURL != nil {
		p.current.photoURL = *update.PhotoURL
	}
	return nil
}

func (p *Provider) DeleteCurrentUser(ctx context.Context) error {
	p.mu.Lock()
	acct := p.current
	if acct != nil {
		delete(p.accounts, strings.ToLower(acct.email))
	}
	p.mu.Unlock()

	if acct == nil {
		return errors.New("no user is signed in")
	}

	return p.SignOut(ctx)
}

// Disable marks an account disabled (tests exercise the disabled
// sign-in error path through this).
func (p *Provider) Disable(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if acct, ok := p.accounts[strings.ToLower(email)]; ok {
		acct.disabled = true
	}
}

func (p *Provider) signIn(ctx context.Context, acct *account) (*identity.Identity, error) {
	refresh := utils.RandomString(32)

	p.mu.Lock()
	p.current = acct
	p.refreshTokens[refresh] = acct.uid
	p.mu.Unlock()

	err := p.store.Save(ctx, provider.Credential{
		UID:          acct.uid,
		Email:        acct.email,
		RefreshToken: refresh,
		ExpiresAt:    time.Now().Add(30 * 24 * time.Hour),
	})
	if err != nil {
		p.log.Warn("credential cache write failed", zap.Error(err))
	}

	ident := identityOf(acct)
	p.notifier.Emit(ident)
	return ident, nil
}

func (p *Provider) mint(acct *account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":   issuer,
		"sub":   acct.uid,
		"email": acct.email,
		"iat":   now.Unix(),
		"exp":   now.Add(p.lifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

func identityOf(acct *account) *identity.Identity {
	return &identity.Identity{
		UID:         acct.uid,
		Email:       acct.email,
		DisplayName: acct.displayName,
		PhotoURL:    acct.photoURL,
	}
}
