package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/identity"
	"github.com/Purab2001/CourseHub-client/internal/identity/oauth"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
	"github.com/Purab2001/CourseHub-client/internal/profile"
)

// ErrOperationInFlight rejects a second submission of an operation
// that has been initiated but not yet resolved.
var ErrOperationInFlight = errors.New("operation already in progress")

const syncTimeout = 15 * time.Second

// Manager is the single source of truth for who is signed in, with
// what profile, and whether that determination is still pending. It
// is the only component that mutates the Session; everything else
// reads snapshots.
type Manager struct {
	provider provider.Provider
	profiles *profile.Client
	oauth    *oauth.Registry
	log      *zap.Logger

	mu       sync.Mutex
	session  Session
	epoch    uint64
	inFlight map[string]bool

	listenerMu sync.Mutex
	listeners  map[string]func(Session)
}

func NewManager(
	p provider.Provider,
	profiles *profile.Client,
	registry *oauth.Registry,
	log *zap.Logger,
) *Manager {
	return &Manager{
		provider:  p,
		profiles:  profiles,
		oauth:     registry,
		log:       log,
		session:   Session{Loading: true},
		inFlight:  make(map[string]bool),
		listeners: make(map[string]func(Session)),
	}
}

// Start registers the provider state-change listener and performs
// the initial signed-in check. The returned release function
// unsubscribes the listener; it must be called exactly once during
// teardown and is safe against double invocation.
func (m *Manager) Start(ctx context.Context) (release func(), err error) {
	unsubscribe := m.provider.OnStateChange(m.handleStateChange)

	var once sync.Once
	release = func() {
		once.Do(unsubscribe)
	}

	if err := m.provider.Start(ctx); err != nil {
		release()
		return nil, err
	}
	return release, nil
}

// Current returns a snapshot of the session.
func (m *Manager) Current() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Subscribe registers fn to observe session snapshots and returns
// its disposer.
func (m *Manager) Subscribe(fn func(Session)) func() {
	id := uuid.NewString()

	m.listenerMu.Lock()
	m.listeners[id] = fn
	m.listenerMu.Unlock()

	return func() {
		m.listenerMu.Lock()
		delete(m.listeners, id)
		m.listenerMu.Unlock()
	}
}

// handleStateChange is the provider's state-change listener: the
// only entry point for identity transitions.
func (m *Manager) handleStateChange(ident *identity.Identity) {
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch

	if ident == nil {
		m.session = Session{Loading: false}
		snap := m.session
		m.mu.Unlock()
		m.emit(snap)
		return
	}

	m.session = Session{Identity: ident, Loading: true}
	snap := m.session
	m.mu.Unlock()
	m.emit(snap)

	go m.syncProfile(epoch, ident)
}

// syncProfile fetches the authoritative profile for a signed-in
// event. Its result only applies while the event is still current;
// a superseding state change discards it.
func (m *Manager) syncProfile(epoch uint64, ident *identity.Identity) {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	var (
		fetched *profile.Profile
		err     error
	)
	token, err := m.provider.Token(ctx, true)
	if err == nil {
		fetched, err = m.profiles.Fetch(ctx, token)
	}

	m.mu.Lock()
	if m.epoch != epoch {
		// A newer state change superseded this sync; discarding here
		// is the cancellation model.
		m.mu.Unlock()
		return
	}

	if err != nil {
		// Sign-in itself succeeded, so the session stands on the raw
		// provider identity; role resolution falls back downstream.
		m.log.Warn("profile sync failed, using provider identity",
			zap.String("email", ident.Email),
			zap.Error(err),
		)
		m.session = Session{Identity: ident, Loading: false}
	} else {
		merged := *ident
		if fetched.Name != "" {
			merged.DisplayName = fetched.Name
		}
		if fetched.Photo != "" {
			merged.PhotoURL = fetched.Photo
		}
		m.session = Session{Identity: &merged, Profile: fetched, Loading: false}
	}
	snap := m.session
	m.mu.Unlock()
	m.emit(snap)
}

func (m *Manager) emit(snap Session) {
	m.listenerMu.Lock()
	defer m.listenerMu.Unlock()
	for _, fn := range m.listeners {
		fn(snap)
	}
}

// SignInWithPassword authenticates against the provider and fires
// the best-effort backend upsert. The upsert never fails the
// sign-in.
func (m *Manager) SignInWithPassword(ctx context.Context, email, password string) error {
	if err := m.begin("sign-in"); err != nil {
		return err
	}
	defer m.end("sign-in")

	ident, err := m.provider.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}

	m.bestEffortUpsert(ident, profile.DefaultRole)
	return nil
}

// SignInWithProvider completes a federated sign-in from the OAuth
// callback artifacts. Social sign-ins always send the default
// student role hint; the backend stays authoritative.
func (m *Manager) SignInWithProvider(
	ctx context.Context,
	providerName string,
	code string,
	codeVerifier string,
) error {

	if err := m.begin("sign-in"); err != nil {
		return err
	}
	defer m.end("sign-in")

	exchanger, err := m.oauth.Get(providerName)
	if err != nil {
		return err
	}

	cred, err := exchanger.ExchangeCode(ctx, code, codeVerifier)
	if err != nil {
		return err
	}

	ident, err := m.provider.SignInWithIdp(ctx, *cred)
	if err != nil {
		return err
	}

	m.bestEffortUpsert(ident, profile.DefaultRole)
	return nil
}

// RegisterInput carries the registration form.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Role            string // role hint; server may override

	// Optional profile photo, uploaded before account creation.
	// Upload failure is non-fatal and leaves the photo empty.
	Photo         io.Reader
	PhotoFilename string
}

// Register validates the form locally, creates the provider account,
// sets display fields, and fires the best-effort backend upsert.
// Validation failures return before any provider call.
func (m *Manager) Register(ctx context.Context, in RegisterInput) error {
	if err := ValidateRegistration(in); err != nil {
		return err
	}
	if in.Role == "" {
		in.Role = profile.DefaultRole
	}

	if err := m.begin("register"); err != nil {
		return err
	}
	defer m.end("register")

	photoURL := ""
	if in.Photo != nil {
		url, err := m.profiles.UploadImage(ctx, in.PhotoFilename, in.Photo)
		if err != nil {
			m.log.Warn("photo upload failed, continuing without photo",
				zap.Error(err),
			)
		} else {
			photoURL = url
		}
	}

	ident, err := m.provider.CreateUser(ctx, in.Email, in.Password)
	if err != nil {
		return err
	}

	update := identity.ProfileUpdate{DisplayName: &in.Name}
	if photoURL != "" {
		update.PhotoURL = &photoURL
	}
	if err := m.provider.UpdateProfile(ctx, update); err != nil {
		m.log.Warn("provider profile update failed", zap.Error(err))
	}

	upsert := *ident
	upsert.DisplayName = in.Name
	upsert.PhotoURL = photoURL
	m.bestEffortUpsert(&upsert, in.Role)
	return nil
}

// UpdateDisplayProfile changes display fields on the provider.
func (m *Manager) UpdateDisplayProfile(ctx context.Context, update identity.ProfileUpdate) error {
	return m.provider.UpdateProfile(ctx, update)
}

// SignOut clears the authenticated identity. Also invoked by the
// backend 401 policy.
func (m *Manager) SignOut(ctx context.Context) error {
	return m.provider.SignOut(ctx)
}

// DeleteAccount removes the account at the provider and signs out.
func (m *Manager) DeleteAccount(ctx context.Context) error {
	return m.provider.DeleteCurrentUser(ctx)
}

// FetchProfile re-reads the authoritative profile with a fresh
// token, for authenticated calls after the initial sync. Callers map
// profile.ErrUnauthorized to a forced sign-out.
func (m *Manager) FetchProfile(ctx context.Context) (*profile.Profile, error) {
	token, err := m.provider.Token(ctx, false)
	if err != nil {
		return nil, err
	}
	return m.profiles.Fetch(ctx, token)
}

// bestEffortUpsert syncs the profile with the backend after sign-in
// or registration. It runs decoupled from the primary operation: a
// failure is logged and never propagates to the caller, because the
// identity operation already succeeded.
func (m *Manager) bestEffortUpsert(ident *identity.Identity, roleHint string) {
	p := profile.Profile{
		Name:   ident.DisplayName,
		Email:  ident.Email,
		Role:   roleHint,
		Photo:  ident.PhotoURL,
		Status: profile.StatusActive,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		token, err := m.provider.Token(ctx, false)
		if err == nil {
			err = m.profiles.RegisterLogin(ctx, token, p)
		}
		if err != nil {
			m.log.Warn("profile upsert failed after sign-in",
				zap.String("email", p.Email),
				zap.Error(err),
			)
		}
	}()
}

func (m *Manager) begin(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight[op] {
		return ErrOperationInFlight
	}
	m.inFlight[op] = true
	return nil
}

func (m *Manager) end(op string) {
	m.mu.Lock()
	delete(m.inFlight, op)
	m.mu.Unlock()
}
