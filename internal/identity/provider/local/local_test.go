package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/identity"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
)

const testSecret = "test-secret"

func newProvider(store provider.CredentialStore) *Provider {
	return New(testSecret, time.Hour, store, zap.NewNop())
}

func TestCreateUserAndSignIn(t *testing.T) {
	p := newProvider(nil)
	ctx := context.Background()

	ident, err := p.CreateUser(ctx, "ada@example.com", "Secur3!pw")
	require.NoError(t, err)
	assert.NotEmpty(t, ident.UID)
	assert.Equal(t, "ada@example.com", ident.Email)

	require.NoError(t, p.SignOut(ctx))

	again, err := p.SignInWithPassword(ctx, "ada@example.com", "Secur3!pw")
	require.NoError(t, err)
	assert.Equal(t, ident.UID, again.UID)

	// Email lookup is case insensitive.
	_, err = p.SignInWithPassword(ctx, "ADA@example.com", "Secur3!pw")
	require.NoError(t, err)
}

func TestSignInErrors(t *testing.T) {
	p := newProvider(nil)
	ctx := context.Background()

	_, err := p.SignInWithPassword(ctx, "nobody@example.com", "pw")
	assert.Equal(t, identity.CodeUserNotFound, identity.CodeOf(err))

	_, err = p.CreateUser(ctx, "ada@example.com", "Secur3!pw")
	require.NoError(t, err)

	_, err = p.SignInWithPassword(ctx, "ada@example.com", "wrong")
	assert.Equal(t, identity.CodeWrongPassword, identity.CodeOf(err))

	p.Disable("ada@example.com")
	_, err = p.SignInWithPassword(ctx, "ada@example.com", "Secur3!pw")
	assert.Equal(t, identity.CodeUserDisabled, identity.CodeOf(err))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	p := newProvider(nil)
	ctx := context.Background()

	_, err := p.CreateUser(ctx, "ada@example.com", "Secur3!pw")
	require.NoError(t, err)

	_, err = p.CreateUser(ctx, "Ada@Example.com", "Other3!pw")
	assert.Equal(t, identity.CodeEmailInUse, identity.CodeOf(err))
}

func TestSignInWithIdpUpsertsAccount(t *testing.T) {
	p := newProvider(nil)
	ctx := context.Background()

	cred := provider.IdpCredential{ProviderID: "google.com", AccessToken: "fed@example.com"}

	ident, err := p.SignInWithIdp(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, "fed@example.com", ident.Email)

	// Second federated sign-in reuses the account.
	again, err := p.SignInWithIdp(ctx, cred)
	require.NoError(t, err)
	assert.Equal(t, ident.UID, again.UID)

	// A federated account can later set a password.
	_, err = p.CreateUser(ctx, "fed@example.com", "Secur3!pw")
	require.NoError(t, err)
	got, err := p.SignInWithPassword(ctx, "fed@example.com", "Secur3!pw")
	require.NoError(t, err)
	assert.Equal(t, ident.UID, got.UID)
}

func TestSignInWithIdpRequiresEmailAssertion(t *testing.T) {
	p := newProvider(nil)

	_, err := p.SignInWithIdp(context.Background(), provider.IdpCredential{
		ProviderID:  "google.com",
		AccessToken: "not-an-email",
	})
	assert.Equal(t, identity.CodeInvalidCredential, identity.CodeOf(err))
}

func TestStateChangeStream(t *testing.T) {
	p := newProvider(nil)
	ctx := context.Background()

	var events []*identity.Identity
	dispose := p.OnStateChange(func(ident *identity.Identity) {
		events = append(events, ident)
	})
	defer dispose()

	require.NoError(t, p.Start(ctx))
	_, err := p.CreateUser(ctx, "ada@example.com", "Secur3!pw")
	require.NoError(t, err)
	require.NoError(t, p.SignOut(ctx))
	// A second sign-out emits nothing.
	require.NoError(t, p.SignOut(ctx))

	require.Len(t, events, 3)
	assert.Nil(t, events[0])
	require.NotNil(t, events[1])
	assert.Equal(t, "ada@example.com", events[1].Email)
	assert.Nil(t, events[2])
}

func TestStartRestoresCachedSession(t *testing.T) {
	store := provider.NewMemoryStore()
	ctx := context.Background()

	p := newProvider(store)
	ident, err := p.CreateUser(ctx, "ada@example.com", "Secur3!pw")
	require.NoError(t, err)

	// The local account registry is in-process, so restore is only
	// meaningful within the same provider's lifetime: drop the current
	// user without clearing the cache, then Start again.
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	var restored *identity.Identity
	dispose := p.OnStateChange(func(i *identity.Identity) { restored = i })
	defer dispose()

	require.NoError(t, p.Start(ctx))
	require.NotNil(t, restored)
	assert.Equal(t, ident.UID, restored.UID)

	token, err := p.Token(ctx, false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestTokenVerifiesWithMatchingSecret(t *testing.T) {
	p := newProvider(nil)
	ctx := context.Background()

	ident, err := p.CreateUser(ctx, "ada@example.com", "Secur3!pw")
	require.NoError(t, err)

	token, err := p.Token(ctx, true)
	require.NoError(t, err)

	uid, email, err := NewVerifier(testSecret).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, ident.UID, uid)
	assert.Equal(t, "ada@example.com", email)

	_, _, err = NewVerifier("other-secret").Verify(token)
	assert.Error(t, err)
}

func TestTokenWithoutSignIn(t *testing.T) {
	p := newProvider(nil)

	_, err := p.Token(context.Background(), false)
	assert.Error(t, err)
}

func TestUpdateProfileAndDelete(t *testing.T) {
	p := newProvider(nil)
	ctx := context.Background()

	_, err := p.CreateUser(ctx, "ada@example.com", "Secur3!pw")
	require.NoError(t, err)

	name := "Ada Lovelace"
	photo := "https://img.example.com/ada.png"
	require.NoError(t, p.UpdateProfile(ctx, identity.ProfileUpdate{
		DisplayName: &name,
		PhotoURL:    &photo,
	}))

	require.NoError(t, p.SignOut(ctx))
	ident, err := p.SignInWithPassword(ctx, "ada@example.com", "Secur3!pw")
	require.NoError(t, err)
	assert.Equal(t, name, ident.DisplayName)
	assert.Equal(t, photo, ident.PhotoURL)

	require.NoError(t, p.DeleteCurrentUser(ctx))
	_, err = p.SignInWithPassword(ctx, "ada@example.com", "Secur3!pw")
	assert.Equal(t, identity.CodeUserNotFound, identity.CodeOf(err))
}
