package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/identity"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
)

// toolkitStub fakes the identity-toolkit and secure-token endpoints.
type toolkitStub struct {
	srv *httptest.Server

	signInError   string // toolkit error message, e.g. "EMAIL_NOT_FOUND"
	refreshCalls  int
	lastPostBody  url.Values
	lastAction    string
	displayName   string
	tokenSequence int
}

func newToolkitStub(t *testing.T) *toolkitStub {
	s := &toolkitStub{displayName: "Ada Lovelace"}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls++
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("refresh_token") != "refresh-abc" {
			s.writeError(w, "INVALID_REFRESH_TOKEN")
			return
		}
		s.tokenSequence++
		json.NewEncoder(w).Encode(map[string]any{
			"id_token":      fmt.Sprintf("id-token-%d", s.tokenSequence),
			"refresh_token": "refresh-abc",
			"expires_in":    "3600",
			"user_id":       "uid-1",
		})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.lastAction = r.URL.Path

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/accounts:signUp", "/accounts:signInWithPassword":
			if s.signInError != "" {
				s.writeError(w, s.signInError)
				return
			}
			s.writeAuth(w)
		case "/accounts:signInWithIdp":
			post, _ := body["postBody"].(string)
			s.lastPostBody, _ = url.ParseQuery(post)
			s.writeAuth(w)
		case "/accounts:lookup":
			json.NewEncoder(w).Encode(map[string]any{
				"users": []map[string]any{{
					"localId":     "uid-1",
					"email":       "ada@example.com",
					"displayName": s.displayName,
				}},
			})
		case "/accounts:update", "/accounts:delete":
			json.NewEncoder(w).Encode(map[string]any{})
		default:
			t.Fatalf("unexpected toolkit action %s", r.URL.Path)
		}
	})

	s.srv = httptest.NewServer(mux)
	t.Cleanup(s.srv.Close)
	return s
}

func (s *toolkitStub) writeAuth(w http.ResponseWriter) {
	s.tokenSequence++
	json.NewEncoder(w).Encode(map[string]any{
		"localId":      "uid-1",
		"email":        "ada@example.com",
		"displayName":  s.displayName,
		"idToken":      fmt.Sprintf("id-token-%d", s.tokenSequence),
		"refreshToken": "refresh-abc",
		"expiresIn":    "3600",
	})
}

func (s *toolkitStub) writeError(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": 400, "message": message},
	})
}

func newClient(t *testing.T, stub *toolkitStub, store provider.CredentialStore) *Client {
	c, err := New("test-key", store, zap.NewNop(),
		WithEndpoints(stub.srv.URL, stub.srv.URL),
	)
	require.NoError(t, err)
	return c
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("", nil, zap.NewNop())
	assert.Error(t, err)
}

func TestSignInWithPassword(t *testing.T) {
	stub := newToolkitStub(t)
	c := newClient(t, stub, nil)

	var events []*identity.Identity
	dispose := c.OnStateChange(func(i *identity.Identity) { events = append(events, i) })
	defer dispose()

	ident, err := c.SignInWithPassword(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "uid-1", ident.UID)
	assert.Equal(t, "ada@example.com", ident.Email)
	assert.Equal(t, "Ada Lovelace", ident.DisplayName)

	require.Len(t, events, 1)
	assert.Equal(t, "uid-1", events[0].UID)

	// A fresh token is served from cache without hitting the refresh
	// endpoint.
	token, err := c.Token(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "id-token-1", token)
	assert.Zero(t, stub.refreshCalls)
}

func TestSignInErrorMapping(t *testing.T) {
	tests := []struct {
		message string
		want    identity.Code
	}{
		{"EMAIL_NOT_FOUND", identity.CodeUserNotFound},
		{"INVALID_PASSWORD", identity.CodeWrongPassword},
		{"INVALID_LOGIN_CREDENTIALS", identity.CodeInvalidCredential},
		{"USER_DISABLED", identity.CodeUserDisabled},
		{"TOO_MANY_ATTEMPTS_TRY_LATER", identity.CodeTooManyRequests},
		{"EMAIL_EXISTS", identity.CodeEmailInUse},
		// Detail suffixes are stripped before the lookup.
		{"WEAK_PASSWORD : Password should be at least 6 characters", identity.CodeWeakPassword},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			stub := newToolkitStub(t)
			stub.signInError = tt.message
			c := newClient(t, stub, nil)

			_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "pw")
			assert.Equal(t, tt.want, identity.CodeOf(err))
		})
	}
}

func TestUnmappedToolkitErrorHasNoCode(t *testing.T) {
	stub := newToolkitStub(t)
	stub.signInError = "SOMETHING_ODD"
	c := newClient(t, stub, nil)

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "pw")
	require.Error(t, err)
	assert.Equal(t, identity.Code(""), identity.CodeOf(err))
}

func TestTokenForceRefresh(t *testing.T) {
	stub := newToolkitStub(t)
	c := newClient(t, stub, nil)

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	token, err := c.Token(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, "id-token-2", token)
	assert.Equal(t, 1, stub.refreshCalls)

	// The refreshed token is installed; the next plain read reuses it.
	token, err = c.Token(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, "id-token-2", token)
	assert.Equal(t, 1, stub.refreshCalls)
}

func TestTokenWithoutSignIn(t *testing.T) {
	stub := newToolkitStub(t)
	c := newClient(t, stub, nil)

	_, err := c.Token(context.Background(), false)
	assert.Error(t, err)
}

func TestSignInWithIdpPostBody(t *testing.T) {
	stub := newToolkitStub(t)
	c := newClient(t, stub, nil)

	_, err := c.SignInWithIdp(context.Background(), provider.IdpCredential{
		ProviderID: "google.com",
		IDToken:    "google-id-token",
	})
	require.NoError(t, err)
	assert.Equal(t, "google.com", stub.lastPostBody.Get("providerId"))
	assert.Equal(t, "google-id-token", stub.lastPostBody.Get("id_token"))
	assert.Empty(t, stub.lastPostBody.Get("access_token"))

	_, err = c.SignInWithIdp(context.Background(), provider.IdpCredential{
		ProviderID:  "github.com",
		AccessToken: "gh-access-token",
	})
	require.NoError(t, err)
	assert.Equal(t, "github.com", stub.lastPostBody.Get("providerId"))
	assert.Equal(t, "gh-access-token", stub.lastPostBody.Get("access_token"))
}

func TestStartRestoresSession(t *testing.T) {
	stub := newToolkitStub(t)
	store := provider.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), provider.Credential{
		UID:          "uid-1",
		Email:        "ada@example.com",
		RefreshToken: "refresh-abc",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	c := newClient(t, stub, store)

	var restored *identity.Identity
	dispose := c.OnStateChange(func(i *identity.Identity) { restored = i })
	defer dispose()

	require.NoError(t, c.Start(context.Background()))
	require.NotNil(t, restored)
	assert.Equal(t, "uid-1", restored.UID)
	assert.Equal(t, "ada@example.com", restored.Email)
	assert.Equal(t, "Ada Lovelace", restored.DisplayName)
	assert.Equal(t, 1, stub.refreshCalls)
}

func TestStartWithStaleCredentialResolvesSignedOut(t *testing.T) {
	stub := newToolkitStub(t)
	store := provider.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), provider.Credential{
		UID:          "uid-1",
		Email:        "ada@example.com",
		RefreshToken: "revoked",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	c := newClient(t, stub, store)

	emitted := false
	var restored *identity.Identity
	dispose := c.OnStateChange(func(i *identity.Identity) {
		emitted = true
		restored = i
	})
	defer dispose()

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, emitted)
	assert.Nil(t, restored)

	// The stale credential is evicted.
	cred, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestSignOut(t *testing.T) {
	stub := newToolkitStub(t)
	store := provider.NewMemoryStore()
	c := newClient(t, stub, store)

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	var events []*identity.Identity
	dispose := c.OnStateChange(func(i *identity.Identity) { events = append(events, i) })
	defer dispose()

	require.NoError(t, c.SignOut(context.Background()))
	require.Len(t, events, 1)
	assert.Nil(t, events[0])

	cred, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cred)

	// Idempotent: a second sign-out emits nothing.
	require.NoError(t, c.SignOut(context.Background()))
	assert.Len(t, events, 1)
}

func TestUpdateProfileSyncsLocalIdentity(t *testing.T) {
	stub := newToolkitStub(t)
	c := newClient(t, stub, nil)

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	name := "Countess of Lovelace"
	require.NoError(t, c.UpdateProfile(context.Background(), identity.ProfileUpdate{
		DisplayName: &name,
	}))
	assert.Equal(t, "/accounts:update", stub.lastAction)

	token, err := c.Token(context.Background(), false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestDeleteCurrentUserSignsOut(t *testing.T) {
	stub := newToolkitStub(t)
	c := newClient(t, stub, nil)

	_, err := c.SignInWithPassword(context.Background(), "ada@example.com", "pw")
	require.NoError(t, err)

	var events []*identity.Identity
	dispose := c.OnStateChange(func(i *identity.Identity) { events = append(events, i) })
	defer dispose()

	require.NoError(t, c.DeleteCurrentUser(context.Background()))
	assert.Equal(t, "/accounts:delete", stub.lastAction)
	require.Len(t, events, 1)
	assert.Nil(t, events[0])

	_, err = c.Token(context.Background(), false)
	assert.Error(t, err)
}
