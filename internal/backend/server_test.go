package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/identity/provider/local"
	"github.com/Purab2001/CourseHub-client/internal/profile"
)

// fakeStore applies the same role-preserving upsert contract as the
// Postgres store, in memory.
type fakeStore struct {
	rows map[string]*profile.Profile
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*profile.Profile)}
}

func (f *fakeStore) Upsert(_ context.Context, p profile.Profile) (*profile.Profile, error) {
	key := strings.ToLower(p.Email)

	if existing, ok := f.rows[key]; ok {
		if p.Name != "" {
			existing.Name = p.Name
		}
		if p.Photo != "" {
			existing.Photo = p.Photo
		}
		if p.Status != "" {
			existing.Status = p.Status
		}
		out := *existing
		return &out, nil
	}

	stored := &profile.Profile{
		Email:  p.Email,
		Name:   p.Name,
		Role:   normalizeRole(p.Role),
		Photo:  p.Photo,
		Status: p.Status,
	}
	if stored.Status == "" {
		stored.Status = profile.StatusActive
	}
	f.rows[key] = stored
	out := *stored
	return &out, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*profile.Profile, error) {
	stored, ok := f.rows[strings.ToLower(email)]
	if !ok {
		return nil, ErrProfileNotFound
	}
	out := *stored
	return &out, nil
}

const testSecret = "test-secret"

func newTestServer(t *testing.T) (*Server, *fakeStore, string) {
	gin.SetMode(gin.TestMode)

	store := newFakeStore()
	srv := NewServer(store, local.NewVerifier(testSecret), zap.NewNop())

	// Mint a token for ada@example.com through the local provider.
	p := local.New(testSecret, time.Hour, nil, zap.NewNop())
	_, err := p.CreateUser(context.Background(), "ada@example.com", "Secur3!pw")
	require.NoError(t, err)
	token, err := p.Token(context.Background(), false)
	require.NoError(t, err)

	return srv, store, token
}

func doJSON(srv *Server, token, method, path string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestAuthEndpointsRequireToken(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(srv, "", http.MethodGet, "/api/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(srv, "garbage", http.MethodGet, "/api/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(srv, "", http.MethodPost, "/api/auth/register-login", map[string]string{
		"email": "ada@example.com",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterLoginInsertsProfile(t *testing.T) {
	srv, store, token := newTestServer(t)

	w := doJSON(srv, token, http.MethodPost, "/api/auth/register-login", map[string]any{
		"name":   "Ada Lovelace",
		"email":  "ada@example.com",
		"role":   "instructor",
		"status": "active",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := store.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "instructor", stored.Role)
	assert.Equal(t, "Ada Lovelace", stored.Name)
}

func TestRegisterLoginKeepsExistingRole(t *testing.T) {
	srv, store, token := newTestServer(t)

	w := doJSON(srv, token, http.MethodPost, "/api/auth/register-login", map[string]any{
		"name":  "Ada",
		"email": "ada@example.com",
		"role":  "instructor",
	})
	require.Equal(t, http.StatusOK, w.Code)

	// A later sign-in sends the default hint; the stored role stays.
	w = doJSON(srv, token, http.MethodPost, "/api/auth/register-login", map[string]any{
		"name":  "Ada",
		"email": "ada@example.com",
		"role":  "student",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := store.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "instructor", stored.Role)
}

func TestRegisterLoginNormalizesRoleHint(t *testing.T) {
	srv, store, token := newTestServer(t)

	w := doJSON(srv, token, http.MethodPost, "/api/auth/register-login", map[string]any{
		"name":  "Ada",
		"email": "ada@example.com",
		"role":  "admin",
	})
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := store.GetByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, profile.DefaultRole, stored.Role)
}

func TestRegisterLoginRejectsForeignEmail(t *testing.T) {
	srv, _, token := newTestServer(t)

	w := doJSON(srv, token, http.MethodPost, "/api/auth/register-login", map[string]any{
		"name":  "Mallory",
		"email": "mallory@example.com",
		"role":  "student",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetProfile(t *testing.T) {
	srv, store, token := newTestServer(t)

	w := doJSON(srv, token, http.MethodGet, "/api/auth/profile", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, err := store.Upsert(context.Background(), profile.Profile{
		Email: "ada@example.com",
		Name:  "Ada",
		Role:  "student",
	})
	require.NoError(t, err)

	w = doJSON(srv, token, http.MethodGet, "/api/auth/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		User profile.Profile `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ada@example.com", body.User.Email)
	assert.Equal(t, "student", body.User.Role)
}

func TestUploadAndServeImage(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "avatar.png")
	require.NoError(t, err)
	part.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload/imgbb", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.True(t, body.Success)

	// Serve the stored bytes back by path.
	path := body.URL[strings.Index(body.URL, "/i/"):]
	get := httptest.NewRequest(http.MethodGet, path, nil)
	got := httptest.NewRecorder()
	srv.Router().ServeHTTP(got, get)

	require.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, "png-bytes", got.Body.String())
}

func TestUploadImageRequiresFile(t *testing.T) {
	srv, _, _ := newTestServer(t)

	w := doJSON(srv, "", http.MethodPost, "/api/upload/imgbb", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
}
