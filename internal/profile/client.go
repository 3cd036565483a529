package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrUnauthorized maps a backend 401. Callers outside the initial
	// profile sync must treat it by signing the session out.
	ErrUnauthorized = errors.New("backend rejected token")

	// ErrForbidden maps a backend 403. Callers route to the forbidden
	// view; the operation is not retried.
	ErrForbidden = errors.New("backend denied access")
)

// Client talks to the CourseHub backend profile API with a bearer
// identity token. It performs no session decisions itself; it
// translates backend status codes to typed errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// WithHTTPClient swaps the underlying HTTP client (tests).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// RegisterLogin upserts the profile keyed by email. Used both for
// fresh registrations and for syncing after every sign-in, so it must
// stay idempotent server-side.
func (c *Client) RegisterLogin(ctx context.Context, token string, p Profile) error {
	body, err := json.Marshal(map[string]any{
		"name":   p.Name,
		"email":  p.Email,
		"role":   p.Role,
		"photo":  nullable(p.Photo),
		"status": p.Status,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/auth/register-login",
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("register-login request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.checkStatus(resp)
}

// Fetch returns the authoritative profile for the token's user.
func (c *Client) Fetch(ctx context.Context, token string) (*Profile, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/api/auth/profile",
		nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var payload struct {
		User Profile `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("profile response malformed: %w", err)
	}
	if payload.User.Email == "" {
		return nil, errors.New("profile response missing user")
	}

	return &payload.User, nil
}

// UploadImage posts the image to the backend's imgbb relay and
// returns the hosted URL. Registration treats a failure here as
// non-fatal and leaves the photo empty.
func (c *Client) UploadImage(
	ctx context.Context,
	filename string,
	r io.Reader,
) (string, error) {

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/api/upload/imgbb",
		&buf,
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image upload failed: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return "", err
	}

	var payload struct {
		Success bool   `json:"success"`
		URL     string `json:"url"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("upload response malformed: %w", err)
	}
	if !payload.Success || payload.URL == "" {
		return "", fmt.Errorf("image upload rejected: %s", payload.Message)
	}

	return payload.URL, nil
}

func (c *Client) checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf(
			"backend returned %d: %s",
			resp.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
