package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/apperror"
	"github.com/Purab2001/CourseHub-client/internal/identity"
	"github.com/Purab2001/CourseHub-client/internal/identity/oauth"
	"github.com/Purab2001/CourseHub-client/internal/session"
)

const (
	signInPath       = "/login"
	defaultAfterAuth = "/dashboard"
)

type Handler struct {
	sessions *session.Manager
	oauth    *oauth.Registry
	log      *zap.Logger
}

func New(
	sessions *session.Manager,
	registry *oauth.Registry,
	log *zap.Logger,
) *Handler {
	return &Handler{
		sessions: sessions,
		oauth:    registry,
		log:      log,
	}
}

// RegisterRoutes mounts the public auth surface.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/auth/login", h.Login)
	r.POST("/auth/register", h.Register)
	r.POST("/auth/logout", h.Logout)
	r.PATCH("/auth/profile", h.UpdateProfile)
	r.DELETE("/auth/account", h.DeleteAccount)

	r.GET("/oauth/login/:provider", h.oauthLogin)
	r.GET("/oauth/callback/:provider", h.oauthCallback)

	r.GET("/session", h.Session)
	r.GET(signInPath, h.SignInEntry)
	r.GET("/forbidden", h.Forbidden)
}

// Session exposes the current session snapshot: identity-or-none,
// merged profile fields, the loading flag, and the effective role.
func (h *Handler) Session(c *gin.Context) {
	snap := h.sessions.Current()

	body := gin.H{
		"loading": snap.Loading,
		"role":    snap.EffectiveRole(),
	}
	if snap.Identity != nil {
		body["identity"] = gin.H{
			"uid":         snap.Identity.UID,
			"email":       snap.Identity.Email,
			"displayName": snap.Identity.DisplayName,
			"photoURL":    snap.Identity.PhotoURL,
		}
	}
	if snap.Profile != nil {
		body["profile"] = snap.Profile
	}

	c.JSON(http.StatusOK, body)
}

// SignInEntry is the sign-in entry point the guard redirects to. A
// signed-in user is bounced straight back to where they came from.
func (h *Handler) SignInEntry(c *gin.Context) {
	from := safeReturnPath(c.Query("from"))

	if h.sessions.Current().SignedIn() {
		c.Redirect(http.StatusSeeOther, from)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"signIn": gin.H{
			"password":  "/auth/login",
			"register":  "/auth/register",
			"federated": h.oauth.Names(),
		},
		"from": from,
	})
}

func (h *Handler) Forbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{
		"error": "You do not have access to this resource.",
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.SignOut(c.Request.Context()); err != nil {
		h.log.Warn("sign-out failed", zap.Error(err))
	}
	// Idempotent response
	c.Status(http.StatusNoContent)
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	PhotoURL    *string `json:"photoURL"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.sessions.UpdateDisplayProfile(c.Request.Context(), identity.ProfileUpdate{
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": identity.UserMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	if err := h.sessions.DeleteAccount(c.Request.Context()); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": identity.UserMessage(err)})
		return
	}
	c.Status(http.StatusNoContent)
}

// writeAuthError maps a failed sign-in/registration to a response.
// The pending state always resolves: by the time we respond, the
// operation latch has been released and no control stays disabled.
func (h *Handler) writeAuthError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	switch {
	case errors.Is(err, session.ErrOperationInFlight):
		c.JSON(http.StatusConflict, gin.H{"error": "Already in progress. Please wait."})
	case errors.As(err, &appErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": appErr.Message,
			"field": appErr.Field,
		})
	case identity.CodeOf(err) == identity.CodeEmailInUse:
		c.JSON(http.StatusConflict, gin.H{"error": identity.UserMessage(err)})
	default:
		c.JSON(http.StatusUnauthorized, gin.H{"error": identity.UserMessage(err)})
	}
}

// safeReturnPath keeps the post-auth redirect inside the app.
func safeReturnPath(from string) string {
	if from == "" {
		return defaultAfterAuth
	}
	u, err := url.Parse(from)
	if err != nil || u.IsAbs() || u.Host != "" || from[0] != '/' {
		return defaultAfterAuth
	}
	return from
}
