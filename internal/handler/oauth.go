package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handler) oauthLogin(c *gin.Context) {
	providerName := c.Param("provider")

	exchanger, err := h.oauth.Get(providerName)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	// Remember where to land after the round trip.
	setTransientCookie(c, fromCookieName, safeReturnPath(c.Query("from")), stateTTL)

	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := exchanger.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) oauthCallback(c *gin.Context) {
	providerName := c.Param("provider")

	if _, err := h.oauth.Get(providerName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown oauth provider",
		})
		return
	}

	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "invalid state",
		})
		return
	}

	from := safeReturnPath(transientCookie(c, fromCookieName))
	clearTransientCookie(c, fromCookieName)

	// The provider can bounce back with an error instead of a code,
	// commonly when the user cancels the consent screen.
	if errParam := c.Query("error"); errParam != "" {
		h.log.Warn("oauth callback returned error",
			zap.String("provider", providerName),
			zap.String("error", errParam),
			zap.String("desc", c.Query("error_description")),
		)
		c.Redirect(http.StatusFound, signInPath)
		return
	}

	code := c.Query("code")
	if code == "" {
		h.log.Error("oauth callback missing code and error")
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "missing pkce verifier",
		})
		return
	}

	err := h.sessions.SignInWithProvider(
		c.Request.Context(),
		providerName,
		code,
		codeVerifier,
	)
	if err != nil {
		h.log.Info("federated sign-in failed",
			zap.String("provider", providerName),
			zap.Error(err),
		)
		h.writeAuthError(c, err)
		return
	}

	c.Redirect(http.StatusSeeOther, from)
}
