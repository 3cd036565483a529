package handler

import (
	"crypto/sha256"
	"encoding/base64"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Purab2001/CourseHub-client/internal/utils"
)

const (
	pkceCookieName = "__oauth_pkce"
	pkceTTL        = 5 * time.Minute
)

func generatePKCE(c *gin.Context) (verifier string, challenge string) {
	verifier = utils.RandomString(32)

	hash := sha256.Sum256([]byte(verifier))
	challenge = base64.RawURLEncoding.EncodeToString(hash[:])

	setTransientCookie(c, pkceCookieName, verifier, pkceTTL)
	return verifier, challenge
}

func getPKCEVerifier(c *gin.Context) string {
	verifier := transientCookie(c, pkceCookieName)
	clearTransientCookie(c, pkceCookieName)
	return verifier
}
