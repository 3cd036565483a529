package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Purab2001/CourseHub-client/internal/utils"
)

const (
	stateCookieName = "__oauth_state"
	fromCookieName  = "__oauth_from"
	stateTTL        = 5 * time.Minute
)

func generateState(c *gin.Context) string {
	state := utils.RandomString(32)
	setTransientCookie(c, stateCookieName, state, stateTTL)
	return state
}

func validateState(c *gin.Context) bool {
	stateQuery := c.Query("state")
	if stateQuery == "" {
		return false
	}

	cookie := transientCookie(c, stateCookieName)
	clearTransientCookie(c, stateCookieName)

	return cookie != "" && cookie == stateQuery
}
