package guard

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/Purab2001/CourseHub-client/internal/session"
)

// RequireSession gates a route group on the session state machine:
// pending resolves to a non-committal 202, denial redirects to the
// sign-in entry with the requested path in the `from` query so
// sign-in can return the user there, and admission falls through to
// the protected handlers.
func RequireSession(manager *session.Manager, signInPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch Evaluate(manager.Current()) {
		case Pending:
			c.AbortWithStatusJSON(http.StatusAccepted, gin.H{
				"state": Pending.String(),
			})
		case Denied:
			from := c.Request.URL.RequestURI()
			c.Redirect(
				http.StatusSeeOther,
				signInPath+"?from="+url.QueryEscape(from),
			)
			c.Abort()
		default:
			c.Next()
		}
	}
}
