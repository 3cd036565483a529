package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/nav"
	"github.com/Purab2001/CourseHub-client/internal/profile"
	"github.com/Purab2001/CourseHub-client/internal/role"
)

// RegisterDashboardRoutes mounts the protected dashboard surface;
// the caller attaches the route guard to grp.
func (h *Handler) RegisterDashboardRoutes(grp *gin.RouterGroup) {
	grp.GET("", h.DashboardOverview)
	grp.GET("/menu", h.DashboardMenu)
}

func (h *Handler) DashboardOverview(c *gin.Context) {
	snap := h.sessions.Current()

	name := ""
	if snap.Identity != nil {
		name = snap.Identity.DisplayName
		if name == "" {
			name = snap.Identity.Email
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"welcome": name,
		"role":    snap.EffectiveRole(),
	})
}

// DashboardMenu returns the role-gated navigation set. The role is
// re-read from the backend on every call; a rejected token here is a
// later authenticated call, so 401 forces a sign-out and 403 routes
// to the forbidden view. Other fetch failures keep the last-known
// role.
func (h *Handler) DashboardMenu(c *gin.Context) {
	snap := h.sessions.Current()
	effective := snap.EffectiveRole()

	fetched, err := h.sessions.FetchProfile(c.Request.Context())
	switch {
	case errors.Is(err, profile.ErrUnauthorized):
		_ = h.sessions.SignOut(c.Request.Context())
		from := c.Request.URL.RequestURI()
		c.Redirect(
			http.StatusSeeOther,
			signInPath+"?from="+url.QueryEscape(from),
		)
		return
	case errors.Is(err, profile.ErrForbidden):
		c.Redirect(http.StatusSeeOther, "/forbidden")
		return
	case err != nil:
		h.log.Warn("menu role refresh failed, using cached role",
			zap.Error(err),
		)
	default:
		effective = role.Resolve(fetched, snap.SignedIn())
	}

	c.JSON(http.StatusOK, gin.H{
		"role":  effective,
		"items": nav.MenuFor(effective),
	})
}
