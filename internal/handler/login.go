package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.sessions.SignInWithPassword(
		c.Request.Context(),
		req.Email,
		req.Password,
	)
	if err != nil {
		h.log.Info("password sign-in failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)
		h.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "authenticated",
		"next":   safeReturnPath(c.Query("from")),
	})
}
