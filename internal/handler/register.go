package handler

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Purab2001/CourseHub-client/internal/session"
)

type registerRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	Role            string `json:"role"`
}

// Register accepts the registration form either as JSON or as a
// multipart form carrying an optional profile photo in the `photo`
// field.
func (h *Handler) Register(c *gin.Context) {
	in, ok := h.bindRegister(c)
	if !ok {
		return
	}

	if err := h.sessions.Register(c.Request.Context(), in); err != nil {
		h.writeAuthError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "registered",
		"next":   safeReturnPath(c.Query("from")),
	})
}

func (h *Handler) bindRegister(c *gin.Context) (session.RegisterInput, bool) {
	var in session.RegisterInput

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		in = session.RegisterInput{
			Name:            c.PostForm("name"),
			Email:           c.PostForm("email"),
			Password:        c.PostForm("password"),
			ConfirmPassword: c.PostForm("confirmPassword"),
			Role:            c.PostForm("role"),
		}

		file, header, err := c.Request.FormFile("photo")
		if err == nil {
			defer file.Close()
			// 5MB cap, matching the upload form's limit.
			data, readErr := io.ReadAll(io.LimitReader(file, 5<<20))
			if readErr == nil && len(data) > 0 {
				in.Photo = bytes.NewReader(data)
				in.PhotoFilename = header.Filename
			}
		}
		return in, true
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return session.RegisterInput{}, false
	}

	return session.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Role:            req.Role,
	}, true
}
