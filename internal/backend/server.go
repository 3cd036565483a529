package backend

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/profile"
)

// TokenVerifier authenticates bearer identity tokens. The dev stack
// plugs in the local provider's verifier.
type TokenVerifier interface {
	Verify(token string) (uid string, email string, err error)
}

// Server stubs the CourseHub backend profile API for offline
// development: the register-login upsert, the profile read, and the
// imgbb upload relay.
type Server struct {
	store    Store
	verifier TokenVerifier
	log      *zap.Logger

	uploadMu sync.Mutex
	uploads  map[string][]byte
}

func NewServer(store Store, verifier TokenVerifier, log *zap.Logger) *Server {
	return &Server{
		store:    store,
		verifier: verifier,
		log:      log,
		uploads:  make(map[string][]byte),
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Upload happens before account creation, so it is unauthenticated.
	router.POST("/api/upload/imgbb", s.uploadImage)
	router.GET("/i/:id", s.serveImage)

	api := router.Group("/api/auth")
	api.Use(s.requireToken())
	api.POST("/register-login", s.registerLogin)
	api.GET("/profile", s.getProfile)

	return router
}

// requireToken validates the Authorization bearer token and stores
// the caller's email in the request context.
func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization token"})
			c.Abort()
			return
		}

		uid, email, err := s.verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set("uid", uid)
		c.Set("email", email)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	bearer := c.GetHeader("Authorization")
	if strings.HasPrefix(bearer, "Bearer ") && len(bearer) > 7 {
		return bearer[7:]
	}
	return ""
}

type registerLoginRequest struct {
	Name   string  `json:"name"`
	Email  string  `json:"email"`
	Role   string  `json:"role"`
	Photo  *string `json:"photo"`
	Status string  `json:"status"`
}

func (s *Server) registerLogin(c *gin.Context) {
	var req registerLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	// The token owner can only upsert their own profile.
	if !strings.EqualFold(req.Email, c.GetString("email")) {
		c.JSON(http.StatusForbidden, gin.H{"error": "email does not match token"})
		return
	}

	photo := ""
	if req.Photo != nil {
		photo = *req.Photo
	}

	stored, err := s.store.Upsert(c.Request.Context(), profile.Profile{
		Email:  req.Email,
		Name:   req.Name,
		Role:   req.Role,
		Photo:  photo,
		Status: req.Status,
	})
	if err != nil {
		s.log.Error("profile upsert failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": stored})
}

func (s *Server) getProfile(c *gin.Context) {
	email := c.GetString("email")

	stored, err := s.store.GetByEmail(c.Request.Context(), email)
	if errors.Is(err, ErrProfileNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		s.log.Error("profile read failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": stored})
}

// uploadImage stores the image in memory and returns a served URL,
// standing in for the real imgbb relay.
func (s *Server) uploadImage(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "image field is required",
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, 5<<20))
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "could not read image",
		})
		return
	}

	id := uuid.NewString()
	s.uploadMu.Lock()
	s.uploads[id] = data
	s.uploadMu.Unlock()

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     fmt.Sprintf("%s://%s/i/%s", scheme, c.Request.Host, id),
	})
}

func (s *Server) serveImage(c *gin.Context) {
	s.uploadMu.Lock()
	data, ok := s.uploads[c.Param("id")]
	s.uploadMu.Unlock()

	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.Data(http.StatusOK, http.DetectContentType(data), data)
}
