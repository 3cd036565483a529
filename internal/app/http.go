package app

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/config"
	"github.com/Purab2001/CourseHub-client/internal/guard"
	"github.com/Purab2001/CourseHub-client/internal/handler"
	"github.com/Purab2001/CourseHub-client/internal/identity/oauth"
	"github.com/Purab2001/CourseHub-client/internal/identity/oauth/github"
	"github.com/Purab2001/CourseHub-client/internal/identity/oauth/google"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider/firebase"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider/local"
	"github.com/Purab2001/CourseHub-client/internal/profile"
	"github.com/Purab2001/CourseHub-client/internal/session"
)

func setupHTTP(
	ctx context.Context,
	cfg config.Config,
	log *zap.Logger,
) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	idp, err := setupProvider(cfg, infra.Credentials, log)
	if err != nil {
		return nil, nil, err
	}

	registry, err := setupOAuth(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	profileClient := profile.NewClient(cfg.APIBaseURL, log)
	sessions := session.NewManager(idp, profileClient, registry, log)

	release, err := sessions.Start(ctx)
	if err != nil {
		return nil, nil, err
	}

	authHandler := handler.New(sessions, registry, log)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------
	// Protected Routes
	// ----------------------------

	dashboard := router.Group("/dashboard")
	dashboard.Use(guard.RequireSession(sessions, "/login"))
	authHandler.RegisterDashboardRoutes(dashboard)

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		release()
		return infra.Close()
	}, nil
}

func setupProvider(
	cfg config.Config,
	credentials provider.CredentialStore,
	log *zap.Logger,
) (provider.Provider, error) {

	if cfg.FirebaseAPIKey != "" {
		return firebase.New(
			cfg.FirebaseAPIKey,
			credentials,
			log,
			firebase.WithEndpoints(cfg.IdentityToolkitURL, cfg.SecureTokenURL),
		)
	}

	log.Warn("no identity provider key configured, using local dev provider")
	return local.New(
		cfg.LocalTokenSecret,
		time.Duration(cfg.LocalTokenLifetime)*time.Minute,
		credentials,
		log,
	), nil
}

func setupOAuth(ctx context.Context, cfg config.Config) (*oauth.Registry, error) {
	var exchangers []oauth.Exchanger

	if cfg.GoogleClientID != "" {
		googleExchanger, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			cfg.GoogleRedirectURL,
		)
		if err != nil {
			return nil, err
		}
		exchangers = append(exchangers, googleExchanger)
	}

	if cfg.GitHubClientID != "" {
		githubExchanger, err := github.New(
			cfg.GitHubClientID,
			cfg.GitHubClientSecret,
			cfg.GitHubRedirectURL,
		)
		if err != nil {
			return nil, err
		}
		exchangers = append(exchangers, githubExchanger)
	}

	return oauth.NewRegistry(exchangers...), nil
}
