package config

import (
	"github.com/caarlos0/env/v10"
)

// Config centralizes gateway configuration, loaded from environment
// variables (optionally seeded from a .env file by main).
type Config struct {
	AppPort string `env:"APP_PORT" envDefault:"8080"`
	Debug   bool   `env:"DEBUG" envDefault:"false"`

	// Identity provider. When FirebaseAPIKey is empty the gateway runs
	// against the built-in local provider (dev mode).
	FirebaseAPIKey      string `env:"FIREBASE_API_KEY"`
	IdentityToolkitURL  string `env:"IDENTITY_TOOLKIT_URL" envDefault:"https://identitytoolkit.googleapis.com/v1"`
	SecureTokenURL      string `env:"SECURE_TOKEN_URL" envDefault:"https://securetoken.googleapis.com/v1"`
	LocalTokenSecret    string `env:"LOCAL_TOKEN_SECRET" envDefault:"coursehub-dev"`
	LocalTokenLifetime  int    `env:"LOCAL_TOKEN_LIFETIME_MINUTES" envDefault:"60"`

	// CourseHub backend (profile API).
	APIBaseURL string `env:"API_BASE_URL" envDefault:"http://localhost:5000"`

	// Federated sign-in.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL"`
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubRedirectURL  string `env:"GITHUB_REDIRECT_URL"`

	// Credential cache (session restore across restarts).
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Dev backend only.
	DatabaseDSN    string `env:"DATABASE_DSN"`
	DevBackendPort string `env:"DEV_BACKEND_PORT" envDefault:"5000"`
}

// Load parses the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
