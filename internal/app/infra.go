package app

import (
	"go.uber.org/zap"

	"github.com/Purab2001/CourseHub-client/internal/config"
	"github.com/Purab2001/CourseHub-client/internal/identity/provider"
	"github.com/Purab2001/CourseHub-client/internal/redis"
)

type Infra struct {
	Redis       *redis.Client
	Credentials provider.CredentialStore
}

// setupInfra wires the credential cache. Redis keeps the signed-in
// session across restarts; without a Redis address the cache is
// in-memory only.
func setupInfra(cfg config.Config, log *zap.Logger) (*Infra, error) {
	if cfg.RedisAddr == "" {
		log.Info("no redis configured, session will not survive restarts")
		return &Infra{Credentials: provider.NewMemoryStore()}, nil
	}

	redisClient, err := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	log.Info("redis ready", zap.String("addr", cfg.RedisAddr))

	return &Infra{
		Redis:       redisClient,
		Credentials: provider.NewRedisStore(redisClient.Client),
	}, nil
}

func (i *Infra) Close() error {
	if i.Redis != nil {
		return i.Redis.Close()
	}
	return nil
}
