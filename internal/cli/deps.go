package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"career-quiz/internal/api"
	"career-quiz/internal/app"
	"career-quiz/internal/config"
	"career-quiz/internal/infra/memory"
	redisinfra "career-quiz/internal/infra/redis"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newAPIClient(cfg config.Config, log zerolog.Logger) (*api.Client, error) {
	if cfg.API.BaseURL == "" {
		return nil, fmt.Errorf("quiz api url not configured (api.baseURL or QUIZ_API_URL)")
	}
	opts := []api.Option{api.WithLogger(log)}
	if cfg.API.Token != "" {
		opts = append(opts, api.WithToken(cfg.API.Token))
	}
	if timeout := config.TTLDuration(cfg.API.Timeout, 0); timeout > 0 {
		opts = append(opts, api.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	return api.New(cfg.API.BaseURL, opts...), nil
}

// newRedisClient returns nil when redis is not configured.
func newRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// newQuizRepository caches definitions fetched through loader, in redis when
// a client is given.
func newQuizRepository(cfg config.Config, redisClient *redis.Client, loader memory.QuizLoader, log zerolog.Logger) app.QuizRepository {
	ttl := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	if redisClient != nil {
		return redisinfra.NewQuizRepository(redisClient, loader, ttl, log)
	}
	return memory.NewQuizRepository(loader, ttl)
}
