package config

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InitRedisServer connects the shared redis client used by the task queue
// and the scheduled cleanup. Redis being down at boot is fatal.
func InitRedisServer(ctx context.Context) *redis.Client {
	addr := GetEnvOrDefault("REDIS_ADDRESS", "localhost:6379")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: GetEnv("REDIS_PASSWORD"),
		DB:       0,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		Logger.Fatal("Cannot reach redis", zap.String("addr", addr), zap.Error(err))
	}

	return client
}
