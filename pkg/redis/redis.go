package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/pixelsock/matrix-configurator-backend/config"
	"github.com/pixelsock/matrix-configurator-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// ErrCacheMiss is returned when no cached catalog exists for a key.
var ErrCacheMiss = redis.Nil

// Init initializes the Redis connection used as the shared catalog cache.
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	client = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client = nil
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established successfully", nil)
	return nil
}

// Enabled reports whether a Redis connection is available. The catalog
// loader degrades to its in-process cache when it is not.
func Enabled() bool {
	return client != nil
}

// Close closes the Redis connection.
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection", nil)
		return client.Close()
	}
	return nil
}

func catalogKey(slug string) string {
	return fmt.Sprintf("catalog:%s", slug)
}

// SetCatalog caches a serialized catalog payload for a product line.
func SetCatalog(ctx context.Context, slug string, payload []byte, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	if err := client.Set(ctx, catalogKey(slug), payload, ttl).Err(); err != nil {
		logger.Error("Failed to cache catalog payload", err, map[string]interface{}{
			"product_line": slug,
		})
		return err
	}
	logger.Debug("Catalog payload cached", map[string]interface{}{
		"product_line": slug,
		"ttl":          ttl.String(),
	})
	return nil
}

// GetCatalog fetches a cached catalog payload. Returns ErrCacheMiss when
// nothing is cached for the product line.
func GetCatalog(ctx context.Context, slug string) ([]byte, error) {
	if client == nil {
		return nil, ErrCacheMiss
	}
	payload, err := client.Get(ctx, catalogKey(slug)).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		logger.Error("Failed to read cached catalog payload", err, map[string]interface{}{
			"product_line": slug,
		})
		return nil, err
	}
	return payload, nil
}

// InvalidateCatalog drops the cached payload for a product line.
func InvalidateCatalog(ctx context.Context, slug string) error {
	if client == nil {
		return nil
	}
	if err := client.Del(ctx, catalogKey(slug)).Err(); err != nil {
		logger.Error("Failed to invalidate cached catalog payload", err, map[string]interface{}{
			"product_line": slug,
		})
		return err
	}
	return nil
}
