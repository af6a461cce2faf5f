package cache

import (
	"context"
	"fmt"
	"log"

	"github.com/lwas/economy/internal/pkg/env"
	"github.com/redis/go-redis/v9"
)

var (
	client *redis.Client
	ctx    = context.Background()
)

// SetupCache initializes the connection to the shared Redis store. The store
// is optional: when neither REDIS_URL nor CACHE_HOST is configured the client
// stays nil and callers fall back to in-process state.
func SetupCache() {
	if url := env.GetEnv("REDIS_URL", ""); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			log.Printf("Warning: invalid REDIS_URL, shared store disabled: %v", err)
			return
		}
		client = redis.NewClient(opts)
	} else if host := env.GetEnv("CACHE_HOST", ""); host != "" {
		port := env.GetEnv("CACHE_PORT", "6379")
		client = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", host, port),
			Password: "", // no password set
			DB:       0,  // use default DB
		})
	} else {
		log.Println("No shared store configured, using in-process fallback stores")
		return
	}

	// Test the connection
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		log.Printf("Warning: Could not connect to shared store: %v", err)
	} else {
		log.Printf("Successfully connected to shared store: %s", pong)
	}
}

// GetClient returns the Redis client instance, or nil when no shared store is
// configured.
func GetClient() *redis.Client {
	return client
}
