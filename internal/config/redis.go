package config

import (
	"context"
	"log"
	"net"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis instance backing the token-bucket
// limiter and the response cache.  Connection parameters come from
// REDIS_URL (a full redis:// URL) or, when that is unset, from
// REDIS_HOST/REDIS_PORT with optional REDIS_PASSWORD and REDIS_DB.  The
// client is pinged once with a short timeout; on failure nil is returned
// and both middlewares fall back to pass-through, so a Redis outage
// never blocks bookings or settlements.
func NewRedisClient() *redis.Client {
	opts, err := redisOptions()
	if err != nil {
		log.Printf("config: invalid REDIS_URL: %v", err)
		return nil
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}

// redisOptions resolves client options from the environment.  REDIS_URL
// wins when set so managed-Redis connection strings can be pasted in
// unchanged.
func redisOptions() (*redis.Options, error) {
	if url := os.Getenv("REDIS_URL"); url != "" {
		return redis.ParseURL(url)
	}
	addr := net.JoinHostPort(envStr("REDIS_HOST", "localhost"), envStr("REDIS_PORT", "6379"))
	return &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       envInt("REDIS_DB", 0),
	}, nil
}
