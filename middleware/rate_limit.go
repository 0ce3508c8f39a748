package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"metahire/utils"
)

const rateLimitPrefix = "ratelimit:"

// LoginRateLimiter limits login and registration attempts per client IP. A
// nil storage keeps counters in process memory.
func LoginRateLimiter(max int, storage fiber.Storage) fiber.Handler {
	return newLimiter("auth", max, time.Minute, storage, func(c *fiber.Ctx) string {
		return c.IP()
	})
}

// ImportRateLimiter limits CSV imports per authenticated profile. It must
// run after Protected.
func ImportRateLimiter(max int, storage fiber.Storage) fiber.Handler {
	return newLimiter("import", max, time.Minute, storage, func(c *fiber.Ctx) string {
		return CallerFrom(c).ProfileID()
	})
}

func newLimiter(name string, max int, window time.Duration, storage fiber.Storage, key func(c *fiber.Ctx) string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return rateLimitPrefix + name + ":" + key(c)
		},
		LimitReached: func(c *fiber.Ctx) error {
			utils.LogEvent("rate_limit_hit", map[string]interface{}{
				"limiter":    name,
				"profile_id": CallerFrom(c).ProfileID(),
				"endpoint":   c.Path(),
				"ip":         c.IP(),
				"user_agent": c.Get("User-Agent"),
			})
			c.Set(fiber.HeaderRetryAfter, "60")
			return utils.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many requests. Please wait before trying again.", nil)
		},
		Storage: storage,
	})
}

// RedisStorage implements fiber.Storage for Redis so limits hold across
// instances.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage returns a storage backed by client, or nil when client is
// nil so the limiter falls back to memory.
func NewRedisStorage(client *redis.Client) fiber.Storage {
	if client == nil {
		return nil
	}
	return &RedisStorage{client: client}
}

func (r *RedisStorage) Get(key string) ([]byte, error) {
	val, err := r.client.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	return r.client.Set(context.Background(), key, val, exp).Err()
}

func (r *RedisStorage) Delete(key string) error {
	return r.client.Del(context.Background(), key).Err()
}

// Reset removes every rate limit counter, leaving other keys alone.
func (r *RedisStorage) Reset() error {
	ctx := context.Background()
	iter := r.client.Scan(ctx, 0, rateLimitPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close is a no-op; the client is owned by the caller.
func (r *RedisStorage) Close() error {
	return nil
}
