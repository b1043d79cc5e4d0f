package middleware

import (
	"context"
	"errors"
	"time"

	"devsync/config"
	"devsync/models"
	"devsync/utils"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sirupsen/logrus"
)

// InviteRateLimiter caps invitation sends per user and team. Counters live in
// Redis when it is enabled, in process memory otherwise.
func InviteRateLimiter(max int, storage fiber.Storage, log *logrus.Entry) fiber.Handler {
	if max <= 0 {
		max = 10
	}
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: 1 * time.Hour,
		KeyGenerator: func(c *fiber.Ctx) string {
			user := c.Locals("user").(*models.User)
			return utils.GenerateRateLimitKey(user.ID, "invite:"+c.Params("id"), c.Path())
		},
		LimitReached: func(c *fiber.Ctx) error {
			user := c.Locals("user").(*models.User)
			utils.LogEvent(log, "rate_limit_hit", map[string]interface{}{
				"user_id":    user.ID,
				"endpoint":   c.Path(),
				"ip":         c.IP(),
				"user_agent": c.Get("User-Agent"),
			})

			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       "Too many invitations sent. Please wait before inviting again.",
				"retry_after": "1 hour",
			})
		},
		Storage: storage,
	})
}

// RateLimitStorage returns Redis-backed limiter storage, or nil for memory.
func RateLimitStorage(cfg config.RedisConfig) fiber.Storage {
	if cfg.Enabled {
		return NewRedisStorage(cfg)
	}
	return nil
}

// rateLimitPrefix namespaces limiter counters so they can share a Redis
// database with the asynq queues.
const rateLimitPrefix = "devsync:ratelimit:"

// RedisStorage is a fiber.Storage over go-redis, scoped to rateLimitPrefix.
type RedisStorage struct {
	client *redis.Client
}

func NewRedisStorage(cfg config.RedisConfig) *RedisStorage {
	return &RedisStorage{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
	}
}

func (r *RedisStorage) Get(key string) ([]byte, error) {
	val, err := r.client.Get(context.Background(), rateLimitPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if len(val) == 0 {
		return nil
	}
	return r.client.Set(context.Background(), rateLimitPrefix+key, val, exp).Err()
}

func (r *RedisStorage) Delete(key string) error {
	return r.client.Del(context.Background(), rateLimitPrefix+key).Err()
}

// Reset drops only the limiter's own keys.
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

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
