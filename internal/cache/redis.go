// Package cache реализует JSON-кэш поверх redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ledgersandbox/ledger-sandbox/internal/config"
)

// Cache хранит значения в redis в виде JSON.
type Cache struct {
	DB *redis.Client
}

// New создаёт клиента redis и проверяет соединение.
func New(ctx context.Context, cfg config.RedisConnection) (*Cache, error) {
	const op = "cache.New"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Cache{DB: db}, nil
}

// NewFromClient оборачивает готовый клиент redis.
func NewFromClient(client *redis.Client) *Cache {
	return &Cache{DB: client}
}

// Get читает значение по ключу в result. Возвращает false, если ключа нет.
func (c *Cache) Get(ctx context.Context, key string, result any) (bool, error) {
	const op = "cache.Get"
	val, err := c.DB.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if err = json.Unmarshal([]byte(val), result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

// Set сохраняет значение с временем жизни expiration.
func (c *Cache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	const op = "cache.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.DB.Set(ctx, key, jsonData, expiration).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Invalidate удаляет значение по ключу.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	const op = "cache.Invalidate"
	if err := c.DB.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает соединение с redis.
func (c *Cache) Close() error {
	return c.DB.Close()
}

// Nop — кэш, который ничего не хранит. Используется, когда redis не настроен.
type Nop struct{}

// Get всегда сообщает о промахе.
func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }

// Set ничего не делает.
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }

// Invalidate ничего не делает.
func (Nop) Invalidate(context.Context, string) error { return nil }
