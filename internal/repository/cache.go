package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/models"
)

const (
	orderKeyPrefix  = "order:"
	defaultCacheTTL = 5 * time.Minute
)

// RedisOrderCache is a read cache in front of the order store. Every status
// transition invalidates the entry, so a cached order is at worst one
// in-flight transition stale.
type RedisOrderCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisOrderCache creates a Redis-based order cache.
func NewRedisOrderCache(cfg config.RedisConfig) *RedisOrderCache {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newRedisOrderCache(client, cfg.TTL)
}

// NewRedisOrderCacheWithClient wraps an existing client. Tests use this
// with miniredis.
func NewRedisOrderCacheWithClient(client *redis.Client, ttl time.Duration) *RedisOrderCache {
	return newRedisOrderCache(client, ttl)
}

func newRedisOrderCache(client *redis.Client, ttl time.Duration) *RedisOrderCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &RedisOrderCache{
		client: client,
		ttl:    ttl,
		logger: logging.New("order-cache"),
	}
}

// Get retrieves an order from cache. A miss returns (nil, nil).
func (c *RedisOrderCache) Get(ctx context.Context, orderID string) (*models.Order, error) {
	data, err := c.client.Get(ctx, orderKeyPrefix+orderID).Bytes()
	if errors.Is(err, redis.Nil) {
		c.logger.Debug("Cache miss", logging.Fields{"order_id": orderID})
		return nil, nil
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		})
		return nil, err
	}

	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}

	c.logger.Debug("Cache hit", logging.Fields{"order_id": orderID})
	return &order, nil
}

// Set stores an order in cache.
func (c *RedisOrderCache) Set(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, orderKeyPrefix+order.ID, data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
		return err
	}
	return nil
}

// Delete removes an order from cache.
func (c *RedisOrderCache) Delete(ctx context.Context, orderID string) error {
	if err := c.client.Del(ctx, orderKeyPrefix+orderID).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"order_id": orderID,
			"error":    err.Error(),
		})
		return err
	}
	return nil
}

// NoopOrderCache disables caching. Used when the feature flag is off.
type NoopOrderCache struct{}

func (NoopOrderCache) Get(ctx context.Context, orderID string) (*models.Order, error) {
	return nil, nil
}

func (NoopOrderCache) Set(ctx context.Context, order *models.Order) error { return nil }

func (NoopOrderCache) Delete(ctx context.Context, orderID string) error { return nil }
