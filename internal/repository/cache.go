package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-warehouse-service/internal/models"
)

const (
	productKeyPrefix = "warehouse:product:"
	orderKeyPrefix   = "warehouse:order:"
	defaultCacheTTL  = 5 * time.Minute
)

// RedisCache implements Cache using Redis. A miss is reported as (nil, nil).
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisClient opens a client for the configured Redis instance.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewRedisCache creates a cache on top of client.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisCache {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func productKey(id int64) string { return productKeyPrefix + strconv.FormatInt(id, 10) }

func orderKey(id int64) string { return orderKeyPrefix + strconv.FormatInt(id, 10) }

// GetProduct retrieves a product from cache.
func (c *RedisCache) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	found, err := c.get(ctx, productKey(id), &product)
	if err != nil || !found {
		return nil, err
	}
	return &product, nil
}

// SetProduct stores a product in cache.
func (c *RedisCache) SetProduct(ctx context.Context, product *models.Product) error {
	return c.set(ctx, productKey(product.ID), product)
}

// DeleteProducts removes products from cache.
func (c *RedisCache) DeleteProducts(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"keys":  keys,
			"error": err.Error(),
		})
		return err
	}

	c.logger.Debug("Products deleted from cache", logging.Fields{"product_ids": ids})
	return nil
}

// GetOrder retrieves an order from cache.
func (c *RedisCache) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	found, err := c.get(ctx, orderKey(id), &order)
	if err != nil || !found {
		return nil, err
	}
	return &order, nil
}

// SetOrder stores an order in cache.
func (c *RedisCache) SetOrder(ctx context.Context, order *models.Order) error {
	return c.set(ctx, orderKey(order.ID), order)
}

// DeleteOrder removes an order from cache.
func (c *RedisCache) DeleteOrder(ctx context.Context, id int64) error {
	key := orderKey(id)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Error("Cache delete error", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}

	c.logger.Debug("Order deleted from cache", logging.Fields{"order_id": id})
	return nil
}

func (c *RedisCache) get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug("Cache miss", logging.Fields{"key": key})
		return false, nil
	}
	if err != nil {
		c.logger.Error("Cache get error", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}

	c.logger.Debug("Cache hit", logging.Fields{"key": key})
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Error("Cache set error", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}

	c.logger.Debug("Cached", logging.Fields{
		"key": key,
		"ttl": c.ttl.String(),
	})
	return nil
}
