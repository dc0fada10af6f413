package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Fabio661717/loja-conect-sub001/internal/models"
)

// Options configures the availability cache connection.
type Options struct {
	Addrs       []string
	Password    string
	ClusterMode bool
	TTL         time.Duration
	KeyPrefix   string
}

// CacheClient caches product availability. The cached count is a derived,
// non-authoritative view; the ledger row is the source of truth, which is
// why every entry carries a TTL and misses are never an error.
type CacheClient struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// NewCacheClient connects to a single Redis instance or a cluster depending
// on the options.
func NewCacheClient(opts Options) *CacheClient {
	var client redis.UniversalClient

	if opts.ClusterMode {
		client = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        opts.Addrs,
			Password:     opts.Password,
			MaxRetries:   3,
			PoolSize:     50,
			MinIdleConns: 5,
			PoolTimeout:  30 * time.Second,
		})
	} else {
		addr := "localhost:6379"
		if len(opts.Addrs) > 0 {
			addr = opts.Addrs[0]
		}
		client = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: opts.Password,
			PoolSize: 10,
		})
	}

	return &CacheClient{
		client:    client,
		ttl:       opts.TTL,
		keyPrefix: opts.KeyPrefix,
	}
}

// GetProduct returns the cached product, or nil on a miss.
func (c *CacheClient) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	val, err := c.client.Get(ctx, c.productKey(productID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache read for product %s: %w", productID, err)
	}

	var product models.Product
	if err := json.Unmarshal([]byte(val), &product); err != nil {
		// A corrupt entry behaves like a miss once dropped.
		log.Warn().Err(err).Str("product_id", productID).Msg("Dropping undecodable cache entry")
		_ = c.client.Del(ctx, c.productKey(productID)).Err()
		return nil, nil
	}

	return &product, nil
}

// SetProduct caches a product snapshot under the configured TTL.
func (c *CacheClient) SetProduct(ctx context.Context, product *models.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("cache encode for product %s: %w", product.ProductID, err)
	}

	if err := c.client.Set(ctx, c.productKey(product.ProductID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache write for product %s: %w", product.ProductID, err)
	}

	return nil
}

// DeleteProduct invalidates a product's cached availability.
func (c *CacheClient) DeleteProduct(ctx context.Context, productID string) error {
	if err := c.client.Del(ctx, c.productKey(productID)).Err(); err != nil {
		return fmt.Errorf("cache invalidation for product %s: %w", productID, err)
	}
	return nil
}

// Ping checks if Redis is available
func (c *CacheClient) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *CacheClient) Close() error {
	return c.client.Close()
}

func (c *CacheClient) productKey(productID string) string {
	return c.keyPrefix + "product:" + productID
}
