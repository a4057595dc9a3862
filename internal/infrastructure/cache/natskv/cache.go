package natskv

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/docsage/docsage/internal/core/domain"
)

// Cache is the shared network cache tier, backed by a JetStream key-value
// bucket. Entries expire via the bucket TTL; callers carry a tighter TTL in
// the cached payload itself when they need one.
type Cache struct {
	conn   *nats.Conn
	bucket jetstream.KeyValue
}

func New(ctx context.Context, url, bucketName string, ttl time.Duration) (*Cache, error) {
	conn, err := nats.Connect(
		url,
		nats.Name("docsage-cache"),
		nats.Timeout(2*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats for cache: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: bucketName,
		TTL:    ttl,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure cache bucket: %w", err)
	}

	return &Cache{conn: conn, bucket: bucket}, nil
}

func (c *Cache) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	entry, err := c.bucket.Get(ctx, key)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, domain.ErrCacheMiss
		}
		return nil, domain.WrapError(domain.ErrBackendUnavailable, "cache get", err)
	}
	return entry.Value(), nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, _ time.Duration) error {
	if _, err := c.bucket.Put(ctx, key, value); err != nil {
		return domain.WrapError(domain.ErrBackendUnavailable, "cache set", err)
	}
	return nil
}

// Clear purges every key matching the glob pattern and returns how many
// entries were removed. An empty pattern clears the whole bucket.
func (c *Cache) Clear(ctx context.Context, pattern string) (int, error) {
	keys, err := c.bucket.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return 0, nil
		}
		return 0, domain.WrapError(domain.ErrBackendUnavailable, "cache clear", err)
	}

	cleared := 0
	for _, key := range keys {
		if pattern != "" {
			matched, matchErr := path.Match(pattern, key)
			if matchErr != nil {
				return cleared, fmt.Errorf("invalid clear pattern %q: %w", pattern, matchErr)
			}
			if !matched {
				continue
			}
		}
		if err := c.bucket.Purge(ctx, key); err != nil {
			return cleared, domain.WrapError(domain.ErrBackendUnavailable, "cache clear", err)
		}
		cleared++
	}
	return cleared, nil
}
