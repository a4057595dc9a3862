package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
	"github.com/docsage/docsage/internal/core/ports"
)

// Failover reads and writes through the remote cache first and falls back to
// the local cache when the remote is unreachable. A remote miss is still a
// miss; only backend failures trigger the fallback.
type Failover struct {
	remote ports.CacheBackend
	local  ports.CacheBackend
	logger *slog.Logger
}

func NewFailover(remote, local ports.CacheBackend, logger *slog.Logger) *Failover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Failover{remote: remote, local: local, logger: logger}
}

func (f *Failover) Get(ctx context.Context, key string) ([]byte, error) {
	if f.remote != nil {
		value, err := f.remote.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, domain.ErrCacheMiss
		}
		f.logger.Warn("remote_cache_get_failed", "error", err)
	}
	if f.local == nil {
		return nil, domain.ErrCacheMiss
	}
	return f.local.Get(ctx, key)
}

func (f *Failover) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var remoteErr error
	if f.remote != nil {
		remoteErr = f.remote.Set(ctx, key, value, ttl)
		if remoteErr != nil {
			f.logger.Warn("remote_cache_set_failed", "error", remoteErr)
		}
	}
	if f.local != nil {
		if err := f.local.Set(ctx, key, value, ttl); err != nil {
			return err
		}
		return nil
	}
	return remoteErr
}

// Clear clears both tiers and reports the combined count. A remote failure is
// logged but does not block the local clear.
func (f *Failover) Clear(ctx context.Context, pattern string) (int, error) {
	total := 0
	if f.remote != nil {
		n, err := f.remote.Clear(ctx, pattern)
		total += n
		if err != nil {
			f.logger.Warn("remote_cache_clear_failed", "error", err)
		}
	}
	if f.local != nil {
		n, err := f.local.Clear(ctx, pattern)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
