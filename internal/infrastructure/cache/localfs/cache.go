package localfs

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
)

// Cache stores one file per key under basePath. The first line holds the TTL
// in seconds; expiry is judged against the file's mtime, so entries survive
// restarts without an index. Corrupt or expired files are removed on read.
type Cache struct {
	basePath string
}

func New(basePath string) (*Cache, error) {
	if basePath == "" {
		basePath = "./data/cache"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &Cache{basePath: basePath}, nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	path := c.entryPath(key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ErrCacheMiss
	}

	ttl, payload, err := parseEntry(raw)
	if err != nil {
		_ = os.Remove(path)
		return nil, domain.ErrCacheMiss
	}

	if ttl > 0 && time.Since(info.ModTime()) > ttl {
		_ = os.Remove(path)
		return nil, domain.ErrCacheMiss
	}
	return payload, nil
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	entry := make([]byte, 0, len(value)+16)
	entry = strconv.AppendInt(entry, int64(ttl.Seconds()), 10)
	entry = append(entry, '\n')
	entry = append(entry, value...)

	path := c.entryPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, entry, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish cache entry: %w", err)
	}
	return nil
}

func (c *Cache) Clear(_ context.Context, pattern string) (int, error) {
	glob := pattern
	if glob == "" {
		glob = "*"
	}
	matches, err := filepath.Glob(filepath.Join(c.basePath, glob+".cache"))
	if err != nil {
		return 0, fmt.Errorf("invalid clear pattern %q: %w", pattern, err)
	}

	cleared := 0
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return cleared, fmt.Errorf("remove cache entry: %w", err)
		}
		cleared++
	}
	return cleared, nil
}

func (c *Cache) entryPath(key string) string {
	return filepath.Join(c.basePath, key+".cache")
}

func parseEntry(raw []byte) (time.Duration, []byte, error) {
	idx := bytes.IndexByte(raw, '\n')
	if idx < 0 {
		return 0, nil, fmt.Errorf("cache entry missing ttl line")
	}
	seconds, err := strconv.ParseInt(string(raw[:idx]), 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("parse cache ttl: %w", err)
	}
	return time.Duration(seconds) * time.Second, raw[idx+1:], nil
}
