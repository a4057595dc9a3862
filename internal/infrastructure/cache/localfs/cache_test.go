package localfs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
)

func TestCacheRoundTrip(t *testing.T) {
	c, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := c.Set(context.Background(), "abc123", []byte(`{"answer":"x"}`), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := c.Get(context.Background(), "abc123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte(`{"answer":"x"}`)) {
		t.Fatalf("unexpected payload: %q", got)
	}
}

func TestCacheMissingKeyIsMiss(t *testing.T) {
	c, _ := New(t.TempDir())

	_, err := c.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected cache miss, got %v", err)
	}
}

func TestCacheExpiredEntryRemovedOnRead(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)

	if err := c.Set(context.Background(), "old", []byte("payload"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	path := filepath.Join(dir, "old.cache")
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if _, err := c.Get(context.Background(), "old"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss for expired entry, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expired entry must be removed")
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)

	if err := c.Set(context.Background(), "forever", []byte("payload"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	path := filepath.Join(dir, "forever.cache")
	past := time.Now().Add(-100 * time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if _, err := c.Get(context.Background(), "forever"); err != nil {
		t.Fatalf("zero ttl entry must stay readable: %v", err)
	}
}

func TestCacheCorruptEntryRemovedOnRead(t *testing.T) {
	dir := t.TempDir()
	c, _ := New(dir)

	path := filepath.Join(dir, "bad.cache")
	if err := os.WriteFile(path, []byte("no ttl line"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := c.Get(context.Background(), "bad"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("expected miss for corrupt entry, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("corrupt entry must be removed")
	}
}

func TestCacheClearByPattern(t *testing.T) {
	c, _ := New(t.TempDir())
	ctx := context.Background()
	_ = c.Set(ctx, "aa1", []byte("x"), time.Hour)
	_ = c.Set(ctx, "aa2", []byte("x"), time.Hour)
	_ = c.Set(ctx, "bb1", []byte("x"), time.Hour)

	n, err := c.Clear(ctx, "aa*")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 cleared entries, got %d", n)
	}
	if _, err := c.Get(ctx, "bb1"); err != nil {
		t.Fatalf("unmatched entry must survive: %v", err)
	}
}

func TestCacheClearEmptyPatternClearsAll(t *testing.T) {
	c, _ := New(t.TempDir())
	ctx := context.Background()
	_ = c.Set(ctx, "a", []byte("x"), time.Hour)
	_ = c.Set(ctx, "b", []byte("x"), time.Hour)

	n, err := c.Clear(ctx, "")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 cleared entries, got n=%d err=%v", n, err)
	}
}
