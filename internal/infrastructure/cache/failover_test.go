package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
)

type stubBackend struct {
	entries  map[string][]byte
	getErr   error
	setErr   error
	clearErr error
}

func newStubBackend() *stubBackend {
	return &stubBackend{entries: make(map[string][]byte)}
}

func (s *stubBackend) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	raw, ok := s.entries[key]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return raw, nil
}

func (s *stubBackend) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key] = value
	return nil
}

func (s *stubBackend) Clear(_ context.Context, _ string) (int, error) {
	if s.clearErr != nil {
		return 0, s.clearErr
	}
	n := len(s.entries)
	s.entries = make(map[string][]byte)
	return n, nil
}

func TestFailoverGetPrefersRemote(t *testing.T) {
	remote := newStubBackend()
	local := newStubBackend()
	remote.entries["k"] = []byte("remoto")
	local.entries["k"] = []byte("local")

	f := NewFailover(remote, local, nil)
	got, err := f.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte("remoto")) {
		t.Fatalf("expected the remote value, got %q", got)
	}
}

func TestFailoverRemoteMissStaysMiss(t *testing.T) {
	remote := newStubBackend()
	local := newStubBackend()
	local.entries["k"] = []byte("local")

	f := NewFailover(remote, local, nil)
	if _, err := f.Get(context.Background(), "k"); !errors.Is(err, domain.ErrCacheMiss) {
		t.Fatalf("remote miss must not consult the local tier, got %v", err)
	}
}

func TestFailoverRemoteFailureFallsBackToLocal(t *testing.T) {
	remote := newStubBackend()
	remote.getErr = errors.New("connection refused")
	local := newStubBackend()
	local.entries["k"] = []byte("local")

	f := NewFailover(remote, local, nil)
	got, err := f.Get(context.Background(), "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte("local")) {
		t.Fatalf("expected the local value, got %q", got)
	}
}

func TestFailoverSetWritesBothTiers(t *testing.T) {
	remote := newStubBackend()
	local := newStubBackend()

	f := NewFailover(remote, local, nil)
	if err := f.Set(context.Background(), "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := remote.entries["k"]; !ok {
		t.Fatalf("remote tier must receive the write")
	}
	if _, ok := local.entries["k"]; !ok {
		t.Fatalf("local tier must receive the write")
	}
}

func TestFailoverSetSurvivesRemoteFailure(t *testing.T) {
	remote := newStubBackend()
	remote.setErr = errors.New("connection refused")
	local := newStubBackend()

	f := NewFailover(remote, local, nil)
	if err := f.Set(context.Background(), "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("local write succeeded, expected nil error: %v", err)
	}
	if _, ok := local.entries["k"]; !ok {
		t.Fatalf("local tier must still receive the write")
	}
}

func TestFailoverClearAggregatesBothTiers(t *testing.T) {
	remote := newStubBackend()
	local := newStubBackend()
	remote.entries["a"] = []byte("x")
	local.entries["a"] = []byte("x")
	local.entries["b"] = []byte("x")

	f := NewFailover(remote, local, nil)
	n, err := f.Clear(context.Background(), "*")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 cleared entries, got %d", n)
	}
}

func TestFailoverClearRemoteFailureDoesNotBlockLocal(t *testing.T) {
	remote := newStubBackend()
	remote.clearErr = errors.New("connection refused")
	local := newStubBackend()
	local.entries["a"] = []byte("x")

	f := NewFailover(remote, local, nil)
	n, err := f.Clear(context.Background(), "*")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the local count, got %d", n)
	}
	if len(local.entries) != 0 {
		t.Fatalf("local tier must still be cleared")
	}
}

func TestFailoverWithoutRemote(t *testing.T) {
	local := newStubBackend()
	f := NewFailover(nil, local, nil)

	if err := f.Set(context.Background(), "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := f.Get(context.Background(), "k")
	if err != nil || !bytes.Equal(got, []byte("v")) {
		t.Fatalf("local-only round trip failed: %q %v", got, err)
	}
}
