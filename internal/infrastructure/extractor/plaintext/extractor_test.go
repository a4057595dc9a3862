package plaintext

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/docsage/docsage/internal/core/domain"
)

type stubStorage struct {
	data map[string][]byte
}

func (s *stubStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return nil
}

func (s *stubStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := s.data[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func TestExtractNormalizesLineEndingsAndTrims(t *testing.T) {
	storage := &stubStorage{data: map[string][]byte{
		"doc.txt": []byte("  primeira linha\r\nsegunda linha\r\n  "),
	}}
	e := NewExtractor(storage)

	text, err := e.Extract(context.Background(), &domain.Document{StoragePath: "doc.txt", Filename: "doc.txt"})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if text != "primeira linha\nsegunda linha" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractRejectsBinaryContent(t *testing.T) {
	storage := &stubStorage{data: map[string][]byte{
		"img.png": {0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe},
	}}
	e := NewExtractor(storage)

	_, err := e.Extract(context.Background(), &domain.Document{StoragePath: "img.png", Filename: "img.png"})
	if err == nil || !strings.Contains(err.Error(), "unsupported binary format") {
		t.Fatalf("expected binary rejection, got %v", err)
	}
}

func TestExtractMissingObject(t *testing.T) {
	e := NewExtractor(&stubStorage{data: map[string][]byte{}})

	_, err := e.Extract(context.Background(), &domain.Document{StoragePath: "missing"})
	if err == nil {
		t.Fatalf("expected error for missing object")
	}
}
