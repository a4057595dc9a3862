package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/docsage/docsage/internal/core/domain"
)

func TestUploadStoresCreatesAndPublishes(t *testing.T) {
	docs := newFakeDocumentStore()
	storage := newFakeStorage()
	queue := &fakeQueue{}
	uc := NewIngestDocumentUseCase(docs, storage, queue)

	body := strings.NewReader("conteúdo do contrato")
	doc, err := uc.Upload(context.Background(), "Contrato 2024", "contrato final.txt", "text/plain", body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if doc.ID == "" || doc.Status != domain.StatusUploaded {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.Title != "Contrato 2024" {
		t.Fatalf("unexpected title %q", doc.Title)
	}
	if !strings.HasSuffix(doc.StoragePath, "_contrato_final.txt") {
		t.Fatalf("storage key must carry the sanitized filename: %q", doc.StoragePath)
	}
	if _, ok := storage.saved[doc.StoragePath]; !ok {
		t.Fatalf("body must be saved under the storage key")
	}
	if len(queue.published) != 1 || queue.published[0] != doc.ID {
		t.Fatalf("ingestion event must be published, got %v", queue.published)
	}
	if _, ok := docs.docs[doc.ID]; !ok {
		t.Fatalf("document metadata must be persisted")
	}
}

func TestUploadRecordsSizeMetadata(t *testing.T) {
	uc := NewIngestDocumentUseCase(newFakeDocumentStore(), newFakeStorage(), &fakeQueue{})

	payload := strings.Repeat("x", 1234)
	doc, err := uc.Upload(context.Background(), "t", "a.txt", "text/plain", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Metadata["size_bytes"] != "1234" {
		t.Fatalf("expected size_bytes=1234, got %q", doc.Metadata["size_bytes"])
	}
}

func TestUploadDefaultsTitleToFilename(t *testing.T) {
	uc := NewIngestDocumentUseCase(newFakeDocumentStore(), newFakeStorage(), &fakeQueue{})

	doc, err := uc.Upload(context.Background(), "   ", "relatorio.txt", "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if doc.Title != "relatorio.txt" {
		t.Fatalf("blank title must default to the filename, got %q", doc.Title)
	}
}

func TestUploadQueueFailureSurfaces(t *testing.T) {
	uc := NewIngestDocumentUseCase(newFakeDocumentStore(), newFakeStorage(), &fakeQueue{err: errors.New("nats down")})

	if _, err := uc.Upload(context.Background(), "t", "a.txt", "text/plain", strings.NewReader("x")); err == nil {
		t.Fatalf("queue failure must surface to the caller")
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"relatório final.pdf", "relat_rio_final.pdf"},
		{"../../etc/passwd", "passwd"},
		{"ok-name_1.TXT", "ok-name_1.TXT"},
		{"a b c.txt", "a_b_c.txt"},
	}
	for _, tc := range cases {
		if got := sanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
