package usecase

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/core/domain"
	"github.com/docsage/docsage/internal/core/ports"
)

type IngestDocumentUseCase struct {
	documents ports.DocumentStore
	storage   ports.ObjectStorage
	queue     ports.MessageQueue
}

func NewIngestDocumentUseCase(
	documents ports.DocumentStore,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{
		documents: documents,
		storage:   storage,
		queue:     queue,
	}
}

func (uc *IngestDocumentUseCase) Upload(
	ctx context.Context,
	title, filename, mimeType string,
	body io.Reader,
) (*domain.Document, error) {
	id := uuid.NewString()
	storageKey := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	now := time.Now().UTC()

	counted := &countingReader{inner: body}
	if err := uc.storage.Save(ctx, storageKey, counted); err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	if strings.TrimSpace(title) == "" {
		title = filename
	}

	doc := &domain.Document{
		ID:          id,
		Title:       title,
		Filename:    filename,
		MimeType:    mimeType,
		StoragePath: storageKey,
		Metadata: map[string]string{
			"size_bytes": strconv.FormatInt(counted.n, 10),
		},
		Status:    domain.StatusUploaded,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.documents.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.queue.PublishDocumentIngested(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish ingestion event: %w", err)
	}

	return doc, nil
}

type countingReader struct {
	inner io.Reader
	n     int64
}

func (r *countingReader) Read(p []byte) (int, error) {
	n, err := r.inner.Read(p)
	r.n += int64(n)
	return n, err
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
