package ports

import (
	"context"
	"io"

	"github.com/docsage/docsage/internal/core/domain"
)

// AnswerService is the single inbound contract of the answer pipeline.
// The returned response is always structured; failures are encoded in it.
type AnswerService interface {
	Answer(ctx context.Context, req domain.AnswerRequest) (*domain.FormattedResponse, error)
	ClearCache(ctx context.Context, pattern string) (int, error)
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, title, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentIndexer is the inbound contract for asynchronous indexing.
type DocumentIndexer interface {
	IndexByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
