package ports

import (
	"context"
	"io"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
)

// DocumentStore persists and reads document metadata.
type DocumentStore interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
}

// ChunkStore persists chunks and serves full-text retrieval over them.
// SearchRanked returns domain.ErrRankedSearchOff when the backing store
// cannot run ranked text queries; callers degrade to SearchSubstring.
type ChunkStore interface {
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)
	ChunkCount(ctx context.Context, documentID string) (int, error)
	HasEmbeddings(ctx context.Context, documentID string) (bool, error)
	SearchRanked(ctx context.Context, query domain.TextQuery, documentID string, limit int) ([]domain.ScoredChunk, error)
	SearchSubstring(ctx context.Context, tokens []string, documentID string, limit int) ([]domain.Chunk, error)
}

// VectorIndex performs nearest-neighbor retrieval over chunk embeddings.
type VectorIndex interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) error
	Nearest(ctx context.Context, queryVector []float32, documentID string, topK int, threshold float64) ([]domain.ScoredChunk, error)
}

// Embedder builds vectors for chunks and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerGenerator creates answer text from local context or, when grounding
// is requested, from general knowledge with cited sources.
type AnswerGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateGrounded(ctx context.Context, prompt string) (string, []domain.GroundingSource, error)
	Model() string
}

// CacheBackend is the tier-agnostic byte cache. Get returns
// domain.ErrCacheMiss for absent or expired entries.
type CacheBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context, pattern string) (int, error)
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes document-indexing events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits text into retrieval-sized chunks.
type Chunker interface {
	Split(text string) []string
}
