package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docsage/docsage/internal/core/domain"
	"github.com/docsage/docsage/internal/core/ports"
)

const DefaultEmbedBatchSize = 100

// IndexDocumentUseCase turns an uploaded document into retrievable chunks:
// extract text, split, embed in fixed-size batches, persist chunks and
// vectors. A failing batch is retried item by item so partial progress is
// preserved chunk-by-chunk.
type IndexDocumentUseCase struct {
	documents ports.DocumentStore
	chunkRepo ports.ChunkStore
	extractor ports.TextExtractor
	chunker   ports.Chunker
	embedder  ports.Embedder
	vectorDB  ports.VectorIndex
	batchSize int
	logger    *slog.Logger
}

func NewIndexDocumentUseCase(
	documents ports.DocumentStore,
	chunkRepo ports.ChunkStore,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	embedder ports.Embedder,
	vectorDB ports.VectorIndex,
	batchSize int,
	logger *slog.Logger,
) *IndexDocumentUseCase {
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexDocumentUseCase{
		documents: documents,
		chunkRepo: chunkRepo,
		extractor: extractor,
		chunker:   chunker,
		embedder:  embedder,
		vectorDB:  vectorDB,
		batchSize: batchSize,
		logger:    logger,
	}
}

func (uc *IndexDocumentUseCase) IndexByID(ctx context.Context, documentID string) error {
	if err := uc.documents.UpdateStatus(ctx, documentID, domain.StatusIndexing, ""); err != nil {
		return fmt.Errorf("set status=indexing: %w", err)
	}

	if err := uc.indexPipeline(ctx, documentID); err != nil {
		if failErr := uc.documents.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.documents.UpdateStatus(ctx, documentID, domain.StatusReady, ""); err != nil {
		return fmt.Errorf("set status=ready: %w", err)
	}
	return nil
}

func (uc *IndexDocumentUseCase) indexPipeline(ctx context.Context, documentID string) error {
	doc, err := uc.documents.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	pieces := uc.chunker.Split(text)
	if len(pieces) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, domain.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Ordinal:    i,
			Content:    piece,
		})
	}

	uc.embedChunks(ctx, chunks)

	if err := uc.chunkRepo.SaveChunks(ctx, doc.ID, chunks); err != nil {
		return fmt.Errorf("persist chunks: %w", err)
	}

	embedded := make([]domain.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.HasEmbedding() {
			embedded = append(embedded, chunk)
		}
	}
	if len(embedded) > 0 {
		if err := uc.vectorDB.IndexChunks(ctx, doc, embedded); err != nil {
			return fmt.Errorf("index chunks in vector db: %w", err)
		}
	}
	return nil
}

// embedChunks fills embeddings in place. Embedding failures never abort the
// whole job: chunks left without a vector stay retrievable via full text.
func (uc *IndexDocumentUseCase) embedChunks(ctx context.Context, chunks []domain.Chunk) {
	for start := 0; start < len(chunks); start += uc.batchSize {
		end := start + uc.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i := range batch {
			texts[i] = batch[i].Content
		}

		vectors, err := uc.embedder.Embed(ctx, texts)
		if err == nil && len(vectors) == len(batch) {
			for i := range batch {
				batch[i].Embedding = vectors[i]
			}
			continue
		}
		if err != nil {
			uc.logger.Warn("embed_batch_failed", "batch_start", start, "batch_size", len(batch), "error", err)
		} else {
			uc.logger.Warn("embed_batch_mismatch", "batch_start", start, "want", len(batch), "got", len(vectors))
		}

		uc.embedIndividually(ctx, batch)
	}
}

func (uc *IndexDocumentUseCase) embedIndividually(ctx context.Context, batch []domain.Chunk) {
	for i := range batch {
		vector, err := uc.embedder.EmbedQuery(ctx, batch[i].Content)
		if err != nil {
			uc.logger.Warn("embed_chunk_failed", "chunk_id", batch[i].ID, "error", err)
			continue
		}
		batch[i].Embedding = vector
	}
}
