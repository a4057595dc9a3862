package postgres

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/docsage/docsage/internal/core/domain"
)

// ChunkRepository persists chunks and serves the full-text side of the
// retrieval cascade. Ranked search can be disabled for deployments whose
// chunks table predates the tsvector column; callers then degrade to
// substring matching.
type ChunkRepository struct {
	db            *sql.DB
	rankedEnabled bool
}

func NewChunkRepository(db *sql.DB, rankedEnabled bool) *ChunkRepository {
	return &ChunkRepository{db: db, rankedEnabled: rankedEnabled}
}

func (r *ChunkRepository) SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunks tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Re-indexing replaces the document's chunk set wholesale.
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete stale chunks: %w", err)
	}

	const insert = `
INSERT INTO chunks (id, document_id, ordinal, content, embedding)
VALUES ($1,$2,$3,$4,$5)
`
	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, insert,
			chunk.ID, documentID, chunk.Ordinal, chunk.Content, encodeEmbedding(chunk.Embedding),
		); err != nil {
			return fmt.Errorf("insert chunk ordinal=%d: %w", chunk.Ordinal, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit chunks tx: %w", err)
	}
	return nil
}

func (r *ChunkRepository) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, ordinal, content, embedding
FROM chunks
WHERE document_id = $1
ORDER BY ordinal
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}
	return chunks, nil
}

func (r *ChunkRepository) ChunkCount(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM chunks WHERE document_id = $1`, documentID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count chunks: %w", err)
	}
	return count, nil
}

func (r *ChunkRepository) HasEmbeddings(ctx context.Context, documentID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM chunks WHERE document_id = $1 AND embedding IS NOT NULL)`,
		documentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check embeddings: %w", err)
	}
	return exists, nil
}

func (r *ChunkRepository) SearchRanked(ctx context.Context, query domain.TextQuery, documentID string, limit int) ([]domain.ScoredChunk, error) {
	if !r.rankedEnabled {
		return nil, domain.ErrRankedSearchOff
	}
	if len(query.Tokens) == 0 {
		return nil, nil
	}

	joiner := " & "
	if query.Operator == domain.TextQueryOr {
		joiner = " | "
	}
	tsquery := strings.Join(query.Tokens, joiner)

	sqlQuery := `
SELECT c.id, c.document_id, c.ordinal, c.content, c.embedding,
       ts_rank(c.tsv, q.query) AS rank
FROM chunks c, to_tsquery('portuguese', $1) q(query)
WHERE c.tsv @@ q.query
`
	args := []any{tsquery}
	if documentID != "" {
		sqlQuery += ` AND c.document_id = $2`
		args = append(args, documentID)
	}
	sqlQuery += fmt.Sprintf(` ORDER BY rank DESC LIMIT %d`, limit)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("ranked search: %w", err)
	}
	defer rows.Close()

	var out []domain.ScoredChunk
	for rows.Next() {
		var chunk domain.Chunk
		var raw []byte
		var rank float64
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Ordinal, &chunk.Content, &raw, &rank); err != nil {
			return nil, fmt.Errorf("scan ranked chunk: %w", err)
		}
		chunk.Embedding = decodeEmbedding(raw)
		out = append(out, domain.ScoredChunk{Chunk: chunk, Score: rank})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked chunks: %w", err)
	}
	return out, nil
}

func (r *ChunkRepository) SearchSubstring(ctx context.Context, tokens []string, documentID string, limit int) ([]domain.Chunk, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	var conditions []string
	var args []any
	for _, token := range tokens {
		args = append(args, "%"+token+"%")
		conditions = append(conditions, fmt.Sprintf("content ILIKE $%d", len(args)))
	}

	sqlQuery := `
SELECT id, document_id, ordinal, content, embedding
FROM chunks
WHERE ` + strings.Join(conditions, " AND ")
	if documentID != "" {
		args = append(args, documentID)
		sqlQuery += fmt.Sprintf(" AND document_id = $%d", len(args))
	}
	sqlQuery += fmt.Sprintf(" ORDER BY length(content) LIMIT %d", limit)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	defer rows.Close()

	var out []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate substring chunks: %w", err)
	}
	return out, nil
}

func scanChunk(rows *sql.Rows) (domain.Chunk, error) {
	var chunk domain.Chunk
	var raw []byte
	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Ordinal, &chunk.Content, &raw); err != nil {
		return domain.Chunk{}, fmt.Errorf("scan chunk: %w", err)
	}
	chunk.Embedding = decodeEmbedding(raw)
	return chunk, nil
}

// Embeddings are stored as little-endian float32 BYTEA; the vector index
// owns the searchable copy, this one supports re-indexing and inspection.
func encodeEmbedding(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	out := make([]byte, 0, len(vector)*4)
	for _, v := range vector {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

func decodeEmbedding(raw []byte) []float32 {
	if len(raw) == 0 || len(raw)%4 != 0 {
		return nil
	}
	out := make([]float32, 0, len(raw)/4)
	for i := 0; i < len(raw); i += 4 {
		out = append(out, math.Float32frombits(binary.LittleEndian.Uint32(raw[i:i+4])))
	}
	return out
}
