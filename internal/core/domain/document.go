package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded DocumentStatus = "uploaded"
	StatusIndexing DocumentStatus = "indexing"
	StatusReady    DocumentStatus = "ready"
	StatusFailed   DocumentStatus = "failed"
)

type Document struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Filename    string            `json:"filename"`
	MimeType    string            `json:"mime_type"`
	StoragePath string            `json:"storage_path"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Status      DocumentStatus    `json:"status"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Chunk is the stored, ordered retrieval atom of a document. Ordinal defines
// a total order within the document and is used for windowed reconstruction.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Ordinal    int       `json:"ordinal"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
}

func (c Chunk) HasEmbedding() bool {
	return len(c.Embedding) > 0
}
