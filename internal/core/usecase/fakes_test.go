package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/docsage/docsage/internal/core/domain"
)

// Handwritten port fakes shared by the use case tests.

type fakeDocumentStore struct {
	docs       map[string]*domain.Document
	getErr     error
	statusByID map[string][]domain.DocumentStatus
}

func newFakeDocumentStore(docs ...*domain.Document) *fakeDocumentStore {
	f := &fakeDocumentStore{
		docs:       make(map[string]*domain.Document),
		statusByID: make(map[string][]domain.DocumentStatus),
	}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeDocumentStore) Create(_ context.Context, doc *domain.Document) error {
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocumentStore) GetByID(_ context.Context, id string) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", errors.New(id))
	}
	return doc, nil
}

func (f *fakeDocumentStore) UpdateStatus(_ context.Context, id string, status domain.DocumentStatus, errMessage string) error {
	f.statusByID[id] = append(f.statusByID[id], status)
	if doc, ok := f.docs[id]; ok {
		doc.Status = status
		doc.Error = errMessage
	}
	return nil
}

type fakeChunkStore struct {
	chunks        map[string][]domain.Chunk
	countErr      error
	embeddings    bool
	embeddingsErr error

	ranked       []domain.ScoredChunk
	rankedErr    error
	rankedCalls  []domain.TextQuery
	substr       []domain.Chunk
	substrErr    error
	substrCalled bool

	saved map[string][]domain.Chunk
}

func newFakeChunkStore() *fakeChunkStore {
	return &fakeChunkStore{
		chunks:     make(map[string][]domain.Chunk),
		saved:      make(map[string][]domain.Chunk),
		embeddings: true,
	}
}

func (f *fakeChunkStore) SaveChunks(_ context.Context, documentID string, chunks []domain.Chunk) error {
	f.saved[documentID] = chunks
	f.chunks[documentID] = chunks
	return nil
}

func (f *fakeChunkStore) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	return f.chunks[documentID], nil
}

func (f *fakeChunkStore) ChunkCount(_ context.Context, documentID string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.chunks[documentID]), nil
}

func (f *fakeChunkStore) HasEmbeddings(_ context.Context, _ string) (bool, error) {
	if f.embeddingsErr != nil {
		return false, f.embeddingsErr
	}
	return f.embeddings, nil
}

func (f *fakeChunkStore) SearchRanked(_ context.Context, query domain.TextQuery, _ string, _ int) ([]domain.ScoredChunk, error) {
	f.rankedCalls = append(f.rankedCalls, query)
	if f.rankedErr != nil {
		return nil, f.rankedErr
	}
	return f.ranked, nil
}

func (f *fakeChunkStore) SearchSubstring(_ context.Context, _ []string, _ string, _ int) ([]domain.Chunk, error) {
	f.substrCalled = true
	if f.substrErr != nil {
		return nil, f.substrErr
	}
	return f.substr, nil
}

type fakeEmbedder struct {
	vector        []float32
	batchErr      error
	singleErr     error
	truncateBatch bool
	batches       [][]string
	singles       []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.batches = append(f.batches, texts)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	if f.truncateBatch && len(texts) > 1 {
		return make([][]float32, len(texts)-1), nil
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.singles = append(f.singles, text)
	if f.singleErr != nil {
		return nil, f.singleErr
	}
	return f.vector, nil
}

type fakeVectorIndex struct {
	nearest    []domain.ScoredChunk
	nearestErr error
	indexed    []domain.Chunk
	indexErr   error
}

func (f *fakeVectorIndex) IndexChunks(_ context.Context, _ *domain.Document, chunks []domain.Chunk) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	f.indexed = append(f.indexed, chunks...)
	return nil
}

func (f *fakeVectorIndex) Nearest(_ context.Context, _ []float32, _ string, _ int, _ float64) ([]domain.ScoredChunk, error) {
	if f.nearestErr != nil {
		return nil, f.nearestErr
	}
	return f.nearest, nil
}

type fakeGenerator struct {
	text        string
	textErr     error
	grounded    string
	groundedErr error
	sources     []domain.GroundingSource
	prompts     []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.textErr != nil {
		return "", f.textErr
	}
	return f.text, nil
}

func (f *fakeGenerator) GenerateGrounded(_ context.Context, prompt string) (string, []domain.GroundingSource, error) {
	f.prompts = append(f.prompts, prompt)
	if f.groundedErr != nil {
		return "", nil, f.groundedErr
	}
	return f.grounded, f.sources, nil
}

func (f *fakeGenerator) Model() string { return "fake-model" }

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) Extract(_ context.Context, _ *domain.Document) (string, error) {
	return f.text, f.err
}

type fixedChunker struct {
	pieces []string
}

func (f *fixedChunker) Split(string) []string { return f.pieces }

type fakeStorage struct {
	saved map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string][]byte)}
}

func (f *fakeStorage) Save(_ context.Context, key string, data io.Reader) error {
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.saved[key] = raw
	return nil
}

func (f *fakeStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	raw, ok := f.saved[key]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *fakeQueue) SubscribeDocumentIngested(_ context.Context, _ func(context.Context, string) error) error {
	return nil
}
