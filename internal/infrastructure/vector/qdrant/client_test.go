package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/docsage/docsage/internal/core/domain"
)

func TestIndexChunksCreatesCollectionAndUpserts(t *testing.T) {
	var requests []string
	var upsert struct {
		Points []struct {
			ID      string         `json:"id"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"points"`
	}
	var create struct {
		Vectors struct {
			Size     int    `json:"size"`
			Distance string `json:"distance"`
		} `json:"vectors"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/collections/docs":
			_ = json.NewDecoder(r.Body).Decode(&create)
			w.WriteHeader(http.StatusOK)
		case "/collections/docs/points":
			if r.URL.Query().Get("wait") != "true" {
				t.Errorf("upsert must wait for durability")
			}
			_ = json.NewDecoder(r.Body).Decode(&upsert)
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := New(server.URL, "docs")
	doc := &domain.Document{ID: "doc-1", Title: "Contrato"}
	err := c.IndexChunks(context.Background(), doc, []domain.Chunk{
		{ID: "c1", DocumentID: "doc-1", Ordinal: 0, Content: "texto", Embedding: []float32{0.1, 0.2}},
		{ID: "c2", DocumentID: "doc-1", Ordinal: 1, Content: "sem vetor"},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	if len(requests) != 2 || requests[0] != "PUT /collections/docs" || requests[1] != "PUT /collections/docs/points" {
		t.Fatalf("unexpected request sequence: %v", requests)
	}
	if create.Vectors.Size != 2 || create.Vectors.Distance != "Cosine" {
		t.Fatalf("unexpected collection config: %+v", create.Vectors)
	}
	if len(upsert.Points) != 1 {
		t.Fatalf("chunks without embeddings must be skipped, got %d points", len(upsert.Points))
	}
	p := upsert.Points[0]
	if p.ID != "c1" || p.Payload["doc_id"] != "doc-1" || p.Payload["title"] != "Contrato" {
		t.Fatalf("unexpected point: %+v", p)
	}
}

func TestIndexChunksCollectionConflictIsOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/docs" {
			w.WriteHeader(http.StatusConflict)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "docs")
	err := c.IndexChunks(context.Background(), &domain.Document{ID: "d"}, []domain.Chunk{
		{ID: "c1", DocumentID: "d", Content: "x", Embedding: []float32{0.1}},
	})
	if err != nil {
		t.Fatalf("existing collection must not fail the upsert: %v", err)
	}
}

func TestIndexChunksEnsuresCollectionOnce(t *testing.T) {
	var ensures int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/docs" {
			ensures++
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := New(server.URL, "docs")
	chunk := domain.Chunk{ID: "c1", DocumentID: "d", Content: "x", Embedding: []float32{0.1}}
	for i := 0; i < 3; i++ {
		if err := c.IndexChunks(context.Background(), &domain.Document{ID: "d"}, []domain.Chunk{chunk}); err != nil {
			t.Fatalf("index %d: %v", i, err)
		}
	}
	if ensures != 1 {
		t.Fatalf("collection must be ensured once per size, got %d", ensures)
	}
}

func TestNearestSendsFilterAndThreshold(t *testing.T) {
	var search map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/docs/points/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&search)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{
				{
					"score": 0.91,
					"payload": map[string]any{
						"chunk_id": "c1",
						"doc_id":   "doc-1",
						"ordinal":  float64(3),
						"content":  "trecho",
					},
				},
			},
		})
	}))
	defer server.Close()

	c := New(server.URL, "docs")
	out, err := c.Nearest(context.Background(), []float32{0.1}, "doc-1", 5, 0.5)
	if err != nil {
		t.Fatalf("nearest: %v", err)
	}

	if search["score_threshold"] != 0.5 {
		t.Fatalf("threshold missing from request: %v", search)
	}
	if search["limit"] != float64(5) || search["with_payload"] != true {
		t.Fatalf("unexpected search body: %v", search)
	}
	filter, ok := search["filter"].(map[string]any)
	if !ok {
		t.Fatalf("document scope must become a filter: %v", search)
	}
	must := filter["must"].([]any)[0].(map[string]any)
	if must["key"] != "doc_id" {
		t.Fatalf("unexpected filter clause: %v", must)
	}

	if len(out) != 1 {
		t.Fatalf("expected 1 result, got %d", len(out))
	}
	got := out[0]
	if got.Score != 0.91 || got.Chunk.ID != "c1" || got.Chunk.Ordinal != 3 || got.Chunk.Content != "trecho" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestNearestOmitsOptionalClauses(t *testing.T) {
	var search map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&search)
		_ = json.NewEncoder(w).Encode(map[string]any{"result": []any{}})
	}))
	defer server.Close()

	c := New(server.URL, "docs")
	if _, err := c.Nearest(context.Background(), []float32{0.1}, "", 5, 0); err != nil {
		t.Fatalf("nearest: %v", err)
	}
	if _, ok := search["filter"]; ok {
		t.Fatalf("global search must not carry a filter")
	}
	if _, ok := search["score_threshold"]; ok {
		t.Fatalf("zero threshold must be omitted")
	}
}

func TestNearestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, "docs")
	if _, err := c.Nearest(context.Background(), []float32{0.1}, "", 5, 0); err == nil {
		t.Fatalf("expected error on 5xx")
	}
}
