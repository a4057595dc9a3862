package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
)

type answerEnv struct {
	docs      *fakeDocumentStore
	chunks    *fakeChunkStore
	embedder  *fakeEmbedder
	vectors   *fakeVectorIndex
	generator *fakeGenerator
	backend   *fakeCacheBackend
	uc        *AnswerUseCase
}

func newAnswerEnv(docs ...*domain.Document) *answerEnv {
	env := &answerEnv{
		docs:      newFakeDocumentStore(docs...),
		chunks:    newFakeChunkStore(),
		embedder:  &fakeEmbedder{vector: []float32{0.1}},
		vectors:   &fakeVectorIndex{},
		generator: &fakeGenerator{text: "resposta gerada"},
		backend:   newFakeCacheBackend(),
	}
	env.uc = NewAnswerUseCase(
		NewPreValidator(env.docs, env.chunks, nil),
		NewAnswerCache(env.backend, time.Hour, nil),
		NewHybridSearchUseCase(env.embedder, env.vectors, env.chunks, env.generator, nil),
		env.chunks,
		nil,
	)
	return env
}

func TestAnswerValidationFailureIsStructuredNotError(t *testing.T) {
	env := newAnswerEnv()

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		Query:  "",
		Params: domain.QueryParams{Mode: domain.ModeDirect},
	})
	if err != nil {
		t.Fatalf("validation failures are structured responses, not errors: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected structured failure")
	}
	if !hasIssue(resp.Errors, domain.CodeEmptyQuery) {
		t.Fatalf("expected empty_query in response errors, got %+v", resp.Errors)
	}
	if resp.ModeUsed != domain.ModeDirect {
		t.Fatalf("unexpected mode %q", resp.ModeUsed)
	}
}

func TestAnswerSuccessWritesCache(t *testing.T) {
	env := newAnswerEnv()
	env.vectors.nearest = scoredChunks("A multa é de 2% ao mês.")

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		Query:  "valor multa contrato",
		Params: domain.QueryParams{Mode: domain.ModeDirect},
	})
	if err != nil || !resp.Success {
		t.Fatalf("expected success, got resp=%+v err=%v", resp, err)
	}
	if resp.SearchMethod != domain.MethodVector {
		t.Fatalf("expected vector method, got %q", resp.SearchMethod)
	}
	if len(env.backend.entries) != 1 {
		t.Fatalf("successful answers must be cached, got %d entries", len(env.backend.entries))
	}
}

func TestAnswerSecondCallHitsCache(t *testing.T) {
	env := newAnswerEnv()
	env.vectors.nearest = scoredChunks("A multa é de 2% ao mês.")
	req := domain.AnswerRequest{
		Query:  "valor multa contrato",
		Params: domain.QueryParams{Mode: domain.ModeDirect},
	}

	if _, err := env.uc.Answer(context.Background(), req); err != nil {
		t.Fatalf("first call: %v", err)
	}
	generations := len(env.generator.prompts)

	resp, err := env.uc.Answer(context.Background(), req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !resp.CacheHit || resp.CacheLevel != CacheLevelL1 {
		t.Fatalf("expected L1 hit, got hit=%v level=%q", resp.CacheHit, resp.CacheLevel)
	}
	if resp.SearchMethod != domain.MethodCache {
		t.Fatalf("cache hits must report the cache method, got %q", resp.SearchMethod)
	}
	if len(env.generator.prompts) != generations {
		t.Fatalf("cache hit must not reach the generator")
	}
}

func TestAnswerBlankSummaryQuerySynthesized(t *testing.T) {
	env := newAnswerEnv()
	env.vectors.nearest = scoredChunks("O contrato trata de prazos, multas e renovação automática.")
	env.generator.text = "- prazos de entrega\n- multa de 2%\n- renovação automática"

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		Params: domain.QueryParams{Mode: domain.ModeSummary},
	})
	if err != nil || !resp.Success {
		t.Fatalf("expected success, got resp=%+v err=%v", resp, err)
	}
	if resp.ModeUsed != domain.ModeSummary {
		t.Fatalf("unexpected mode %q", resp.ModeUsed)
	}
	if len(env.embedder.singles) == 0 || env.embedder.singles[0] != defaultSummaryQuery {
		t.Fatalf("blank query must be synthesized for summary mode, got %v", env.embedder.singles)
	}
	if resp.FallbackApplied {
		t.Fatalf("three generated bullets need no fallback")
	}
}

func TestAnswerModeDetectedFromQuery(t *testing.T) {
	env := newAnswerEnv()
	env.vectors.nearest = scoredChunks("O contrato trata de prazos, multas e renovação automática.")
	env.generator.text = "- prazos\n- multas\n- renovação"

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		Query: "faça um resumo do contrato de prestação",
	})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if resp.ModeUsed != domain.ModeSummary {
		t.Fatalf("query hint should select summary mode, got %q", resp.ModeUsed)
	}
}

func TestAnswerGenerationFailureIsStructured(t *testing.T) {
	env := newAnswerEnv()
	env.vectors.nearest = scoredChunks("A multa é de 2% ao mês.")
	env.generator.textErr = errors.New("timeout")

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		Query:  "valor multa contrato",
		Params: domain.QueryParams{Mode: domain.ModeDirect},
	})
	if err != nil {
		t.Fatalf("provider failures are structured responses: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected structured failure")
	}
	if resp.SearchMethod != domain.SearchMethod("vector_error") {
		t.Fatalf("expected vector_error method, got %q", resp.SearchMethod)
	}
	if len(resp.Errors) == 0 || resp.Errors[0].Message != "timeout" {
		t.Fatalf("provider error must surface in the response, got %+v", resp.Errors)
	}
	if len(env.backend.entries) != 0 {
		t.Fatalf("failed answers must not be cached")
	}
	if resp.Answer == "" {
		t.Fatalf("guard must still produce a non-empty answer")
	}
}

func TestAnswerFullDocumentMode(t *testing.T) {
	doc := &domain.Document{ID: "doc-1", Title: "Contrato"}
	env := newAnswerEnv(doc)
	env.chunks.chunks["doc-1"] = []domain.Chunk{
		{ID: "a", Ordinal: 0, Content: "Cláusula primeira."},
		{ID: "b", Ordinal: 1, Content: "Cláusula segunda."},
		{ID: "c", Ordinal: 2, Content: "Cláusula terceira."},
	}

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		DocumentID: "doc-1",
		Params:     domain.QueryParams{Mode: domain.ModeFullDocument},
	})
	if err != nil || !resp.Success {
		t.Fatalf("expected success, got resp=%+v err=%v", resp, err)
	}
	if resp.ModeUsed != domain.ModeFullDocument {
		t.Fatalf("unexpected mode %q", resp.ModeUsed)
	}
	if !strings.Contains(resp.Answer, "Cláusula primeira.") || !strings.Contains(resp.Answer, "Cláusula terceira.") {
		t.Fatalf("full document answer must carry the chunk text: %q", resp.Answer)
	}
	if len(env.generator.prompts) != 0 {
		t.Fatalf("full document mode bypasses generation")
	}
}

func TestAnswerSourcesRespectCitationLimit(t *testing.T) {
	env := newAnswerEnv()
	env.vectors.nearest = scoredChunks(
		"trecho um", "trecho dois", "trecho três", "trecho quatro", "trecho cinco",
	)

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		Query:  "valor multa contrato",
		Params: domain.QueryParams{Mode: domain.ModeDirect},
	})
	if err != nil || !resp.Success {
		t.Fatalf("expected success, got resp=%+v err=%v", resp, err)
	}
	if len(resp.Sources) != 3 {
		t.Fatalf("default citation cap is 3, got %d sources", len(resp.Sources))
	}
}

func TestAnswerEmptyCorpusListQueryFallsBack(t *testing.T) {
	env := newAnswerEnv()

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		Query: "liste os documentos anexados",
	})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !resp.Success {
		t.Fatalf("an empty corpus is not a failure, got %+v", resp)
	}
	if resp.ModeUsed != domain.ModeList {
		t.Fatalf("query hint should select list mode, got %q", resp.ModeUsed)
	}
	if strings.TrimSpace(resp.Answer) == "" {
		t.Fatalf("answer must never be empty")
	}
	if !resp.FallbackApplied {
		t.Fatalf("placeholder list must be flagged as fallback")
	}
}

func TestAnswerNegativeCitationsYieldNoSources(t *testing.T) {
	env := newAnswerEnv()
	env.vectors.nearest = scoredChunks("trecho um", "trecho dois")

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		Query:  "valor multa contrato",
		Params: domain.QueryParams{Mode: domain.ModeDirect, MaxCitations: -1},
	})
	if err != nil || !resp.Success {
		t.Fatalf("expected success, got resp=%+v err=%v", resp, err)
	}
	if len(resp.Sources) != 0 {
		t.Fatalf("negative max_citations requests no sources, got %d", len(resp.Sources))
	}
}

func TestAnswerWarningsPropagate(t *testing.T) {
	env := newAnswerEnv()
	env.vectors.nearest = scoredChunks("A multa é de 2% ao mês.")

	resp, err := env.uc.Answer(context.Background(), domain.AnswerRequest{
		Query:  "me fale sobre multas",
		Params: domain.QueryParams{Mode: domain.ModeDirect},
	})
	if err != nil || !resp.Success {
		t.Fatalf("expected success, got resp=%+v err=%v", resp, err)
	}
	if !hasIssue(resp.Warnings, domain.CodeGenericQueryWarning) {
		t.Fatalf("validation warnings must propagate to the response, got %+v", resp.Warnings)
	}
}

func TestAnswerClearCacheDelegates(t *testing.T) {
	env := newAnswerEnv()
	env.backend.entries["k"] = []byte("{}")

	n, err := env.uc.ClearCache(context.Background(), "*")
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 cleared entry, got %d", n)
	}
}
