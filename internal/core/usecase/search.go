package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
	"github.com/docsage/docsage/internal/core/ports"
)

// Query-type cues. Portuguese-first, matching the corpus locale; the
// fact-lookup triggers (postal codes, tax ids, prices, quotations) flag
// queries judged unlikely to be answerable from local chunks alone.
var (
	documentSpecificCues = []string{
		"meu documento", "minha ", "meu ", "este documento", "esse documento",
		"neste documento", "nesse documento", "o documento", "o anexo",
		"no anexo", "this document", "attached", "the document",
	}
	conceptualCues = []string{
		"o que é", "o que são", "o que significa", "defina", "definição de",
		"conceito de", "explique o que", "what is", "what are", "define",
		"meaning of",
	}
	comparativeCues = []string{
		"compare", "comparação", "diferença entre", "diferenças entre",
		"versus", " vs ", "melhor que", "pior que", "difference between",
	}
	factTriggerRE = regexp.MustCompile(`\b(cep|cnpj|cpf|cotação|cotacao)\b`)
	factTriggers  = []string{
		"preço de", "preço do", "preço da", "quanto custa", "valor de mercado",
		"price of", "stock quote",
	}
)

// HybridSearchUseCase decides cache vs. vector vs. full-text vs. external
// grounding and composes the raw answer. Provider errors never escape its
// boundary: they become Success=false results with an _error method suffix.
type HybridSearchUseCase struct {
	embedder  ports.Embedder
	vectorDB  ports.VectorIndex
	chunks    ports.ChunkStore
	generator ports.AnswerGenerator
	logger    *slog.Logger
}

func NewHybridSearchUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorIndex,
	chunks ports.ChunkStore,
	generator ports.AnswerGenerator,
	logger *slog.Logger,
) *HybridSearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &HybridSearchUseCase{
		embedder:  embedder,
		vectorDB:  vectorDB,
		chunks:    chunks,
		generator: generator,
		logger:    logger,
	}
}

func ClassifyQueryType(query string) domain.QueryType {
	lowered := " " + strings.ToLower(query) + " "
	for _, cue := range documentSpecificCues {
		if strings.Contains(lowered, cue) {
			return domain.QueryDocumentSpecific
		}
	}
	for _, cue := range conceptualCues {
		if strings.Contains(lowered, cue) {
			return domain.QueryConceptual
		}
	}
	for _, cue := range comparativeCues {
		if strings.Contains(lowered, cue) {
			return domain.QueryComparative
		}
	}
	return domain.QueryOther
}

func shouldUseGrounding(queryType domain.QueryType, query string, force bool) bool {
	if force {
		return true
	}
	if queryType == domain.QueryConceptual || queryType == domain.QueryComparative {
		return true
	}
	lowered := strings.ToLower(query)
	if factTriggerRE.MatchString(lowered) {
		return true
	}
	for _, trigger := range factTriggers {
		if strings.Contains(lowered, trigger) {
			return true
		}
	}
	return false
}

func (uc *HybridSearchUseCase) Search(
	ctx context.Context,
	query, documentID string,
	topK int,
	threshold float64,
	forceGrounding bool,
) *domain.RetrievalResult {
	start := time.Now()
	queryType := ClassifyQueryType(query)

	var result *domain.RetrievalResult
	if shouldUseGrounding(queryType, query, forceGrounding) {
		result = uc.searchWithGroundingFallback(ctx, query, documentID, topK, threshold)
	} else {
		result = uc.searchDocumentsOnly(ctx, query, documentID, topK, threshold)
	}

	result.QueryType = queryType
	result.ExecutionTime = time.Since(start)
	return result
}

// searchWithGroundingFallback prefers local documents: grounding runs only
// when the local cascade finds zero chunks.
func (uc *HybridSearchUseCase) searchWithGroundingFallback(
	ctx context.Context,
	query, documentID string,
	topK int,
	threshold float64,
) *domain.RetrievalResult {
	local := uc.searchDocumentsOnly(ctx, query, documentID, topK, threshold)
	if local.ChunksFound > 0 {
		return local
	}

	answer, sources, err := uc.generator.GenerateGrounded(ctx, buildGroundedPrompt(query))
	if err != nil {
		uc.logger.Warn("grounded_generation_failed", "error", err)
		return &domain.RetrievalResult{
			Success:      false,
			Method:       domain.MethodGrounding.WithErrorSuffix(),
			ErrorMessage: err.Error(),
		}
	}
	return &domain.RetrievalResult{
		Success:          true,
		Answer:           answer,
		Method:           domain.MethodGrounding,
		LLMUsed:          uc.generator.Model(),
		GroundingSources: sources,
	}
}

// searchDocumentsOnly runs the vector → full-text cascade and synthesizes
// a direct answer from the found chunks.
func (uc *HybridSearchUseCase) searchDocumentsOnly(
	ctx context.Context,
	query, documentID string,
	topK int,
	threshold float64,
) *domain.RetrievalResult {
	chunks, method := uc.retrieveChunks(ctx, query, documentID, topK, threshold)
	if len(chunks) == 0 {
		return &domain.RetrievalResult{
			Success:     false,
			ChunksFound: 0,
			Method:      method,
		}
	}

	context_ := CombineChunks(chunks)
	answer, err := uc.generator.GenerateText(ctx, buildAnswerPrompt(query, context_))
	if err != nil {
		uc.logger.Warn("answer_generation_failed", "method", method, "error", err)
		// Retrieval succeeded: keep the sources in the degraded result.
		return &domain.RetrievalResult{
			Success:      false,
			Chunks:       chunks,
			ChunksFound:  len(chunks),
			Method:       method.WithErrorSuffix(),
			ErrorMessage: err.Error(),
		}
	}

	return &domain.RetrievalResult{
		Success:     true,
		Chunks:      chunks,
		ChunksFound: len(chunks),
		Answer:      answer,
		Method:      method,
		LLMUsed:     uc.generator.Model(),
	}
}

func (uc *HybridSearchUseCase) retrieveChunks(
	ctx context.Context,
	query, documentID string,
	topK int,
	threshold float64,
) ([]domain.ScoredChunk, domain.SearchMethod) {
	chunks := uc.vectorSearch(ctx, query, documentID, topK, threshold)
	if len(chunks) > 0 {
		return chunks, domain.MethodVector
	}
	return uc.ftsSearch(ctx, query, documentID, topK), domain.MethodFTS
}

func (uc *HybridSearchUseCase) vectorSearch(
	ctx context.Context,
	query, documentID string,
	topK int,
	threshold float64,
) []domain.ScoredChunk {
	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		uc.logger.Warn("query_embedding_failed", "error", err)
		return nil
	}
	chunks, err := uc.vectorDB.Nearest(ctx, vector, documentID, topK, threshold)
	if err != nil {
		uc.logger.Warn("vector_search_failed", "error", err)
		return nil
	}
	return chunks
}

// ftsSearch tries ranked strategies in order — AND of important tokens,
// AND of the first two important tokens, OR of all tokens — stopping at
// the first that returns results, and degrades to substring matching when
// the store reports ranked search unavailable.
func (uc *HybridSearchUseCase) ftsSearch(ctx context.Context, query, documentID string, topK int) []domain.ScoredChunk {
	tokens := TokenizeQuery(query)
	if len(tokens) == 0 {
		return nil
	}
	important := ImportantTokens(tokens)

	strategies := make([]domain.TextQuery, 0, 3)
	if len(important) > 0 {
		strategies = append(strategies, domain.TextQuery{Tokens: important, Operator: domain.TextQueryAnd})
	}
	if len(important) >= 2 {
		strategies = append(strategies, domain.TextQuery{Tokens: important[:2], Operator: domain.TextQueryAnd})
	}
	strategies = append(strategies, domain.TextQuery{Tokens: tokens, Operator: domain.TextQueryOr})

	for _, strategy := range strategies {
		chunks, err := uc.chunks.SearchRanked(ctx, strategy, documentID, topK)
		if err != nil {
			if domain.IsKind(err, domain.ErrRankedSearchOff) {
				return uc.substringSearch(ctx, tokens, documentID, topK)
			}
			uc.logger.Warn("ranked_search_failed", "operator", strategy.Operator, "error", err)
			continue
		}
		if len(chunks) > 0 {
			return chunks
		}
	}
	return nil
}

// substringSearch requires every token to appear and scores by the
// fraction of tokens matched, using content length as a relevance proxy
// for ties.
func (uc *HybridSearchUseCase) substringSearch(ctx context.Context, tokens []string, documentID string, topK int) []domain.ScoredChunk {
	found, err := uc.chunks.SearchSubstring(ctx, tokens, documentID, topK)
	if err != nil {
		uc.logger.Warn("substring_search_failed", "error", err)
		return nil
	}

	scored := make([]domain.ScoredChunk, 0, len(found))
	for _, chunk := range found {
		lowered := strings.ToLower(chunk.Content)
		matched := 0
		for _, token := range tokens {
			if strings.Contains(lowered, token) {
				matched++
			}
		}
		scored = append(scored, domain.ScoredChunk{
			Chunk: chunk,
			Score: float64(matched) / float64(len(tokens)),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return len(scored[i].Chunk.Content) < len(scored[j].Chunk.Content)
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored
}

func buildAnswerPrompt(question, context string) string {
	return fmt.Sprintf(`Responda à pergunta usando apenas o contexto abaixo.
Se o contexto for insuficiente, diga isso diretamente.

Pergunta:
%s

Contexto:
%s
`, question, context)
}

func buildGroundedPrompt(question string) string {
	return fmt.Sprintf(`Responda à pergunta usando conhecimento geral.
Liste as fontes consultadas ao final, uma por linha, no formato "FONTE: título | url".

Pergunta:
%s
`, question)
}
