package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
	"github.com/docsage/docsage/internal/core/ports"
)

// Default queries synthesized when the mode allows a blank query.
const (
	defaultSummaryQuery = "resumo do documento"
	defaultFullDocQuery = "conteúdo completo do documento"
)

// AnswerUseCase is the answer pipeline: validate → normalize/detect →
// cache probe → hybrid retrieval → extract → guard → format → cache write.
// It always returns a structured response; the error return is reserved
// for caller cancellation.
type AnswerUseCase struct {
	validator *PreValidator
	cache     *AnswerCache
	search    *HybridSearchUseCase
	chunks    ports.ChunkStore
	logger    *slog.Logger
}

func NewAnswerUseCase(
	validator *PreValidator,
	cache *AnswerCache,
	search *HybridSearchUseCase,
	chunks ports.ChunkStore,
	logger *slog.Logger,
) *AnswerUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnswerUseCase{
		validator: validator,
		cache:     cache,
		search:    search,
		chunks:    chunks,
		logger:    logger,
	}
}

func (uc *AnswerUseCase) Answer(ctx context.Context, req domain.AnswerRequest) (*domain.FormattedResponse, error) {
	start := time.Now()

	params := NormalizeParams(req.Params)
	mode := DetectMode(params.Mode, req.Query)
	params.Mode = mode

	validation := uc.validator.Validate(ctx, req.Query, req.DocumentID, mode)
	if !validation.Valid {
		return &domain.FormattedResponse{
			Success:       false,
			ModeUsed:      mode,
			Format:        params.Format,
			Errors:        validation.Errors,
			Warnings:      validation.Warnings,
			Suggestions:   validation.Suggestions(),
			ExecutionTime: time.Since(start),
		}, nil
	}

	query := strings.TrimSpace(req.Query)
	if query == "" {
		query = synthesizeQuery(mode)
	}

	if cached, ok := uc.cache.Get(ctx, query, req.DocumentID, params); ok {
		cached.SearchMethod = domain.MethodCache
		cached.ExecutionTime = time.Since(start)
		return cached, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	response := uc.buildAnswer(ctx, query, req, params, mode)
	response.Warnings = validation.Warnings
	response.ExecutionTime = time.Since(start)

	if response.Success {
		// Let an in-flight write finish even if the caller aborts, so an
		// identical future query is not poisoned by a half-formed entry.
		writeCtx := context.WithoutCancel(ctx)
		if err := uc.cache.Set(writeCtx, query, req.DocumentID, params, response, 0); err != nil {
			uc.logger.Warn("cache_write_failed", "error", err)
		}
	}

	return response, nil
}

func (uc *AnswerUseCase) ClearCache(ctx context.Context, pattern string) (int, error) {
	return uc.cache.Clear(ctx, pattern)
}

func (uc *AnswerUseCase) buildAnswer(
	ctx context.Context,
	query string,
	req domain.AnswerRequest,
	params domain.QueryParams,
	mode domain.AnswerMode,
) *domain.FormattedResponse {
	if mode == domain.ModeFullDocument && req.DocumentID != "" {
		return uc.buildFullDocumentAnswer(ctx, req.DocumentID, params)
	}

	result := uc.search.Search(ctx, query, req.DocumentID, params.TopK, params.Threshold, req.ForceGrounding)
	guarded := guardForMode(mode, result)

	response := &domain.FormattedResponse{
		Success:         result.ErrorMessage == "",
		Answer:          FormatContent(guarded.Content, params.Format),
		Sources:         collectSources(result, params.MaxCitations),
		ModeUsed:        mode,
		Format:          params.Format,
		SearchMethod:    result.Method,
		LLMUsed:         result.LLMUsed,
		FallbackApplied: guarded.FallbackApplied,
	}
	if result.ErrorMessage != "" {
		response.Errors = append(response.Errors, domain.ValidationIssue{
			Code:    domain.CodeStoreDegraded,
			Message: result.ErrorMessage,
		})
	}
	return response
}

func (uc *AnswerUseCase) buildFullDocumentAnswer(ctx context.Context, documentID string, params domain.QueryParams) *domain.FormattedResponse {
	chunks, err := uc.chunks.GetChunks(ctx, documentID)
	if err != nil {
		uc.logger.Warn("full_document_read_failed", "document_id", documentID, "error", err)
	}

	parts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		parts = append(parts, chunk.Content)
	}
	guarded := GuardFullDocument(strings.Join(parts, "\n\n"))

	return &domain.FormattedResponse{
		Success:         true,
		Answer:          FormatContent(guarded.Content, params.Format),
		ModeUsed:        domain.ModeFullDocument,
		Format:          params.Format,
		SearchMethod:    domain.MethodFTS,
		FallbackApplied: guarded.FallbackApplied,
	}
}

// guardForMode runs the mode's extractor/guard pair over the retrieval
// outcome. Extractors read the combined chunk text; the direct and summary
// modes consume the generated answer first.
func guardForMode(mode domain.AnswerMode, result *domain.RetrievalResult) domain.GuardedAnswer {
	switch mode {
	case domain.ModeSummary:
		return GuardSummary(bulletsFromAnswer(result.Answer), result.Chunks)
	case domain.ModeQuote:
		quote, _ := ExtractQuote(CombineChunks(result.Chunks))
		return GuardQuote(quote, result.Chunks)
	case domain.ModeList:
		context_ := CombineChunksForList(result.Chunks)
		return GuardList(ExtractNumberedItems(context_), context_)
	case domain.ModeTable:
		context_ := CombineChunks(result.Chunks)
		return GuardTable(ExtractKeyValuePairs(context_), context_)
	case domain.ModeFullDocument:
		return GuardFullDocument(CombineChunks(result.Chunks))
	default:
		return GuardDirect(result.Answer, result.Chunks)
	}
}

// bulletsFromAnswer splits generated text into bullet candidates: bullet or
// numbered lines when present, sentences otherwise.
func bulletsFromAnswer(answer string) []string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil
	}

	var bullets []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-•* \t")
		if line != "" {
			bullets = append(bullets, line)
		}
	}
	if len(bullets) > 1 {
		return bullets
	}
	return splitSentences(answer)
}

func collectSources(result *domain.RetrievalResult, maxCitations int) []domain.Source {
	var sources []domain.Source
	for _, sc := range result.Chunks {
		if len(sources) == maxCitations {
			break
		}
		sources = append(sources, domain.Source{
			DocumentID: sc.Chunk.DocumentID,
			Ordinal:    sc.Chunk.Ordinal,
			Snippet:    truncateRunes(sc.Chunk.Content, 200),
			Score:      sc.Score,
		})
	}
	for _, gs := range result.GroundingSources {
		if len(sources) == maxCitations {
			break
		}
		sources = append(sources, domain.Source{Title: gs.Title, URL: gs.URL})
	}
	return sources
}

func synthesizeQuery(mode domain.AnswerMode) string {
	if mode == domain.ModeFullDocument {
		return defaultFullDocQuery
	}
	return defaultSummaryQuery
}
