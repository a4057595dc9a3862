package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/docsage/docsage/internal/core/domain"
	"github.com/docsage/docsage/internal/core/ports"
)

const (
	minQueryRunes    = 3
	minQueryAlnum    = 3
	minChunksHealthy = 3
	genericQueryMax  = 5
)

var genericQueryPrefixes = []string{
	"me fale sobre",
	"fale sobre",
	"me conte sobre",
	"o que tem no",
	"tell me about",
	"talk about",
}

// Out-of-scope denylist: requests the corpus cannot answer regardless of
// retrieval quality. Each entry carries the keyword cross-checked against
// the document title before failing the request.
var outOfScopePatterns = []struct {
	phrase  string
	keyword string
}{
	{"previsão do tempo", "tempo"},
	{"weather forecast", "weather"},
	{"horóscopo", "horóscopo"},
	{"resultado da loteria", "loteria"},
	{"resultado do jogo", "jogo"},
	{"lottery numbers", "lottery"},
}

// PreValidator sanity-checks a query and document scope before any
// retrieval cost is paid. It is read-only; store errors downgrade to
// warnings so validation never blocks an otherwise healthy request.
type PreValidator struct {
	documents ports.DocumentStore
	chunks    ports.ChunkStore
	logger    *slog.Logger
}

func NewPreValidator(documents ports.DocumentStore, chunks ports.ChunkStore, logger *slog.Logger) *PreValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreValidator{
		documents: documents,
		chunks:    chunks,
		logger:    logger,
	}
}

func (v *PreValidator) Validate(ctx context.Context, query, documentID string, mode domain.AnswerMode) domain.ValidationResult {
	var result domain.ValidationResult

	trimmed := strings.TrimSpace(query)
	switch {
	case trimmed == "" && !modeSynthesizesQuery(mode):
		result.Errors = append(result.Errors, domain.ValidationIssue{
			Code:       domain.CodeEmptyQuery,
			Message:    "a consulta está vazia",
			Suggestion: "informe uma pergunta ou escolha o modo resumo/documento completo",
		})
	case trimmed != "" && utf8.RuneCountInString(trimmed) < minQueryRunes:
		result.Errors = append(result.Errors, domain.ValidationIssue{
			Code:       domain.CodeQueryTooShort,
			Message:    fmt.Sprintf("a consulta tem menos de %d caracteres", minQueryRunes),
			Suggestion: "detalhe melhor o que você procura",
		})
	case trimmed != "" && countAlnum(trimmed) < minQueryAlnum:
		result.Errors = append(result.Errors, domain.ValidationIssue{
			Code:       domain.CodeQueryInvalid,
			Message:    "a consulta não contém texto pesquisável",
			Suggestion: "use palavras em vez de símbolos ou pontuação",
		})
	}

	if issue, ok := genericQueryWarning(trimmed); ok {
		result.Warnings = append(result.Warnings, issue)
	}

	var doc *domain.Document
	if documentID != "" {
		doc = v.validateDocumentScope(ctx, documentID, &result)
	}

	if issue, ok := outOfScopeIssue(trimmed, doc); ok {
		result.Errors = append(result.Errors, issue)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func (v *PreValidator) validateDocumentScope(ctx context.Context, documentID string, result *domain.ValidationResult) *domain.Document {
	doc, err := v.documents.GetByID(ctx, documentID)
	if err != nil {
		if domain.IsKind(err, domain.ErrDocumentNotFound) {
			result.Errors = append(result.Errors, domain.ValidationIssue{
				Code:       domain.CodeDocumentNotFound,
				Message:    fmt.Sprintf("documento %s não encontrado", documentID),
				Suggestion: "verifique o identificador do documento",
			})
			return nil
		}
		v.logger.Warn("validation_document_store_degraded", "document_id", documentID, "error", err)
		result.Warnings = append(result.Warnings, domain.ValidationIssue{
			Code:    domain.CodeStoreDegraded,
			Message: "não foi possível verificar o documento; a busca continuará",
		})
		return nil
	}

	count, err := v.chunks.ChunkCount(ctx, documentID)
	if err != nil {
		v.logger.Warn("validation_chunk_store_degraded", "document_id", documentID, "error", err)
		result.Warnings = append(result.Warnings, domain.ValidationIssue{
			Code:    domain.CodeStoreDegraded,
			Message: "não foi possível verificar o conteúdo do documento; a busca continuará",
		})
		return doc
	}

	if count == 0 {
		result.Errors = append(result.Errors, domain.ValidationIssue{
			Code:       domain.CodeDocumentEmpty,
			Message:    "o documento não possui conteúdo indexado",
			Suggestion: "aguarde a indexação terminar ou reenvie o documento",
		})
		return doc
	}
	if count < minChunksHealthy {
		result.Warnings = append(result.Warnings, domain.ValidationIssue{
			Code:    domain.CodeDocumentTooSmall,
			Message: "o documento tem pouco conteúdo; as respostas podem ser limitadas",
		})
	}

	hasEmbeddings, err := v.chunks.HasEmbeddings(ctx, documentID)
	if err != nil {
		v.logger.Warn("validation_embeddings_check_degraded", "document_id", documentID, "error", err)
		return doc
	}
	if !hasEmbeddings {
		result.Warnings = append(result.Warnings, domain.ValidationIssue{
			Code:    domain.CodeNoEmbeddings,
			Message: "documento sem embeddings; será usada busca textual",
		})
	}

	return doc
}

func modeSynthesizesQuery(mode domain.AnswerMode) bool {
	return mode == domain.ModeSummary || mode == domain.ModeFullDocument
}

func genericQueryWarning(query string) (domain.ValidationIssue, bool) {
	if query == "" {
		return domain.ValidationIssue{}, false
	}
	lowered := strings.ToLower(query)
	if len(strings.Fields(lowered)) >= genericQueryMax {
		return domain.ValidationIssue{}, false
	}
	for _, prefix := range genericQueryPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return domain.ValidationIssue{
				Code:       domain.CodeGenericQueryWarning,
				Message:    "a consulta é muito genérica",
				Suggestion: "pergunte sobre um aspecto específico, como valores, prazos ou nomes",
			}, true
		}
	}
	return domain.ValidationIssue{}, false
}

func outOfScopeIssue(query string, doc *domain.Document) (domain.ValidationIssue, bool) {
	if query == "" {
		return domain.ValidationIssue{}, false
	}
	lowered := strings.ToLower(query)
	for _, pattern := range outOfScopePatterns {
		if !strings.Contains(lowered, pattern.phrase) {
			continue
		}
		// Only fail when the title gives no evidence the corpus covers it.
		if doc != nil && strings.Contains(strings.ToLower(doc.Title), pattern.keyword) {
			continue
		}
		return domain.ValidationIssue{
			Code:       domain.CodeOutOfScope,
			Message:    "a consulta parece estar fora do escopo dos documentos",
			Suggestion: "pergunte sobre o conteúdo dos documentos enviados",
		}, true
	}
	return domain.ValidationIssue{}, false
}

func countAlnum(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
