package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/docsage/docsage/internal/core/domain"
)

// Guards enforce per-mode minimum-content policies. They are pure functions
// of (extracted content, source context) and never return empty content:
// when real extraction is insufficient a deterministic fallback synthesized
// from the same chunks (or a generic non-empty notice) is substituted.

const (
	summaryMinBullets    = 3
	summaryMinChars      = 120
	listMinItems         = 3
	listSentenceMinChars = 20
	listItemMaxChars     = 100
	listMaxFallbackItems = 5
	listWindowWords      = 10
	tableMinRows         = 2
	directFallbackChars  = 500
)

// SummaryKeywordBullet closes every synthesized summary; tests pin it.
const SummaryKeywordBullet = "Consulte o documento original para mais detalhes."

var sentenceSplitRE = regexp.MustCompile(`[.!?]+\s+`)

func GuardDirect(answerText string, chunks []domain.ScoredChunk) domain.GuardedAnswer {
	text := strings.TrimSpace(answerText)
	if text != "" {
		return domain.GuardedAnswer{Content: domain.DirectContent{Text: text}}
	}

	combined := strings.TrimSpace(CombineChunks(chunks))
	if combined != "" {
		return domain.GuardedAnswer{
			Content:         domain.DirectContent{Text: truncateRunes(combined, directFallbackChars)},
			FallbackApplied: true,
		}
	}
	return domain.GuardedAnswer{
		Content:         domain.DirectContent{Text: "Não foram encontradas informações sobre essa consulta nos documentos disponíveis."},
		FallbackApplied: true,
	}
}

func GuardQuote(extracted string, chunks []domain.ScoredChunk) domain.GuardedAnswer {
	if len(chunks) == 0 {
		// Nothing to quote from. The notice is plain text, not a quote, so
		// the renderers must not decorate it with quote markers.
		return domain.GuardedAnswer{
			Content:         domain.DirectContent{Text: "Nenhuma citação disponível: não há trechos de documentos para consultar."},
			FallbackApplied: true,
		}
	}
	if extracted != "" {
		return domain.GuardedAnswer{Content: domain.QuoteContent{Text: extracted}}
	}

	// No quoted span in the context: promote its first sentence to a quote.
	combined := CombineChunks(chunks)
	sentences := splitSentences(combined)
	if len(sentences) > 0 {
		return domain.GuardedAnswer{
			Content:         domain.QuoteContent{Text: `"` + truncateRunes(sentences[0], listItemMaxChars*2) + `"`},
			FallbackApplied: true,
		}
	}
	return domain.GuardedAnswer{
		Content:         domain.QuoteContent{Text: "Nenhuma citação encontrada nos trechos recuperados."},
		FallbackApplied: true,
	}
}

func GuardSummary(bullets []string, chunks []domain.ScoredChunk) domain.GuardedAnswer {
	cleaned := make([]string, 0, len(bullets))
	total := 0
	for _, b := range bullets {
		b = strings.TrimSpace(b)
		if b == "" {
			continue
		}
		cleaned = append(cleaned, b)
		total += utf8.RuneCountInString(b)
	}

	if len(cleaned) >= summaryMinBullets || (len(cleaned) >= 1 && total >= summaryMinChars) {
		return domain.GuardedAnswer{Content: domain.SummaryContent{Bullets: cleaned}}
	}

	combined := strings.TrimSpace(CombineChunks(chunks))
	const filler = "Conteúdo adicional não disponível no contexto recuperado."
	if combined == "" {
		combined = filler
	}
	for utf8.RuneCountInString(combined) < summaryMinChars {
		combined += " " + filler
	}

	lead := firstSentence(combined)
	out := []string{lead}
	if rest := strings.TrimSpace(strings.TrimPrefix(combined, lead)); rest != "" {
		out = append(out, rest)
	}
	out = append(out, SummaryKeywordBullet)

	return domain.GuardedAnswer{
		Content:         domain.SummaryContent{Bullets: out},
		FallbackApplied: true,
	}
}

func GuardList(items []domain.ListItem, context string) domain.GuardedAnswer {
	if len(items) >= listMinItems {
		return domain.GuardedAnswer{Content: domain.ListContent{Items: items}}
	}

	fallback := listFromSentences(context)
	if len(fallback) < listMinItems {
		if windows := listFromWordWindows(context); len(windows) > len(fallback) {
			fallback = windows
		}
	}
	if len(fallback) == 0 {
		fallback = []domain.ListItem{
			{Number: 1, Text: "O conteúdo disponível não está estruturado em itens"},
			{Number: 2, Text: "Consulte o documento original para a relação completa"},
			{Number: 3, Text: "Refine a consulta para obter itens específicos"},
		}
	}
	return domain.GuardedAnswer{
		Content:         domain.ListContent{Items: fallback},
		FallbackApplied: true,
	}
}

func GuardTable(rows []domain.TableRow, context string) domain.GuardedAnswer {
	if len(rows) >= tableMinRows {
		return domain.GuardedAnswer{Content: domain.TableContent{Rows: rows}}
	}

	loose := ExtractKeyValuePairsLoose(context)
	if len(loose) >= tableMinRows {
		return domain.GuardedAnswer{
			Content:         domain.TableContent{Rows: loose},
			FallbackApplied: true,
		}
	}
	return domain.GuardedAnswer{
		Content: domain.TableContent{Rows: []domain.TableRow{
			{Key: "Conteúdo", Value: "não estruturado em pares chave-valor"},
			{Key: "Origem", Value: "documentos recuperados para a consulta"},
			{Key: "Sugestão", Value: "refine a consulta para dados tabulares"},
		}},
		FallbackApplied: true,
	}
}

func GuardFullDocument(text string) domain.GuardedAnswer {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" {
		return domain.GuardedAnswer{Content: domain.FullDocumentContent{Text: trimmed}}
	}
	return domain.GuardedAnswer{
		Content:         domain.FullDocumentContent{Text: "O documento não possui conteúdo textual disponível."},
		FallbackApplied: true,
	}
}

func listFromSentences(context string) []domain.ListItem {
	var items []domain.ListItem
	for _, sentence := range splitSentences(context) {
		if utf8.RuneCountInString(sentence) <= listSentenceMinChars {
			continue
		}
		items = append(items, domain.ListItem{
			Number: len(items) + 1,
			Text:   truncateRunes(sentence, listItemMaxChars),
		})
		if len(items) == listMaxFallbackItems {
			break
		}
	}
	return items
}

func listFromWordWindows(context string) []domain.ListItem {
	words := strings.Fields(context)
	var items []domain.ListItem
	for start := 0; start < len(words); start += listWindowWords {
		end := start + listWindowWords
		if end > len(words) {
			end = len(words)
		}
		window := strings.Join(words[start:end], " ")
		if window == "" {
			continue
		}
		items = append(items, domain.ListItem{
			Number: len(items) + 1,
			Text:   truncateRunes(window, listItemMaxChars),
		})
		if len(items) == listMaxFallbackItems {
			break
		}
	}
	return items
}

func splitSentences(text string) []string {
	var out []string
	for _, part := range sentenceSplitRE.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstSentence(text string) string {
	if idx := strings.IndexAny(text, ".!?"); idx >= 0 {
		return strings.TrimSpace(text[:idx+1])
	}
	return strings.TrimSpace(text)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
