package usecase

import (
	"regexp"
	"strings"

	"github.com/docsage/docsage/internal/core/domain"
)

// Hint sets are checked in priority order; the first matching category wins.
// Phrases are Portuguese-first (the operating language of the corpus) with
// English synonyms. There is no scoring.
var modeHintOrder = []domain.AnswerMode{
	domain.ModeList,
	domain.ModeSummary,
	domain.ModeQuote,
	domain.ModeTable,
	domain.ModeFullDocument,
}

var modeHintPhrases = map[domain.AnswerMode][]string{
	domain.ModeList: {
		"liste ", "lista de", "listagem", "enumere", "enumerar",
		"quais são os", "quais são as", "itens do", "em tópicos",
		"list of", "enumerate", "bullet points",
	},
	domain.ModeSummary: {
		"resumo", "resuma", "resumir", "sumário", "síntese", "sintetize",
		"summary", "summarize", "summarise", "overview", "visão geral",
	},
	domain.ModeQuote: {
		"citação", "cite o trecho", "trecho que", "trecho onde",
		"excerto", "passagem que", "quote", "quotation", "exact wording",
	},
	domain.ModeTable: {
		"tabela", "em formato de tabela", "planilha", "colunas",
		"table", "tabular", "spreadsheet",
	},
	domain.ModeFullDocument: {
		"documento completo", "documento inteiro", "texto completo",
		"conteúdo completo", "inteiro teor", "full document",
		"entire document", "whole document",
	},
}

// Word-boundary checks for short forms that would over-match as substrings.
var modeHintWords = map[domain.AnswerMode]*regexp.Regexp{
	domain.ModeList:    regexp.MustCompile(`\b(list|lista|liste|listar)\b`),
	domain.ModeSummary: regexp.MustCompile(`\b(resumo|summary)\b`),
	domain.ModeQuote:   regexp.MustCompile(`\b(cite|citar|quote)\b`),
	domain.ModeTable:   regexp.MustCompile(`\b(tabela|table)\b`),
}

// DetectMode returns the explicit mode verbatim when it is recognized and
// not auto; otherwise it classifies the query against the ordered hint sets
// and defaults to direct.
func DetectMode(explicit domain.AnswerMode, query string) domain.AnswerMode {
	if explicit.Recognized() && explicit != domain.ModeAuto {
		return explicit
	}

	lowered := strings.ToLower(query)
	for _, mode := range modeHintOrder {
		for _, phrase := range modeHintPhrases[mode] {
			if strings.Contains(lowered, phrase) {
				return mode
			}
		}
		if re, ok := modeHintWords[mode]; ok && re.MatchString(lowered) {
			return mode
		}
	}
	return domain.ModeDirect
}
