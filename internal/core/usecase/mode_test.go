package usecase

import (
	"testing"

	"github.com/docsage/docsage/internal/core/domain"
)

func TestDetectModeExplicitWins(t *testing.T) {
	got := DetectMode(domain.ModeTable, "me dê um resumo executivo")
	if got != domain.ModeTable {
		t.Fatalf("explicit mode should win, got %q", got)
	}
}

func TestDetectModeExplicitAutoFallsThrough(t *testing.T) {
	got := DetectMode(domain.ModeAuto, "me dê um resumo executivo")
	if got != domain.ModeSummary {
		t.Fatalf("expected summary for resumo query, got %q", got)
	}
}

func TestDetectModeUnrecognizedExplicitFallsThrough(t *testing.T) {
	got := DetectMode(domain.AnswerMode("bogus"), "qual o preço?")
	if got != domain.ModeDirect {
		t.Fatalf("expected direct, got %q", got)
	}
}

func TestDetectModeHints(t *testing.T) {
	cases := []struct {
		query string
		want  domain.AnswerMode
	}{
		{"me dê um resumo executivo", domain.ModeSummary},
		{"qual o preço?", domain.ModeDirect},
		{"liste os documentos anexados", domain.ModeList},
		{"quais são os itens do contrato", domain.ModeList},
		{"cite o trecho sobre rescisão", domain.ModeQuote},
		{"monte uma tabela com os valores", domain.ModeTable},
		{"quero o documento completo", domain.ModeFullDocument},
		{"summarize the second section", domain.ModeSummary},
	}
	for _, tc := range cases {
		if got := DetectMode(domain.ModeAuto, tc.query); got != tc.want {
			t.Fatalf("query %q: expected %q, got %q", tc.query, tc.want, got)
		}
	}
}

func TestDetectModeListBeatsSummaryOnMixedHints(t *testing.T) {
	// Both hints present; list is checked first.
	got := DetectMode(domain.ModeAuto, "liste os pontos do resumo")
	if got != domain.ModeList {
		t.Fatalf("expected list to win priority order, got %q", got)
	}
}

func TestDetectModeWordBoundary(t *testing.T) {
	// "listar" inside another word must not trigger list mode.
	got := DetectMode(domain.ModeAuto, "o que é alistamento militar")
	if got != domain.ModeDirect {
		t.Fatalf("substring must not match word hint, got %q", got)
	}
}
