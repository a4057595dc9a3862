package domain

type AnswerMode string

const (
	ModeAuto         AnswerMode = "auto"
	ModeDirect       AnswerMode = "direct"
	ModeSummary      AnswerMode = "summary"
	ModeQuote        AnswerMode = "quote"
	ModeList         AnswerMode = "list"
	ModeTable        AnswerMode = "table"
	ModeFullDocument AnswerMode = "document_full"
)

func (m AnswerMode) Recognized() bool {
	switch m {
	case ModeDirect, ModeSummary, ModeQuote, ModeList, ModeTable, ModeFullDocument:
		return true
	default:
		return false
	}
}

type AnswerFormat string

const (
	FormatPlain    AnswerFormat = "plain"
	FormatMarkdown AnswerFormat = "markdown"
	FormatHTML     AnswerFormat = "html"
)

type AnswerLength string

const (
	LengthAuto   AnswerLength = "auto"
	LengthShort  AnswerLength = "short"
	LengthMedium AnswerLength = "medium"
	LengthLong   AnswerLength = "long"
	LengthXL     AnswerLength = "xl"
)

// QueryParams carries user-supplied knobs. Values are clamped by
// NormalizeParams before any cache or retrieval work.
type QueryParams struct {
	TopK         int          `json:"top_k"`
	Threshold    float64      `json:"threshold"`
	MaxCitations int          `json:"citations"`
	Strictness   float64      `json:"strictness"`
	Mode         AnswerMode   `json:"mode"`
	Format       AnswerFormat `json:"format"`
	Length       AnswerLength `json:"length"`
}

// AnswerRequest is immutable once validated.
type AnswerRequest struct {
	Query          string      `json:"query"`
	DocumentID     string      `json:"document_id,omitempty"`
	ForceGrounding bool        `json:"force_grounding,omitempty"`
	Params         QueryParams `json:"params"`
}
