package domain

import "time"

// Content is the tagged per-mode answer payload. Guards and formatters
// switch on the concrete variant instead of probing optional fields.
type Content interface {
	ContentMode() AnswerMode
	Empty() bool
}

type DirectContent struct {
	Text string `json:"text"`
}

func (c DirectContent) ContentMode() AnswerMode { return ModeDirect }
func (c DirectContent) Empty() bool             { return c.Text == "" }

type SummaryContent struct {
	Bullets []string `json:"bullets"`
}

func (c SummaryContent) ContentMode() AnswerMode { return ModeSummary }
func (c SummaryContent) Empty() bool             { return len(c.Bullets) == 0 }

type QuoteContent struct {
	Text string `json:"text"`
}

func (c QuoteContent) ContentMode() AnswerMode { return ModeQuote }
func (c QuoteContent) Empty() bool             { return c.Text == "" }

type ListItem struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

type ListContent struct {
	Items []ListItem `json:"items"`
}

func (c ListContent) ContentMode() AnswerMode { return ModeList }
func (c ListContent) Empty() bool             { return len(c.Items) == 0 }

type TableRow struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type TableContent struct {
	Rows []TableRow `json:"rows"`
}

func (c TableContent) ContentMode() AnswerMode { return ModeTable }
func (c TableContent) Empty() bool             { return len(c.Rows) == 0 }

type FullDocumentContent struct {
	Text string `json:"text"`
}

func (c FullDocumentContent) ContentMode() AnswerMode { return ModeFullDocument }
func (c FullDocumentContent) Empty() bool             { return c.Text == "" }

// GuardedAnswer is never empty: guards substitute deterministic fallback
// content before an empty variant can escape the pipeline.
type GuardedAnswer struct {
	Content         Content
	FallbackApplied bool
}

type Source struct {
	DocumentID string  `json:"document_id,omitempty"`
	Ordinal    int     `json:"ordinal,omitempty"`
	Snippet    string  `json:"snippet,omitempty"`
	Score      float64 `json:"score,omitempty"`
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url,omitempty"`
}

// FormattedResponse is the single object returned to transport adapters,
// both on success and on structured failure.
type FormattedResponse struct {
	Success         bool              `json:"success"`
	Answer          string            `json:"answer,omitempty"`
	Sources         []Source          `json:"sources,omitempty"`
	ModeUsed        AnswerMode        `json:"mode_used,omitempty"`
	Format          AnswerFormat      `json:"format,omitempty"`
	SearchMethod    SearchMethod      `json:"search_method,omitempty"`
	CacheHit        bool              `json:"cache_hit"`
	CacheLevel      string            `json:"cache_level,omitempty"`
	LLMUsed         string            `json:"llm_used,omitempty"`
	FallbackApplied bool              `json:"fallback_applied"`
	Errors          []ValidationIssue `json:"errors,omitempty"`
	Warnings        []ValidationIssue `json:"warnings,omitempty"`
	Suggestions     []string          `json:"suggestions,omitempty"`
	ExecutionTime   time.Duration     `json:"execution_time_ns,omitempty"`
}
