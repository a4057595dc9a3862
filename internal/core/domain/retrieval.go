package domain

import "time"

type SearchMethod string

const (
	MethodVector    SearchMethod = "vector"
	MethodFTS       SearchMethod = "fts"
	MethodGrounding SearchMethod = "grounding"
	MethodCache     SearchMethod = "cache"
)

// WithErrorSuffix marks a method as failed without losing which stage failed.
func (m SearchMethod) WithErrorSuffix() SearchMethod {
	return m + "_error"
}

type QueryType string

const (
	QueryDocumentSpecific QueryType = "document_specific"
	QueryConceptual       QueryType = "conceptual"
	QueryComparative      QueryType = "comparative"
	QueryOther            QueryType = "other"
)

type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

type GroundingSource struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// RetrievalResult is the orchestrator's structured outcome. Provider failures
// are folded into Success=false with an _error-suffixed method instead of an
// error return, so a failing collaborator never aborts the request.
type RetrievalResult struct {
	Success          bool
	Chunks           []ScoredChunk
	ChunksFound      int
	Answer           string
	Method           SearchMethod
	QueryType        QueryType
	LLMUsed          string
	GroundingSources []GroundingSource
	ErrorMessage     string
	ExecutionTime    time.Duration
}

// TextQueryOperator selects how FTS tokens are combined in a ranked query.
type TextQueryOperator string

const (
	TextQueryAnd TextQueryOperator = "and"
	TextQueryOr  TextQueryOperator = "or"
)

type TextQuery struct {
	Tokens   []string
	Operator TextQueryOperator
}
