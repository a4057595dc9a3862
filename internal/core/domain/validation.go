package domain

type ValidationCode string

const (
	CodeEmptyQuery          ValidationCode = "empty_query"
	CodeQueryTooShort       ValidationCode = "query_too_short"
	CodeQueryInvalid        ValidationCode = "query_invalid"
	CodeGenericQueryWarning ValidationCode = "generic_query"
	CodeDocumentNotFound    ValidationCode = "document_not_found"
	CodeDocumentEmpty       ValidationCode = "document_empty"
	CodeDocumentTooSmall    ValidationCode = "document_too_small"
	CodeNoEmbeddings        ValidationCode = "no_embeddings"
	CodeOutOfScope          ValidationCode = "out_of_scope"
	CodeStoreDegraded       ValidationCode = "store_degraded"
)

type ValidationIssue struct {
	Code       ValidationCode `json:"code"`
	Message    string         `json:"message"`
	Suggestion string         `json:"suggestion,omitempty"`
}

// ValidationResult separates terminal errors from non-fatal warnings.
// A collaborator outage downgrades to a warning: validation must never be
// the single point of failure for an otherwise healthy request.
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationIssue
	Warnings []ValidationIssue
}

func (r ValidationResult) Suggestions() []string {
	out := make([]string, 0, len(r.Errors)+len(r.Warnings))
	for _, issue := range r.Errors {
		if issue.Suggestion != "" {
			out = append(out, issue.Suggestion)
		}
	}
	for _, issue := range r.Warnings {
		if issue.Suggestion != "" {
			out = append(out, issue.Suggestion)
		}
	}
	return out
}
