package safety

import "context"

// Result is the outcome of a content safety classification.
type Result struct {
	Safe          bool     `json:"safe"`
	Issues        []string `json:"issues"`
	SuggestedTags []string `json:"suggestedTags"`
}

// SearchResult is the outcome of a conversational prompt search.
type SearchResult struct {
	Answer          string   `json:"answer"`
	RecommendedIDs  []string `json:"recommendedIds"`
	SuggestedSearch string   `json:"suggestedSearch"`
}

// Candidate is the condensed card view handed to the assistant as context.
type Candidate struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	UseCase string   `json:"use_case"`
	Tags    []string `json:"tags"`
}

// Classifier screens submitted prompt content for PII, secrets, internal
// data, and inappropriate content.
type Classifier interface {
	SafetyCheck(ctx context.Context, title, useCase, prompt string) (*Result, error)
}

// Assistant answers a free-text query by recommending matching prompts.
type Assistant interface {
	FindPrompts(ctx context.Context, query string, candidates []Candidate) (*SearchResult, error)
}
