package requests

// CreateCardRequest submits a prompt for publication.
type CreateCardRequest struct {
	Title      string   `json:"title" binding:"required"`
	UseCase    string   `json:"use_case" binding:"required"`
	PromptBody string   `json:"prompt" binding:"required"`
	Tags       []string `json:"tags"`
	AuthorName string   `json:"author_name"`
	AuthorRole string   `json:"author_role"`
	SessionID  string   `json:"session_id"`
}

// RateCardRequest rates a catalog card.
type RateCardRequest struct {
	Stars int `json:"stars" binding:"required,min=1,max=5"`
}

// CommentCardRequest comments on a catalog card.
type CommentCardRequest struct {
	AuthorName string `json:"author_name"`
	Text       string `json:"text" binding:"required"`
}

// ReportContentRequest flags a card or comment for moderation.
type ReportContentRequest struct {
	PromptID  string `json:"prompt_id"`
	CommentID string `json:"comment_id"`
	Reason    string `json:"reason" binding:"required"`
}

// SearchPromptsRequest asks the assistant for recommendations.
type SearchPromptsRequest struct {
	Query string `json:"query" binding:"required"`
}
