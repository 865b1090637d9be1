package requests

// JoinSessionRequest carries the identity a participant joins with.
type JoinSessionRequest struct {
	Name       string `json:"name" binding:"required"`
	Department string `json:"department" binding:"required"`
}

// AddFeedItemRequest posts a shared case to a session feed.
type AddFeedItemRequest struct {
	Kind       string `json:"kind" binding:"required"`
	Title      string `json:"title"`
	UseCase    string `json:"use_case"`
	PromptBody string `json:"prompt"`
	ImageURL   string `json:"image_url"`
	LinkURL    string `json:"link_url"`
}

// AddFeedCommentRequest comments on a feed item.
type AddFeedCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

// RateFeedItemRequest rates a feed item.
type RateFeedItemRequest struct {
	Stars int `json:"stars" binding:"required,min=1,max=5"`
}
