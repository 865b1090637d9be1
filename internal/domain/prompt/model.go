package prompt

import "time"

// Card is a published prompt template in the library catalog.
type Card struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	UseCase      string    `json:"use_case"`
	PromptBody   string    `json:"prompt"`
	Tags         []string  `json:"tags"`
	AuthorName   string    `json:"author_name"`
	AuthorRole   string    `json:"author_role"`
	SessionID    string    `json:"session_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	ViewCount    int       `json:"view_count"`
	AvgRating    float64   `json:"avg_rating"`
	RatingCount  int       `json:"rating_count"`
	CommentCount int       `json:"comment_count"`
	Photos       []Photo   `json:"photos,omitempty"`
}

// Photo is a proof-of-use image attached to a card.
type Photo struct {
	ID        string    `json:"id"`
	PromptID  string    `json:"prompt_id"`
	URL       string    `json:"url"`
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"created_at"`
}

// Rating is a single star rating on a card.
type Rating struct {
	ID        string    `json:"id"`
	PromptID  string    `json:"prompt_id"`
	Stars     int       `json:"stars"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reader comment on a card.
type Comment struct {
	ID         string    `json:"id"`
	PromptID   string    `json:"prompt_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// ReportStatus tracks moderation state of a report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportResolved ReportStatus = "resolved"
)

// Report flags a card or comment for moderator review.
type Report struct {
	ID        string       `json:"id"`
	PromptID  string       `json:"prompt_id,omitempty"`
	CommentID string       `json:"comment_id,omitempty"`
	Reason    string       `json:"reason"`
	Status    ReportStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}
