package entities

import (
	"time"

	"gorm.io/gorm"
)

// PromptCard is the persisted catalog entry.
type PromptCard struct {
	ID         string `gorm:"type:varchar(40);primaryKey"`
	Title      string `gorm:"type:varchar(255);not null"`
	UseCase    string `gorm:"type:varchar(255);not null;index"`
	PromptBody string `gorm:"type:text;not null"`
	Tags       string `gorm:"type:text"` // comma-separated, lowercased
	AuthorName string `gorm:"type:varchar(128)"`
	AuthorRole string `gorm:"type:varchar(64)"`
	SessionID  string `gorm:"type:varchar(64);index"`
	ViewCount  int    `gorm:"not null;default:0"`
	ExpiresAt  time.Time `gorm:"index"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`

	Photos   []PromptPhoto   `gorm:"foreignKey:PromptID"`
	Ratings  []PromptRating  `gorm:"foreignKey:PromptID"`
	Comments []PromptComment `gorm:"foreignKey:PromptID"`
}

func (PromptCard) TableName() string {
	return "prompt_cards"
}

// PromptPhoto is a stored proof-of-use image linked to a card.
type PromptPhoto struct {
	ID        string    `gorm:"type:varchar(40);primaryKey"`
	PromptID  string    `gorm:"type:varchar(40);not null;index"`
	URL       string    `gorm:"type:varchar(512);not null"`
	SortOrder int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PromptPhoto) TableName() string {
	return "prompt_photos"
}

// PromptRating is a single star rating on a card.
type PromptRating struct {
	ID        string    `gorm:"type:varchar(40);primaryKey"`
	PromptID  string    `gorm:"type:varchar(40);not null;index"`
	Stars     int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (PromptRating) TableName() string {
	return "prompt_ratings"
}

// PromptComment is a comment left on a card.
type PromptComment struct {
	ID         string    `gorm:"type:varchar(40);primaryKey"`
	PromptID   string    `gorm:"type:varchar(40);not null;index"`
	AuthorName string    `gorm:"type:varchar(128)"`
	Text       string    `gorm:"type:text;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

func (PromptComment) TableName() string {
	return "prompt_comments"
}
