package entities

import "time"

// Report is a moderation report against a card or a comment.
type Report struct {
	ID        string    `gorm:"type:varchar(40);primaryKey"`
	PromptID  string    `gorm:"type:varchar(40);index"`
	CommentID string    `gorm:"type:varchar(40);index"`
	Reason    string    `gorm:"type:text;not null"`
	Status    string    `gorm:"type:varchar(16);not null;default:'pending';index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Report) TableName() string {
	return "reports"
}
