package session

import "time"

// Kind classifies a feed item.
type Kind string

const (
	KindText         Kind = "text"
	KindImage        Kind = "image"
	KindLink         Kind = "link"
	KindAnnouncement Kind = "announcement"
)

// Valid reports whether the kind is one of the known feed item kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindLink, KindAnnouncement:
		return true
	}
	return false
}

// OwnerSentinel marks sessions created without an authenticated owner.
const OwnerSentinel = "admin"

// Record is the full session document persisted under a single key.
// It exclusively owns its participants and feed items; every mutation
// rewrites the whole document.
type Record struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"owner_id"`
	Participants []Participant `json:"participants"`
	FeedItems    []FeedItem    `json:"feed_items"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Participant is a person who joined a session in a specific client,
// identified by name and department rather than a global account.
type Participant struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Department string    `json:"department"`
	JoinedAt   time.Time `json:"joined_at"`
}

// FeedItem is a single shared prompt case within a session feed.
// Author identity is denormalized at post time and never re-resolved.
type FeedItem struct {
	ID               string    `json:"id"`
	SessionID        string    `json:"session_id"`
	Kind             Kind      `json:"kind"`
	Title            string    `json:"title"`
	UseCase          string    `json:"use_case"`
	PromptBody       string    `json:"prompt_body"`
	ImageURL         string    `json:"image_url,omitempty"`
	LinkURL          string    `json:"link_url,omitempty"`
	AuthorName       string    `json:"author_name"`
	AuthorDepartment string    `json:"author_department"`
	CreatedAt        time.Time `json:"created_at"`
	LikeCount        int       `json:"like_count"`
	Ratings          []int     `json:"ratings"`
	Comments         []Comment `json:"comments"`
}

// AverageRating derives the mean of all ratings. It is recomputed on every
// read and never stored.
func (i FeedItem) AverageRating() float64 {
	if len(i.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, stars := range i.Ratings {
		sum += stars
	}
	return float64(sum) / float64(len(i.Ratings))
}

// Comment is immutable once created.
type Comment struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// findItem returns a pointer to the feed item with the given id, or nil.
func (r *Record) findItem(itemID string) *FeedItem {
	for idx := range r.FeedItems {
		if r.FeedItems[idx].ID == itemID {
			return &r.FeedItems[idx]
		}
	}
	return nil
}
