package domain

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

type FeedbackKind string

const (
	FeedbackLike    FeedbackKind = "like"
	FeedbackClick   FeedbackKind = "click"
	FeedbackDislike FeedbackKind = "dislike"
	FeedbackView    FeedbackKind = "view"
)

// ParseFeedbackKind normalizes a raw kind. Unknown kinds are kept as-is.
func ParseFeedbackKind(s string) FeedbackKind {
	return FeedbackKind(strings.ToLower(strings.TrimSpace(s)))
}

// Score maps a feedback kind to the [0,1] preference value used both as the
// collaborative rating and as the exploration reward.
func (k FeedbackKind) Score() float64 {
	switch k {
	case FeedbackLike:
		return 1.0
	case FeedbackClick:
		return 0.8
	case FeedbackDislike:
		return 0.0
	default:
		return 0.5
	}
}

// FeedbackEvent is an append-only record of a user's reaction to an item.
type FeedbackEvent struct {
	ID        uint              `gorm:"primaryKey" json:"id"`
	UserID    uint              `gorm:"column:user_id;not null;index" json:"user_id"`
	ItemID    int64             `gorm:"column:movie_id;not null;index" json:"item_id"`
	Kind      FeedbackKind      `gorm:"column:feedback_type;not null" json:"feedback_type"`
	Context   datatypes.JSONMap `gorm:"column:context" json:"context,omitempty"`
	CreatedAt time.Time         `gorm:"column:timestamp;autoCreateTime" json:"timestamp"`
}

func (FeedbackEvent) TableName() string {
	return "feedback"
}
