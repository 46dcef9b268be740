package domain

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	FullName  string         `gorm:"column:full_name" json:"full_name"`
	Email     string         `gorm:"column:email;unique;not null" json:"email"`
	Password  string         `gorm:"column:password;not null" json:"-"`
	Role      string         `gorm:"column:role;default:user" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

type StatBucket struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type RecentFeedback struct {
	ItemID    int64        `json:"movie_id"`
	Title     string       `json:"movie_title"`
	Kind      FeedbackKind `json:"feedback_type"`
	Timestamp string       `json:"timestamp"`
}

type UserStats struct {
	TotalFeedback        int64            `json:"total_feedback"`
	Likes                int64            `json:"likes"`
	Dislikes             int64            `json:"dislikes"`
	FeedbackDistribution []StatBucket     `json:"feedback_distribution"`
	RecentFeedback       []RecentFeedback `json:"recent_feedback"`
}
