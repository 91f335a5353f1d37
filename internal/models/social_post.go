package models

import (
	"time"

	"gorm.io/datatypes"
)

// SocialPost is a raw post fetched from a social provider. Rows are inserted
// once (platform + platform_post_id unique) and mutated exactly once by the
// sentiment aggregator, which fills sentiment_score and analyzed_at.
type SocialPost struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement" json:"id"`
	Platform       string         `gorm:"type:varchar(20);not null;uniqueIndex:idx_posts_platform_post,priority:1" json:"platform"`
	PlatformPostID string         `gorm:"type:varchar(100);not null;uniqueIndex:idx_posts_platform_post,priority:2" json:"platform_post_id"`
	Author         string         `gorm:"type:text;not null" json:"author"`
	Title          string         `gorm:"type:text" json:"title"`
	Body           string         `gorm:"type:text" json:"body"`
	Subreddit      *string        `gorm:"type:varchar(100);index" json:"subreddit,omitempty"`
	StockMentions  datatypes.JSON `gorm:"type:jsonb" json:"stock_mentions"`
	Score          int            `gorm:"not null;default:0" json:"score"`
	NumComments    int            `gorm:"not null;default:0" json:"num_comments"`
	SentimentScore *float64       `gorm:"" json:"sentiment_score,omitempty"`
	SentimentLabel *string        `gorm:"type:varchar(20)" json:"sentiment_label,omitempty"`
	PostedAt       time.Time      `gorm:"type:timestamptz;not null;index" json:"posted_at"`
	AnalyzedAt     *time.Time     `gorm:"type:timestamptz;index" json:"analyzed_at,omitempty"`
	CreatedAt      time.Time      `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (SocialPost) TableName() string {
	return "social_posts"
}
