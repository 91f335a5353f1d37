package models

import "time"

// Sentiment labels applied independently to the expert and popular scores.
const (
	SentimentBuy  = "BUY"
	SentimentHold = "HOLD"
	SentimentSell = "SELL"
)

// Confidence levels derived from the volume of data behind a rating.
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// Rating is one calculation cycle's aggregate for a stock. Rows are appended,
// never updated in place; the current rating is the latest by calculated_at.
type Rating struct {
	ID               uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StockID          string     `gorm:"type:uuid;not null;index:idx_ratings_stock_calculated,priority:1" json:"stock_id"`
	ExpertScore      *float64   `gorm:"" json:"expert_score,omitempty"`
	PopularScore     float64    `gorm:"not null" json:"popular_score"`
	OverallScore     *float64   `gorm:"" json:"overall_score,omitempty"`
	ExpertSentiment  *string    `gorm:"type:varchar(10)" json:"expert_sentiment,omitempty"`
	PopularSentiment string     `gorm:"type:varchar(10);not null" json:"popular_sentiment"`
	OverallSentiment *string    `gorm:"type:varchar(10)" json:"overall_sentiment,omitempty"`
	ExpertPostCount  int        `gorm:"not null;default:0" json:"expert_post_count"`
	PopularPostCount int        `gorm:"not null;default:0" json:"popular_post_count"`
	ConfidenceLevel  string     `gorm:"type:varchar(10);not null" json:"confidence_level"`
	MeanSentiment    float64    `gorm:"not null;default:0" json:"mean_sentiment"`
	WindowStart      *time.Time `gorm:"type:timestamptz" json:"window_start,omitempty"`
	CalculatedAt     time.Time  `gorm:"type:timestamptz;not null;index:idx_ratings_stock_calculated,priority:2,sort:desc" json:"calculated_at"`
	CreatedAt        time.Time  `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (Rating) TableName() string {
	return "ratings"
}
