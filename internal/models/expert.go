package models

import "time"

// Expert is a verified analyst whose ratings feed the expert side of the
// aggregate. Created by admin import, referenced by ExpertRating.
type Expert struct {
	ID                 string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name               string    `gorm:"type:text;not null" json:"name"`
	Institution        *string   `gorm:"type:text" json:"institution,omitempty"`
	Platform           *string   `gorm:"type:varchar(50)" json:"platform,omitempty"`
	VerificationStatus string    `gorm:"type:varchar(20);not null;default:'unverified'" json:"verification_status"`
	FollowerCount      int64     `gorm:"not null;default:0" json:"follower_count"`
	InfluenceWeight    float64   `gorm:"not null;default:1" json:"influence_weight"`
	CreatedAt          time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Expert) TableName() string {
	return "experts"
}

// ExpertRating is one analyst's 0-100 score for one stock. The rating
// calculator folds these into Rating.ExpertScore.
type ExpertRating struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ExpertID  string    `gorm:"type:uuid;not null;index" json:"expert_id"`
	StockID   string    `gorm:"type:uuid;not null;index" json:"stock_id"`
	Score     float64   `gorm:"not null" json:"score"`
	RatedAt   time.Time `gorm:"type:timestamptz;not null;index" json:"rated_at"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
}

func (ExpertRating) TableName() string {
	return "expert_ratings"
}
