package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock is a tracked instrument. Rows are created on first sync or manual add
// and soft-deactivated, never hard-deleted.
type Stock struct {
	ID             string           `gorm:"primaryKey;type:uuid" json:"id"`
	Symbol         string           `gorm:"type:varchar(10);uniqueIndex;not null" json:"symbol"`
	Name           string           `gorm:"type:text;not null" json:"name"`
	Exchange       *string          `gorm:"type:varchar(50)" json:"exchange,omitempty"`
	Sector         *string          `gorm:"type:varchar(100)" json:"sector,omitempty"`
	CurrentPrice   *decimal.Decimal `gorm:"type:numeric(20,4)" json:"current_price,omitempty"`
	PriceChange    *decimal.Decimal `gorm:"type:numeric(20,4)" json:"price_change,omitempty"`
	Volume         *int64           `gorm:"type:bigint" json:"volume,omitempty"`
	PriceUpdatedAt *time.Time       `gorm:"type:timestamptz;index" json:"price_updated_at,omitempty"`
	IsActive       bool             `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt      time.Time        `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time        `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Stock) TableName() string {
	return "stocks"
}
