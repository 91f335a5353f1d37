package models

import (
	"time"

	"gorm.io/datatypes"
)

// SyncState tracks per-symbol sync progress and the concurrency guard.
// CurrentlySyncing is flipped with a compare-and-set update so the guard
// holds across multiple server instances sharing one store.
type SyncState struct {
	Symbol            string         `gorm:"primaryKey;type:varchar(10)" json:"symbol"`
	CurrentlySyncing  bool           `gorm:"not null;default:false" json:"currently_syncing"`
	RequestsUsedToday int            `gorm:"not null;default:0" json:"requests_used_today"`
	QuotaDay          string         `gorm:"type:varchar(10);not null;default:''" json:"quota_day"`
	LastSyncedAt      *time.Time     `gorm:"type:timestamptz" json:"last_synced_at,omitempty"`
	LastAttemptAt     *time.Time     `gorm:"type:timestamptz" json:"last_attempt_at,omitempty"`
	LastError         *string        `gorm:"type:text" json:"last_error,omitempty"`
	StatsJSON         datatypes.JSON `gorm:"type:jsonb" json:"stats,omitempty"`
}

func (SyncState) TableName() string {
	return "sync_states"
}
