package gormrepository

import (
	"testing"
	"time"

	"rottenstocks/internal/models"
)

func TestSyncFinishUpdatesFailedCycleKeepsTimestamp(t *testing.T) {
	msg := "quote fetch failed"
	updates := syncFinishUpdates(&models.SyncState{
		Symbol:            "AAPL",
		RequestsUsedToday: 7,
		QuotaDay:          "2026-08-30",
		LastError:         &msg,
	})

	if _, ok := updates["last_synced_at"]; ok {
		t.Fatalf("failed cycle must not touch last_synced_at: %v", updates)
	}
	if updates["currently_syncing"] != false {
		t.Fatalf("guard not released: %v", updates)
	}
	if got := updates["last_error"].(*string); got == nil || *got != msg {
		t.Fatalf("last_error = %v, want %q", got, msg)
	}
	if updates["requests_used_today"] != 7 || updates["quota_day"] != "2026-08-30" {
		t.Fatalf("quota fields: %v", updates)
	}
}

func TestSyncFinishUpdatesSuccessWritesTimestamp(t *testing.T) {
	done := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	updates := syncFinishUpdates(&models.SyncState{
		Symbol:       "AAPL",
		LastSyncedAt: &done,
	})

	got, ok := updates["last_synced_at"].(*time.Time)
	if !ok || got == nil || !got.Equal(done) {
		t.Fatalf("last_synced_at = %v, want %v", updates["last_synced_at"], done)
	}
}
