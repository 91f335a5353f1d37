package db

import (
	"rottenstocks/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Stock{},
		&models.Expert{},
		&models.ExpertRating{},
		&models.Rating{},
		&models.SocialPost{},
		&models.SyncState{},
	)
}
