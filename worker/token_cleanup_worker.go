package worker

import (
	"context"
	"log"
	"time"

	"dambabgo/models"

	"gorm.io/gorm"
)

type TokenCleanupWorker struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewTokenCleanupWorker(db *gorm.DB, logger *log.Logger) *TokenCleanupWorker {
	return &TokenCleanupWorker{
		DB:     db,
		Logger: logger,
	}
}

func (tw *TokenCleanupWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	select {
	case <-ctx.Done():
		return
	case <-time.After(10 * time.Second):
	}

	tw.Logger.Println("Token cleanup worker started")

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			tw.Logger.Println("Token cleanup worker shutting down...")
			return
		case <-ticker.C:
			tw.purgeExpiredTokens()
		}
	}
}

func (tw *TokenCleanupWorker) purgeExpiredTokens() {
	result := tw.DB.Unscoped().
		Where("expires_at < ? OR revoked = ?", time.Now(), true).
		Delete(&models.RefreshToken{})
	if result.Error != nil {
		tw.Logger.Printf("Error purging expired refresh tokens: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		tw.Logger.Printf("Purged %d expired refresh tokens", result.RowsAffected)
	}
}
