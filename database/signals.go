package database

import (
	"context"
	"time"

	"inverpulse/models"

	"gorm.io/gorm"
)

// ExpireSignals closes active signals whose expiry has passed and returns how
// many were closed. Both the scheduler and the cron endpoint run it.
func ExpireSignals(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).Model(&models.TradingSignal{}).
		Where("status = ? AND expires_at <= ?", models.SignalActive, now).
		Update("status", models.SignalClosed)
	return res.RowsAffected, res.Error
}
