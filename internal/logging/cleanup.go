package logging

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// StartCleanup schedules a daily purge of system_logs older than retentionDays.
// The caller stops the returned scheduler on shutdown.
func StartCleanup(db *gorm.DB, retentionDays int) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))
	if _, err := c.AddFunc("@daily", func() { PurgeOlderThan(db, retentionDays, time.Now()) }); err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}

// PurgeOlderThan deletes system_logs written more than retentionDays before now.
func PurgeOlderThan(db *gorm.DB, retentionDays int, now time.Time) int64 {
	if retentionDays <= 0 {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "error", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}
