package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.SystemLog{}))
	return db
}

func TestDBHandlerStoresOnlyErrors(t *testing.T) {
	db := newTestDB(t)
	h := NewDBHandler(db, time.Hour)
	log := slog.New(h).With("request_id", "req-1")

	log.Info("ignored")
	log.Error("upload failed", "error", "disk full", "user_id", "42", "latency_ms", 12.6, "path", "/x", "method", "POST")
	h.Stop()

	var rows []models.SystemLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "upload failed", rows[0].Message)
	assert.Equal(t, "req-1", rows[0].RequestID)
	assert.Equal(t, "disk full", rows[0].Error)
	require.NotNil(t, rows[0].UserID)
	assert.Equal(t, "42", *rows[0].UserID)
	assert.Equal(t, 13, rows[0].LatencyMs)
	assert.Equal(t, "/x", rows[0].Path)
	assert.JSONEq(t, `{"method":"POST"}`, string(rows[0].Extra))
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, &slog.HandlerOptions{Level: slog.LevelInfo}),
		slog.NewTextHandler(&b, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	log := slog.New(h)

	log.Info("hello")
	assert.Contains(t, a.String(), "hello")
	assert.Empty(t, b.String())

	log.Error("boom")
	assert.Contains(t, b.String(), "boom")
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestPurgeOlderThan(t *testing.T) {
	db := newTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.Create(&[]models.SystemLog{
		{Timestamp: now.AddDate(0, 0, -40), Level: "ERROR", Message: "old"},
		{Timestamp: now.AddDate(0, 0, -2), Level: "ERROR", Message: "recent"},
	}).Error)

	assert.Equal(t, int64(1), PurgeOlderThan(db, 30, now))
	assert.Zero(t, PurgeOlderThan(db, 0, now))

	var left []models.SystemLog
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "recent", left[0].Message)
}
