package handlers

import (
	"context"
	"time"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthProber reports ML service liveness without ever failing.
type HealthProber interface {
	Health(ctx context.Context) bool
}

type HealthHandler struct {
	db *gorm.DB
	ml HealthProber
}

func NewHealthHandler(db *gorm.DB, ml HealthProber) *HealthHandler {
	return &HealthHandler{db: db, ml: ml}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(h.db); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	mlStatus := "unhealthy"
	if h.ml != nil && h.ml.Health(c.UserContext()) {
		mlStatus = "ok"
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		MLService: mlStatus,
	})
}
