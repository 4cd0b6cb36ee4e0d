package handlers

import (
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type FeaturesHandler struct {
	featuresService *services.FeaturesService
}

func NewFeaturesHandler(featuresService *services.FeaturesService) *FeaturesHandler {
	return &FeaturesHandler{featuresService: featuresService}
}

func (h *FeaturesHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	items, err := h.featuresService.List(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

func (h *FeaturesHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	f, err := h.featuresService.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(f)
}
