package handlers

import (
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type GroomingHandler struct {
	groomingService *services.GroomingService
}

func NewGroomingHandler(groomingService *services.GroomingService) *GroomingHandler {
	return &GroomingHandler{groomingService: groomingService}
}

func (h *GroomingHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req dto.CreateGroomingHistoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	record, err := h.groomingService.Create(c.UserContext(), userID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toHistoryResponse(record))
}

func (h *GroomingHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	page := pageQuery(c, repository.HistorySortColumns)
	records, total, err := h.groomingService.List(c.UserContext(), userID, page)
	if err != nil {
		return respondError(c, err)
	}

	resp := dto.GroomingHistoryListResponse{
		Items: make([]dto.GroomingHistoryResponse, 0, len(records)),
		Total: total,
		Skip:  page.Skip,
		Limit: page.Limit,
	}
	for i := range records {
		resp.Items = append(resp.Items, toHistoryResponse(&records[i]))
	}
	return c.JSON(resp)
}

func (h *GroomingHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid history id")
	}

	record, err := h.groomingService.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toHistoryResponse(record))
}

func (h *GroomingHandler) Update(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid history id")
	}

	var req dto.UpdateGroomingHistoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	record, err := h.groomingService.Update(c.UserContext(), userID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toHistoryResponse(record))
}

func (h *GroomingHandler) Delete(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid history id")
	}

	if err := h.groomingService.Delete(c.UserContext(), userID, id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HomeStats never fails; figures that cannot be computed fall back to defaults.
func (h *GroomingHandler) HomeStats(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	return c.JSON(h.groomingService.HomeStats(c.UserContext(), userID))
}

func (h *GroomingHandler) WeeklySummary(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	return c.JSON(h.groomingService.WeeklySummary(c.UserContext(), userID))
}

func (h *GroomingHandler) Achievements(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	return c.JSON(h.groomingService.Achievements(c.UserContext(), userID))
}

func toHistoryResponse(r *models.GroomingHistory) dto.GroomingHistoryResponse {
	return dto.GroomingHistoryResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		AnalysisData:   []byte(r.AnalysisData),
		BeforeImageURL: r.BeforeImageURL,
		AfterImageURL:  r.AfterImageURL,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
