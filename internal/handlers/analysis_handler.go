package handlers

import (
	"errors"
	"io"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/mlclient"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AnalysisHandler struct {
	analysisService *services.AnalysisService
}

func NewAnalysisHandler(analysisService *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService}
}

// CompleteAnalysis accepts the multipart submission and runs the ML step.
// When the ML step fails the persisted record is still returned with the
// upstream status code.
func (h *AnalysisHandler) CompleteAnalysis(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return badRequest(c, "image file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "Invalid image file")
	}
	defer f.Close()
	image, err := io.ReadAll(f)
	if err != nil {
		return badRequest(c, "Invalid image file")
	}

	in := services.SubmitInput{
		UserID:      userID,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Image:       image,
		Gender:      c.FormValue("gender"),
		Answers:     c.FormValue("answers"),
		Metadata:    c.FormValue("metadata"),
	}
	analysis, err := h.analysisService.Submit(c.UserContext(), in)
	if err != nil {
		upstream := errors.Is(err, mlclient.ErrUpstreamRejected) || errors.Is(err, mlclient.ErrUpstreamUnavailable)
		if upstream && analysis != nil {
			return c.Status(statusFor(err)).JSON(dto.AnalysisFailedResponse{
				Error:    true,
				Message:  upstreamMessage(err),
				Analysis: h.toResponse(analysis),
			})
		}
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(h.toResponse(analysis))
}

func (h *AnalysisHandler) List(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	page := pageQuery(c, repository.AnalysisSortColumns)
	items, total, err := h.analysisService.List(c.UserContext(), userID, page)
	if err != nil {
		return respondError(c, err)
	}

	resp := dto.AnalysisListResponse{
		Items: make([]dto.AnalysisResponse, 0, len(items)),
		Total: total,
		Skip:  page.Skip,
		Limit: page.Limit,
	}
	for i := range items {
		resp.Items = append(resp.Items, h.toResponse(&items[i]))
	}
	return c.JSON(resp)
}

func (h *AnalysisHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid analysis id")
	}

	analysis, err := h.analysisService.Get(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(h.toResponse(analysis))
}

func (h *AnalysisHandler) toResponse(a *models.UserAnalysis) dto.AnalysisResponse {
	return dto.AnalysisResponse{
		ID:                   a.ID,
		UserID:               a.UserID,
		ImagePath:            a.ImagePath,
		ImageURL:             h.analysisService.ImageURL(a.ImagePath),
		ChatAnswers:          []byte(a.ChatAnswers),
		FaceAnalysis:         []byte(a.FaceAnalysis),
		StyleRecommendations: []byte(a.StyleRecommendations),
		PersonalizedInsights: []byte(a.PersonalizedInsights),
		CreatedAt:            a.CreatedAt,
		UpdatedAt:            a.UpdatedAt,
	}
}

func upstreamMessage(err error) string {
	if errors.Is(err, mlclient.ErrUpstreamRejected) {
		return "Analysis service rejected the image"
	}
	return "Analysis service is temporarily unavailable"
}
