package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/mlclient"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

// statusFor maps service and client errors to HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidArgument), errors.Is(err, mlclient.ErrInvalidArgument):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrEmailTaken):
		return fiber.StatusConflict
	case errors.Is(err, mlclient.ErrUpstreamRejected):
		return fiber.StatusBadGateway
	case errors.Is(err, mlclient.ErrUpstreamUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

func respondError(c *fiber.Ctx, err error) error {
	code := statusFor(err)
	message := err.Error()
	switch code {
	case fiber.StatusInternalServerError:
		slog.Error("request failed",
			"request_id", requestID(c),
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
		message = "Internal server error"
	case fiber.StatusNotFound:
		message = "Not found"
	case fiber.StatusForbidden:
		message = "Access denied"
	}
	return c.Status(code).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: message})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: true, Message: "Unauthorized"})
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// currentUser resolves the authenticated caller.
func currentUser(c *fiber.Ctx) (uint, bool) {
	id, err := middleware.UserID(c)
	if err != nil {
		return 0, false
	}
	return id, true
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// pageQuery reads skip, limit, order_by and order; NewPage clamps them and
// drops any order_by outside sortable.
func pageQuery(c *fiber.Ctx, sortable []string) repository.Page {
	return repository.NewPage(
		c.QueryInt("skip", 0),
		c.QueryInt("limit", repository.DefaultLimit),
		c.Query("order_by"),
		c.Query("order"),
		sortable...,
	)
}
