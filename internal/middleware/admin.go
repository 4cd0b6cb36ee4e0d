package middleware

import (
	"context"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// AdminChecker decides whether a user currently holds admin rights.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// AdminRequired admits callers that are admins by configured email or by
// their stored role. It must run after JWTProtected.
func AdminRequired(checker AdminChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}

		ok, err := checker.IsAdmin(c.UserContext(), userID)
		if err != nil {
			slog.Error("admin check failed", "user_id", userID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Internal server error",
			})
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Admin access required",
			})
		}
		return c.Next()
	}
}
