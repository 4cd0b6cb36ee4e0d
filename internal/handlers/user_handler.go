package handlers

import (
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/repository"
	"github.com/ahmetcoskunkizilkaya/groomify-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List is admin only; the route applies AdminRequired.
func (h *UserHandler) List(c *fiber.Ctx) error {
	page := pageQuery(c, repository.UserSortColumns)
	users, total, err := h.userService.List(c.UserContext(), page)
	if err != nil {
		return respondError(c, err)
	}

	resp := dto.UserListResponse{
		Users: make([]dto.UserResponse, 0, len(users)),
		Total: total,
		Skip:  page.Skip,
		Limit: page.Limit,
	}
	for i := range users {
		resp.Users = append(resp.Users, services.UserToResponse(&users[i]))
	}
	return c.JSON(resp)
}

func (h *UserHandler) Get(c *fiber.Ctx) error {
	actorID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	user, err := h.userService.Get(c.UserContext(), actorID, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(services.UserToResponse(user))
}

func (h *UserHandler) Update(c *fiber.Ctx) error {
	actorID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.userService.Update(c.UserContext(), actorID, id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(services.UserToResponse(user))
}

func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return badRequest(c, "Invalid user id")
	}

	if err := h.userService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *UserHandler) UploadAvatar(c *fiber.Ctx) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return badRequest(c, "avatar file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "Invalid avatar file")
	}
	defer f.Close()

	user, err := h.userService.UploadAvatar(c.UserContext(), userID, fh.Filename, f)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(services.UserToResponse(user))
}
