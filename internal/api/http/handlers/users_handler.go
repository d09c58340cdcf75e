package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/conectapg/occurrence-service/internal/api/dto"
	"github.com/conectapg/occurrence-service/internal/domain"
	"github.com/conectapg/occurrence-service/internal/service"
)

// UsersHandler exposes user account endpoints.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userList(users)})
}

// ListActive GET /users/active.
func (h *UsersHandler) ListActive(c *fiber.Ctx) error {
	users, err := h.service.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userList(users)})
}

// ListByRole GET /users/role/:role.
func (h *UsersHandler) ListByRole(c *fiber.Ctx) error {
	role, err := domain.ParseRole(c.Params("role"))
	if err != nil {
		return invalidParam("role", "has an unsupported value")
	}
	users, err := h.service.ListByRole(c.UserContext(), role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userList(users)})
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// GetByEmail GET /users/email/:email.
func (h *UsersHandler) GetByEmail(c *fiber.Ctx) error {
	user, err := h.service.GetByEmail(c.UserContext(), c.Params("email"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Create POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	input := service.UserCreateInput{
		Name:   req.Name,
		Email:  req.Email,
		Secret: req.Password,
		Active: service.FromPtr(req.Active),
	}
	if role := optionalString(req.Role); role != nil {
		input.Role = service.Some(domain.Role(*role))
	}

	user, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Update PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	input := service.UserUpdateInput{
		Name:   req.Name,
		Email:  req.Email,
		Secret: service.FromPtr(req.Password),
		Active: service.FromPtr(req.Active),
	}
	if role := optionalString(req.Role); role != nil {
		input.Role = service.Some(domain.Role(*role))
	}

	user, err := h.service.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// SetActive PATCH /users/:id/active?active=true|false.
func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	active, err := boolQuery(c, "active")
	if err != nil {
		return err
	}
	user, err := h.service.SetActive(c.UserContext(), c.Params("id"), active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Delete DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func userResponse(u *service.UserView) dto.UserResponse {
	return dto.UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            string(u.Role),
		Active:          u.Active,
		CreatedAt:       u.CreatedAt,
		OccurrenceCount: u.OccurrenceCount,
	}
}

func userList(users []service.UserView) []dto.UserResponse {
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return items
}
