package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/conectapg/occurrence-service/internal/api/dto"
	"github.com/conectapg/occurrence-service/internal/domain"
	"github.com/conectapg/occurrence-service/internal/service"
)

// OccurrencesHandler exposes occurrence endpoints.
type OccurrencesHandler struct {
	service *service.OccurrenceService
}

// NewOccurrencesHandler constructs handler.
func NewOccurrencesHandler(occurrenceService *service.OccurrenceService) *OccurrencesHandler {
	return &OccurrencesHandler{service: occurrenceService}
}

// List GET /occurrences.
func (h *OccurrencesHandler) List(c *fiber.Ctx) error {
	items, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrenceList(items)})
}

// ListByStatus GET /occurrences/status/:status.
func (h *OccurrencesHandler) ListByStatus(c *fiber.Ctx) error {
	status, err := domain.ParseStatus(c.Params("status"))
	if err != nil {
		return invalidParam("status", "has an unsupported value")
	}
	items, err := h.service.ListByStatus(c.UserContext(), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrenceList(items)})
}

// ListByOwner GET /occurrences/user/:userId.
func (h *OccurrencesHandler) ListByOwner(c *fiber.Ctx) error {
	items, err := h.service.ListByOwner(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrenceList(items)})
}

// ListByLocation GET /occurrences/location?location=.
func (h *OccurrencesHandler) ListByLocation(c *fiber.Ctx) error {
	items, err := h.service.ListByLocation(c.UserContext(), c.Query("location"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrenceList(items)})
}

// Get GET /occurrences/:id.
func (h *OccurrencesHandler) Get(c *fiber.Ctx) error {
	item, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrenceResponse(item)})
}

// Create POST /occurrences.
func (h *OccurrencesHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateOccurrenceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	input := service.OccurrenceCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Type:        domain.OccurrenceType(req.Type),
		OwnerID:     req.UserID,
	}
	if status := optionalString(req.Status); status != nil {
		input.Status = service.Some(domain.OccurrenceStatus(*status))
	}

	item, err := h.service.Create(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": occurrenceResponse(item)})
}

// Update PUT /occurrences/:id.
func (h *OccurrencesHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateOccurrenceRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidPayload()
	}

	input := service.OccurrenceUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		Type:        domain.OccurrenceType(req.Type),
	}
	if status := optionalString(req.Status); status != nil {
		input.Status = service.Some(domain.OccurrenceStatus(*status))
	}

	item, err := h.service.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrenceResponse(item)})
}

// SetStatus PATCH /occurrences/:id/status?status=.
func (h *OccurrencesHandler) SetStatus(c *fiber.Ctx) error {
	status, err := domain.ParseStatus(c.Query("status"))
	if err != nil {
		return invalidParam("status", "has an unsupported value")
	}
	item, err := h.service.SetStatus(c.UserContext(), c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": occurrenceResponse(item)})
}

// Delete DELETE /occurrences/:id.
func (h *OccurrencesHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func occurrenceResponse(o *service.OccurrenceView) dto.OccurrenceResponse {
	return dto.OccurrenceResponse{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		Location:    o.Location,
		Type:        string(o.Type),
		Status:      string(o.Status),
		Owner: dto.OwnerSummary{
			ID:    o.Owner.ID,
			Name:  o.Owner.Name,
			Email: o.Owner.Email,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

func occurrenceList(items []service.OccurrenceView) []dto.OccurrenceResponse {
	out := make([]dto.OccurrenceResponse, 0, len(items))
	for i := range items {
		out = append(out, occurrenceResponse(&items[i]))
	}
	return out
}
