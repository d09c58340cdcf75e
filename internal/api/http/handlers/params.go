package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/conectapg/occurrence-service/pkg/util"
)

func invalidPayload() error {
	return apperrors.NewValidationError("invalid payload", map[string]any{"payload": "invalid json"})
}

func invalidParam(name, reason string) error {
	return apperrors.NewValidationError("invalid parameter", map[string]any{name: reason})
}

func boolQuery(c *fiber.Ctx, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, invalidParam(name, "is required")
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, invalidParam(name, "must be true or false")
	}
	return value, nil
}

func optionalString(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
