package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	t.Run("keeps domain errors", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", NewConflict("email already registered", nil))
		de := ToDomainError(err)
		assert.Equal(t, CodeConflict, de.Code)
		assert.Equal(t, http.StatusConflict, de.HTTPStatus)
	})

	t.Run("maps unknown errors to internal", func(t *testing.T) {
		cause := errors.New("connection refused")
		de := ToDomainError(cause)
		assert.Equal(t, CodeInternal, de.Code)
		assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
		assert.ErrorIs(t, de, cause)
		assert.Equal(t, "internal server error", de.Message)
	})

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, ToDomainError(nil))
		assert.NoError(t, MapError(nil))
	})
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewNotFound("user", nil), CodeNotFound))
	assert.True(t, HasCode(NewValidationError("invalid input", nil), CodeValidation))
	assert.False(t, HasCode(NewNotFound("user", nil), CodeConflict))
	assert.False(t, HasCode(errors.New("plain"), CodeInternal))
}

func TestNewNotFoundMessage(t *testing.T) {
	err := NewNotFound("owner", map[string]any{"owner_id": "42"})
	assert.Equal(t, "owner not found", err.Error())
}
