package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/conectapg/occurrence-service/pkg/util"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		e, ok := fl.Field().Interface().(interface{ Valid() bool })
		return ok && e.Valid()
	})
	return v
}

// rule validates one input field against a validator tag.
type rule struct {
	field string
	value any
	tag   string
}

// check runs every rule and reports all failures at once, keyed by field.
func check(rules ...rule) error {
	details := map[string]any{}
	for _, r := range rules {
		err := validate.Var(r.value, r.tag)
		if err == nil {
			continue
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			details[r.field] = fieldMessage(verrs[0])
			continue
		}
		details[r.field] = "is invalid"
	}
	if len(details) == 0 {
		return nil
	}
	return apperrors.NewValidationError("validation failed", details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "email":
		return "must be a valid email"
	case "enum":
		return "has an unsupported value"
	default:
		return "is invalid"
	}
}
