package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"audioscribe/internal/api/errors"
)

// ValidateQuery binds query parameters into req and reports tag violations
// as a field-keyed validation error.
func ValidateQuery(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindQuery(req); err != nil {
		validationErrors := make(map[string]string)

		if validationErrs, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrs {
				field := strings.ToLower(fieldError.Field())

				switch fieldError.Tag() {
				case "min":
					validationErrors[field] = "is too small"
				case "max":
					validationErrors[field] = "is too large"
				case "oneof":
					validationErrors[field] = "must be one of the allowed values"
				default:
					validationErrors[field] = "is invalid"
				}
			}
		} else {
			validationErrors["query"] = "invalid query parameters"
		}

		return errors.NewValidationError("Validation failed", validationErrors)
	}

	return nil
}
