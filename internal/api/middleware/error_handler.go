package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"audioscribe/internal/api/errors"
)

// ErrorHandler converts panics into JSON error responses. Handler code
// signals expected failures through HandleError; anything that reaches the
// recovery path is logged with its request ID and reported as internal.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		requestID := c.GetString("request_id")

		var apiErr *errors.APIError

		switch err := recovered.(type) {
		case *errors.APIError:
			apiErr = err
			apiErr.RequestID = requestID
		case error:
			logger.Error("Internal server error",
				"error", err.Error(),
				"request_id", requestID,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			apiErr = &errors.APIError{
				Kind:      errors.KindInternal,
				Message:   "Internal server error",
				RequestID: requestID,
			}
		default:
			logger.Error("Unknown panic occurred",
				"recovered", recovered,
				"request_id", requestID,
			)
			apiErr = &errors.APIError{
				Kind:      errors.KindInternal,
				Message:   "Internal server error",
				RequestID: requestID,
			}
		}

		c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
	})
}

// HandleError writes an error response for expected failures. Non-API
// errors are first translated through the domain mapping.
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	apiErr, ok := err.(*errors.APIError)
	if !ok {
		apiErr = errors.FromDomain(err)
	}
	apiErr.RequestID = c.GetString("request_id")
	c.AbortWithStatusJSON(apiErr.HTTPStatus(), apiErr)
}
