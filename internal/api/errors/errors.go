package errors

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "audioscribe/internal/app/errors"
)

// ErrorKind classifies an API error for status-code mapping.
type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindBadRequest         ErrorKind = "bad_request"
	KindNotFound           ErrorKind = "not_found"
	KindInternal           ErrorKind = "internal"
	KindServiceUnavailable ErrorKind = "service_unavailable"
)

// APIError is the JSON error body every endpoint returns on failure.
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus maps the error kind to a status code.
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{Kind: KindValidation, Message: message, Details: fields}
}

func NewBadRequestError(message string) *APIError {
	return &APIError{Kind: KindBadRequest, Message: message}
}

func NewNotFoundError(resource string) *APIError {
	return &APIError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func NewInternalError(message string) *APIError {
	return &APIError{Kind: KindInternal, Message: message}
}

func NewServiceUnavailableError(message string) *APIError {
	return &APIError{Kind: KindServiceUnavailable, Message: message}
}

// FromDomain translates a domain error into its API shape. Unsupported
// uploads are the client's fault; a Redis outage is reported as unavailable;
// anything else is an internal error.
func FromDomain(err error) *APIError {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apperrors.ErrUnsupportedFileType):
		return NewBadRequestError(err.Error())
	case errors.Is(err, apperrors.ErrBackendUnavailable):
		return NewServiceUnavailableError(err.Error())
	default:
		return NewInternalError(err.Error())
	}
}
