package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/nap-verifier/internal/verification"
)

// ErrValidation indicates a malformed request.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the HTTP status code for an error returned by a handler or the engine.
func HTTPStatus(err error) int {
	var (
		validation   *ErrValidation
		invalid      *verification.InvalidInputError
		fieldErrs    validator.ValidationErrors
		notFound     *verification.NotFoundError
		forbidden    *verification.ForbiddenError
		unconfigured *verification.ConfigurationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &validation), errors.As(err, &invalid), errors.As(err, &fieldErrs):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &unconfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
