package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/resume-screener/internal/types"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a job or application does not exist
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ErrPayloadTooLarge indicates an upload over the configured size limit
type ErrPayloadTooLarge struct {
	Limit int64
}

func (e *ErrPayloadTooLarge) Error() string {
	return fmt.Sprintf("upload exceeds %d bytes", e.Limit)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validation   *ErrValidation
		notFound     *ErrNotFound
		tooLarge     *ErrPayloadTooLarge
		transition   *types.ErrInvalidTransition
		fieldErrors  validator.ValidationErrors
		invalidInput *validator.InvalidValidationError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, types.ErrDuplicateApplication):
		return http.StatusConflict
	case errors.As(err, &transition):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &validation), errors.As(err, &fieldErrors), errors.As(err, &invalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
