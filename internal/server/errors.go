// Package server provides the HTTP API for the resume assistant.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/resume-assistant/internal/db"
	"github.com/jonathan/resume-assistant/internal/fetch"
	"github.com/jonathan/resume-assistant/internal/ingestion"
	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/pipeline"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrRunNotFound indicates a run ID with no stored run
type ErrRunNotFound struct {
	RunID uuid.UUID
}

func (e *ErrRunNotFound) Error() string {
	return fmt.Sprintf("run not found: %s", e.RunID)
}

// ErrBusy indicates every run slot is taken
type ErrBusy struct {
	Limit int64
}

func (e *ErrBusy) Error() string {
	return fmt.Sprintf("server busy: %d runs already in progress", e.Limit)
}

// ErrStoreDisabled indicates run history was requested without a database
type ErrStoreDisabled struct{}

func (e *ErrStoreDisabled) Error() string {
	return "run history is not available: no database configured"
}

// validationError converts validator output into an ErrValidation for the
// first failing field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	fe := verrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "is required"
	case "url":
		msg = "must be a valid URL"
	case "oneof":
		msg = "must be one of " + fe.Param()
	case "excluded_with":
		msg = "cannot be combined with job_description"
	default:
		msg = fmt.Sprintf("failed %q validation", fe.Tag())
	}
	return &ErrValidation{Field: fe.Field(), Message: msg}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *ErrValidation
		notFoundErr   *ErrRunNotFound
		busyErr       *ErrBusy
		disabledErr   *ErrStoreDisabled
		fetchErr      *fetch.Error
		generationErr *llm.GenerationError
	)
	switch {
	case errors.As(err, &validationErr), errors.Is(err, ingestion.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &busyErr), errors.As(err, &disabledErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, pipeline.ErrClassificationAmbiguous),
		errors.As(err, &generationErr),
		errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
