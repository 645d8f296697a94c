package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors. Repositories and services wrap these so callers can test
// the category with errors.Is.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternal      = errors.New("internal error")
	ErrConflict      = errors.New("conflict")
	ErrRateLimited   = errors.New("rate limited")
)

const internalMessage = "an internal error occurred"

// kind maps a sentinel to its HTTP status, default code and the message
// shown when nothing more specific is known.
type kind struct {
	sentinel error
	status   int
	code     string
	message  string
}

var kinds = []kind{
	{ErrNotFound, http.StatusNotFound, "NOT_FOUND", "resource not found"},
	{ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS", "resource already exists"},
	{ErrConflict, http.StatusConflict, "CONFLICT", "request conflicts with current state"},
	{ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT", ""},
	{ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"},
	{ErrForbidden, http.StatusForbidden, "FORBIDDEN", "access denied"},
	{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests"},
}

// AppError is an error with everything the response envelope needs.
// Details and Action are optional client hints.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
	Action  string            `json:"action,omitempty"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCode overrides the machine-readable error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithDetails attaches a field-to-message map to the error.
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// WithAction attaches a client action hint (e.g. "LOGIN").
func (e *AppError) WithAction(action string) *AppError {
	e.Action = action
	return e
}

func newError(sentinel error, message string) *AppError {
	for _, k := range kinds {
		if k.sentinel == sentinel {
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: sentinel}
		}
	}
	return &AppError{Code: "INTERNAL_ERROR", Message: message, Status: http.StatusInternalServerError, Err: sentinel}
}

// NotFound creates a 404 error. The code is derived from the resource name,
// so NotFound("product", id) yields PRODUCT_NOT_FOUND.
func NotFound(resource, id string) *AppError {
	return newError(ErrNotFound, fmt.Sprintf("%s with id %s not found", resource, id)).
		WithCode(resourceCode(resource) + "_NOT_FOUND")
}

// AlreadyExists creates a 409 error for a uniqueness clash.
func AlreadyExists(resource, field, value string) *AppError {
	return newError(ErrAlreadyExists, fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// Conflict creates a 409 error for a state conflict.
func Conflict(message string) *AppError { return newError(ErrConflict, message) }

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError { return newError(ErrInvalidInput, message) }

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError { return newError(ErrUnauthorized, message) }

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError { return newError(ErrForbidden, message) }

// RateLimited creates a 429 error.
func RateLimited(message string) *AppError { return newError(ErrRateLimited, message) }

// Internal creates a 500 error. The cause is kept for logging only.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: internalMessage,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Classify returns the AppError describing err. An AppError anywhere in the
// chain is returned as is; an error wrapping a sentinel gets that sentinel's
// status, code and generic message; anything else is Internal. The result
// never carries driver text for 5xx errors.
func Classify(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status >= http.StatusInternalServerError {
			return Internal(err)
		}
		return appErr
	}
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			message := k.message
			if message == "" {
				message = err.Error()
			}
			return &AppError{Code: k.code, Message: message, Status: k.status, Err: err}
		}
	}
	return Internal(err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	return Classify(err).Status
}

func resourceCode(resource string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(resource), " ", "_"))
}
