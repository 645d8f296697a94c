package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
	"github.com/utafrali/TiaaDeals/pkg/logger"
	"github.com/utafrali/TiaaDeals/pkg/validator"
)

// Response is the envelope every endpoint answers with. Exactly one of Data
// and Error is set, and Success tells which.
type Response struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

// ErrorResponse is the error half of Response. Action is a hint for the
// client, such as "LOGIN" after a duplicate signup.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Action    string            `json:"action,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func failure(e *ErrorResponse) Response { return Response{Error: e} }

// WriteJSON encodes v with status. Once the header is out an encode error
// has nowhere to go, so it is dropped.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteSuccess(w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{Success: true, Message: message, Data: data})
}

func WriteErrorCode(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, failure(&ErrorResponse{Code: code, Message: message}))
}

// WriteError maps err through apperrors.Classify. Server-side failures are
// logged with the request logger, or fallback when the request carries none,
// and the client only sees the generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	ctx := r.Context()
	ae := apperrors.Classify(err)

	if ae.Status >= http.StatusInternalServerError {
		l := logger.FromContext(ctx)
		if l == slog.Default() && fallback != nil {
			l = fallback
		}
		l.LogAttrs(ctx, slog.LevelError, "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, ae.Status, failure(&ErrorResponse{
		Code:      ae.Code,
		Message:   ae.Message,
		Details:   ae.Details,
		Action:    ae.Action,
		RequestID: logger.CorrelationIDFromContext(ctx),
	}))
}

// WriteValidationError answers 400. A *validator.ValidationError becomes
// VALIDATION_ERROR with one detail per field; anything else is INVALID_INPUT.
func WriteValidationError(w http.ResponseWriter, err error) {
	var ve *validator.ValidationError
	if !errors.As(err, &ve) {
		WriteErrorCode(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	WriteJSON(w, http.StatusBadRequest, failure(&ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "request validation failed",
		Details: ve.Fields(),
	}))
}

// ParseUUID parses raw as a UUID. On failure it has already answered 400
// with INVALID_<RESOURCE>_ID (INVALID_PARAMETER without a resource) and the
// caller should return.
func ParseUUID(w http.ResponseWriter, resource, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err == nil {
		return id, true
	}
	code := "INVALID_PARAMETER"
	if resource != "" {
		code = "INVALID_" + strings.ToUpper(resource) + "_ID"
	}
	WriteErrorCode(w, http.StatusBadRequest, code, "invalid UUID: "+raw)
	return uuid.Nil, false
}
