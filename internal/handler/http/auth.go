package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/TiaaDeals/internal/service"
	"github.com/utafrali/TiaaDeals/pkg/httputil"
	"github.com/utafrali/TiaaDeals/pkg/middleware"
)

// AuthHandler handles HTTP requests for signup, login and the current user.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// SignupRequest is the JSON request body for creating an account. The
// snake_case names first_name and last_name are accepted as well.
type SignupRequest struct {
	FirstName string `json:"firstName" validate:"required,notblank,max=100,printable"`
	LastName  string `json:"lastName" validate:"required,notblank,max=100,printable"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

// UnmarshalJSON decodes the body, falling back to the snake_case names.
func (r *SignupRequest) UnmarshalJSON(b []byte) error {
	type plain SignupRequest
	var aux struct {
		plain
		FirstNameSnake string `json:"first_name"`
		LastNameSnake  string `json:"last_name"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = SignupRequest(aux.plain)
	if r.FirstName == "" {
		r.FirstName = aux.FirstNameSnake
	}
	if r.LastName == "" {
		r.LastName = aux.LastNameSnake
	}
	r.Email = strings.TrimSpace(r.Email)
	return nil
}

// LoginRequest is the JSON request body for signing in.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- Handlers ---

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Signup(r.Context(), service.SignupInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusCreated, "Account created successfully! Welcome to TiaaDeals.", res)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "Welcome back, "+res.User.FirstName+"!", res)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", map[string]any{"user": user})
}
