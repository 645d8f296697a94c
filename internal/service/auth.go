package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/TiaaDeals/internal/domain"
	"github.com/utafrali/TiaaDeals/internal/repository"
	apperrors "github.com/utafrali/TiaaDeals/pkg/errors"
	"github.com/utafrali/TiaaDeals/pkg/tracing"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 10

// Password bounds. The minimum counts characters; the maximum is bcrypt's
// input limit and counts bytes.
const (
	MinPasswordLength = 6
	MaxPasswordBytes  = 72
)

// SignupInput holds the parameters for creating an account.
type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginInput holds the parameters for signing in.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService implements account creation and sign-in.
type AuthService struct {
	users     repository.UserRepository
	tokens    TokenIssuer
	publisher EventPublisher
	logger    *slog.Logger
	cost      int
}

// NewAuthService creates a new auth service.
func NewAuthService(users repository.UserRepository, tokens TokenIssuer, publisher EventPublisher, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		publisher: publisher,
		logger:    logger,
		cost:      bcryptCost,
	}
}

func emailExists() *apperrors.AppError {
	return (&apperrors.AppError{
		Code:    "EMAIL_EXISTS",
		Message: "This email is already registered.",
		Status:  http.StatusConflict,
		Err:     apperrors.ErrAlreadyExists,
	}).WithDetails(map[string]string{
		"email": "You can try logging in instead, or use a different email address",
	}).WithAction("LOGIN")
}

func invalidCredentials(message string) *apperrors.AppError {
	return apperrors.Unauthorized(message).WithCode("INVALID_CREDENTIALS")
}

// Signup creates an account and returns it with a bearer token.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	email := domain.NormalizeEmail(input.Email)
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)

	if email == "" || firstName == "" || lastName == "" || input.Password == "" {
		return nil, apperrors.InvalidInput("Please fill in all required fields.").WithCode("MISSING_FIELDS")
	}
	if utf8.RuneCountInString(input.Password) < MinPasswordLength {
		return nil, apperrors.InvalidInput("Please choose a stronger password.").
			WithCode("WEAK_PASSWORD").
			WithDetails(map[string]string{"password": fmt.Sprintf("must be at least %d characters", MinPasswordLength)})
	}
	if len(input.Password) > MaxPasswordBytes {
		return nil, apperrors.InvalidInput("Please choose a shorter password.").
			WithCode("WEAK_PASSWORD").
			WithDetails(map[string]string{"password": fmt.Sprintf("must be at most %d bytes", MaxPasswordBytes)})
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, emailExists()
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same email.
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, emailExists()
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.publisher.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and returns the user with a fresh token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := domain.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.InvalidInput("Please enter both email and password.").WithCode("MISSING_FIELDS")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, invalidCredentials("We couldn't find an account with this email.").
				WithDetails(map[string]string{"suggestion": "Please check your email or create a new account"}).
				WithAction("SIGNUP")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	_, span := tracing.Start(ctx, "auth.compare_password")
	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password))
	span.End()
	if err != nil {
		return nil, invalidCredentials("The password you entered is incorrect.").
			WithDetails(map[string]string{"suggestion": "Please check your password and try again"})
	}

	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in", slog.String("user_id", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// Me returns the authenticated user's profile.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
