package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/TiaaDeals/pkg/httputil"
	"github.com/utafrali/TiaaDeals/pkg/logger"
)

type claimsCtxKey struct{}

// Claims is the verified identity extracted from a bearer token.
type Claims struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator func(token string) (*Claims, error)

var (
	errNoToken       = errors.New("authorization token is required")
	errBadAuthHeader = errors.New("invalid authorization header format")
	errBadToken      = errors.New("invalid or expired token")
)

// bearerToken pulls the credential out of an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", errBadAuthHeader
	}
	if token = strings.TrimSpace(token); token == "" {
		return "", errBadAuthHeader
	}
	return token, nil
}

// Auth rejects requests without a valid bearer token. On success the claims
// are stored in the request context and tagged onto the log context and the
// active span. Any failure answers 401 and next is not called.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				writeAuthError(w, err)
				return
			}

			claims, err := validate(token)
			if err != nil || claims == nil || claims.UserID == "" {
				writeAuthError(w, errBadToken)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("enduser.id", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = logger.WithUserID(ctx, claims.UserID)
	return context.WithValue(ctx, claimsCtxKey{}, claims)
}

// ClaimsFromContext returns the authenticated claims, or nil outside Auth.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsCtxKey{}).(*Claims)
	return c
}

// UserIDFromContext returns the authenticated user ID, or "" outside Auth.
func UserIDFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.UserID
	}
	return ""
}

// EmailFromContext returns the authenticated user's email, or "" outside Auth.
func EmailFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.Email
	}
	return ""
}

// WithUserID is shorthand for WithClaims with only a subject set.
func WithUserID(ctx context.Context, userID string) context.Context {
	return WithClaims(ctx, &Claims{UserID: userID})
}

func writeAuthError(w http.ResponseWriter, err error) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="tiaadeals"`)
	httputil.WriteErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
}
