package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/TiaaDeals/pkg/httputil"
	"github.com/utafrali/TiaaDeals/pkg/logger"
)

func fakeValidator(token string) (*Claims, error) {
	if token == "good-token" {
		return &Claims{UserID: "user-1", Email: "ada@example.com"}, nil
	}
	return nil, errors.New("token is expired")
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		wantStatus  int
		wantMessage string
	}{
		{"missing header", "", http.StatusUnauthorized, "authorization token is required"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", http.StatusUnauthorized, "invalid authorization header format"},
		{"no token", "Bearer", http.StatusUnauthorized, "invalid authorization header format"},
		{"blank token", "Bearer   ", http.StatusUnauthorized, "invalid authorization header format"},
		{"bad token", "Bearer forged", http.StatusUnauthorized, "invalid or expired token"},
		{"valid token", "Bearer good-token", http.StatusOK, ""},
		{"scheme is case-insensitive", "bearer good-token", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser, gotEmail string
			handler := Auth(fakeValidator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = UserIDFromContext(r.Context())
				gotEmail = EmailFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "user-1", gotUser)
				assert.Equal(t, "ada@example.com", gotEmail)
				return
			}

			assert.Empty(t, gotUser, "handler must not run")
			var resp httputil.Response
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, "UNAUTHORIZED", resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
		})
	}
}

func TestAuth_ValidatorReturningEmptySubjectFailsClosed(t *testing.T) {
	handler := Auth(func(string) (*Claims, error) { return &Claims{}, nil })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("Bearer   abc.def  ")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = bearerToken("")
	assert.ErrorIs(t, err, errNoToken)
	_, err = bearerToken("Token abc")
	assert.ErrorIs(t, err, errBadAuthHeader)
}

func TestClaimsContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, ClaimsFromContext(ctx))
	assert.Empty(t, UserIDFromContext(ctx))

	ctx = WithUserID(ctx, "user-9")
	assert.Equal(t, "user-9", UserIDFromContext(ctx))
	assert.Empty(t, EmailFromContext(ctx))
	assert.Equal(t, "user-9", logger.UserIDFromContext(ctx))
}
