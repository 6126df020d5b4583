// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dramos02/employee-directory/internal/core"
)

type fakeVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (v *fakeVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	return v.claims, v.err
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer token", header: "Bearer abc123", want: "abc123"},
		{name: "lowercase scheme", header: "bearer abc123", want: "abc123"},
		{name: "missing header", header: "", want: ""},
		{name: "wrong scheme", header: "Basic abc123", want: ""},
		{name: "scheme only", header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(r))
		})
	}
}

func TestAuthenticatorSetsContext(t *testing.T) {
	verifier := &fakeVerifier{claims: &AccessTokenClaims{
		EmployeeID: "emp-1",
		Role:       "admin",
	}}

	var gotID, gotRole string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetEmployeeID(r.Context())
		gotRole = GetEmployeeRole(r.Context())
	})

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer token")

	Authenticator(verifier)(next).ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "emp-1", gotID)
	assert.Equal(t, "admin", gotRole)
}

func TestAuthenticatorRejectsMissingToken(t *testing.T) {
	verifier := &fakeVerifier{claims: &AccessTokenClaims{EmployeeID: "emp-1"}}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	})

	Authenticator(verifier)(next).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticatorMapsTokenErrors(t *testing.T) {
	verifier := &fakeVerifier{err: core.ErrTokenExpired}

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer stale")

	Authenticator(verifier)(http.NotFoundHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_EXPIRED")
}

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name       string
		role       string
		employeeID string
		wantStatus int
	}{
		{name: "admin passes", role: "admin", employeeID: "e1", wantStatus: http.StatusOK},
		{name: "standard user forbidden", role: "user", employeeID: "e1", wantStatus: http.StatusForbidden},
		{name: "unset role forbidden", role: "", employeeID: "e1", wantStatus: http.StatusForbidden},
		{name: "unauthenticated", role: "", employeeID: "", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			ctx := r.Context()
			if tt.employeeID != "" {
				ctx = context.WithValue(ctx, EmployeeIDKey, tt.employeeID)
				ctx = context.WithValue(ctx, EmployeeRoleKey, tt.role)
			}

			ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			RequireAdmin(ok).ServeHTTP(rec, r.WithContext(ctx))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestIsAdmin(t *testing.T) {
	ctx := context.WithValue(context.Background(), EmployeeRoleKey, "admin")
	assert.True(t, IsAdmin(ctx))
	assert.False(t, IsAdmin(context.Background()))
}
