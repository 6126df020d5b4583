// AngelaMos | 2026
// dto_test.go

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dramos02/employee-directory/internal/core"
)

func validRegisterRequest() RegisterRequest {
	return RegisterRequest{
		FullName:        "Juan Dela Cruz",
		Email:           "juan@example.com",
		Phone:           "09171234567",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
}

func TestRegisterRequestValidation(t *testing.T) {
	v := core.NewValidator()

	tests := []struct {
		name    string
		mutate  func(*RegisterRequest)
		wantErr bool
	}{
		{
			name:   "valid request",
			mutate: func(r *RegisterRequest) {},
		},
		{
			name:    "empty full name",
			mutate:  func(r *RegisterRequest) { r.FullName = "" },
			wantErr: true,
		},
		{
			name:    "malformed email",
			mutate:  func(r *RegisterRequest) { r.Email = "not-an-email" },
			wantErr: true,
		},
		{
			name:    "phone too long",
			mutate:  func(r *RegisterRequest) { r.Phone = "091234567890" },
			wantErr: true,
		},
		{
			name:    "phone too short",
			mutate:  func(r *RegisterRequest) { r.Phone = "0912345678" },
			wantErr: true,
		},
		{
			name:    "phone wrong prefix",
			mutate:  func(r *RegisterRequest) { r.Phone = "08123456789" },
			wantErr: true,
		},
		{
			name:    "phone with letters",
			mutate:  func(r *RegisterRequest) { r.Phone = "0912345678a" },
			wantErr: true,
		},
		{
			name:   "phone exactly eleven digits",
			mutate: func(r *RegisterRequest) { r.Phone = "09123456789" },
		},
		{
			name:    "password below six chars",
			mutate:  func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "five5", "five5" },
			wantErr: true,
		},
		{
			name:   "password exactly six chars",
			mutate: func(r *RegisterRequest) { r.Password, r.ConfirmPassword = "sixsix", "sixsix" },
		},
		{
			name:    "password confirmation mismatch",
			mutate:  func(r *RegisterRequest) { r.ConfirmPassword = "different" },
			wantErr: true,
		},
		{
			name:    "missing confirmation",
			mutate:  func(r *RegisterRequest) { r.ConfirmPassword = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRegisterRequest()
			tt.mutate(&req)

			err := v.Struct(req)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginRequestValidation(t *testing.T) {
	v := core.NewValidator()

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, v.Struct(LoginRequest{
			Email:    "juan@example.com",
			Password: "whatever",
		}))
	})

	// Login deliberately has no minimum password length: the form only
	// checks presence, and length policy applies at registration.
	t.Run("short password accepted", func(t *testing.T) {
		assert.NoError(t, v.Struct(LoginRequest{
			Email:    "juan@example.com",
			Password: "x",
		}))
	})

	t.Run("missing email rejected", func(t *testing.T) {
		assert.Error(t, v.Struct(LoginRequest{Password: "whatever"}))
	})
}
