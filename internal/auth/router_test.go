// AngelaMos | 2026
// router_test.go

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteForRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		want    string
		wantErr bool
	}{
		{name: "admin lands on directory management", role: "admin", want: LandingAdmin},
		{name: "standard user lands on own profile", role: "user", want: LandingStandard},
		{name: "unset role is an error", role: "", wantErr: true},
		{name: "unknown role is an error", role: "superuser", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RouteForRole(tt.role)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrRoleUnassigned)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
