// AngelaMos | 2026
// router.go

package auth

import (
	"errors"
)

// ErrRoleUnassigned is returned when an authenticated employee has no
// provisioned role. The original flow silently skipped navigation in
// this case; here it is an explicit, surfaced condition so stuck
// accounts are visible instead of hanging on a blank screen.
var ErrRoleUnassigned = errors.New("no role assigned")

const (
	LandingAdmin    = "/v1/admin/employees"
	LandingStandard = "/v1/employees/me"
)

// RouteForRole maps a provisioned role to the view the client should
// load after authentication. Admin wins; standard users go to their
// own profile; anything else is an error.
func RouteForRole(role string) (string, error) {
	switch role {
	case "admin":
		return LandingAdmin, nil
	case "user":
		return LandingStandard, nil
	default:
		return "", ErrRoleUnassigned
	}
}
