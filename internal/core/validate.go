// AngelaMos | 2026
// validate.go

package core

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Mobile numbers follow the original directory's convention:
// "09" followed by nine digits, eleven digits total.
var mobileRegexp = regexp.MustCompile(`^09\d{9}$`)

// NewValidator returns a validator with the domain rules registered.
// All handlers share this constructor so the custom tags stay in sync.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	//nolint:errcheck // registration only fails for empty tag names
	_ = v.RegisterValidation("phmobile", func(fl validator.FieldLevel) bool {
		return mobileRegexp.MatchString(fl.Field().String())
	})

	return v
}
