package services

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	maxBioLength     = 150
	maxCaptionLength = 2200
	minPasswordLen   = 8
	maxPasswordBytes = 72
	minSearchLength  = 2
	maxSearchResults = 10
	defaultRecent    = 50
	maxRecent        = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]{3,30}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("tld", func(fl validator.FieldLevel) bool {
		return hasTLD(fl.Field().String())
	})
	// bcrypt only accepts the first 72 bytes, max= counts runes
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})

	return v
}

// hasTLD reports whether the domain of an address has a dotted suffix
func hasTLD(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

// validateStruct runs tag validation and converts the first failure into a
// ValidationError
func validateStruct(s any) error {
	if err := validate.Struct(s); err != nil {
		return toValidationError("", err)
	}
	return nil
}

// validateVar validates a single value under the given field name
func validateVar(field string, value any, tag string) error {
	if err := validate.Var(value, tag); err != nil {
		return toValidationError(field, err)
	}
	return nil
}

func toValidationError(field string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return newValidationError(field, "invalid input")
	}

	fe := verrs[0]
	name := fe.Field()
	if name == "" {
		name = field
	}

	switch fe.Tag() {
	case "required":
		return newValidationError(name, "%s is required", name)
	case "email", "tld":
		return newValidationError(name, "%s must be a valid email address", name)
	case "min":
		return newValidationError(name, "%s must be at least %s characters", name, fe.Param())
	case "max":
		return newValidationError(name, "%s must be at most %s characters", name, fe.Param())
	case "bcryptlen":
		return newValidationError(name, "%s must be at most %d bytes", name, maxPasswordBytes)
	case "username":
		return newValidationError(name, "%s must be 3-30 characters of letters, digits, '_', '.' or '-'", name)
	default:
		return newValidationError(name, "%s is invalid", name)
	}
}

// normalizeEmail trims and lower-cases an address
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeOptional trims s and maps an empty result to nil
func normalizeOptional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
