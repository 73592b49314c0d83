package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

const (
	minPasswordLength = 8
	// bcrypt rejects longer inputs.
	maxPasswordBytes = 72
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return PasswordPolicyOK(fl.Field().String())
	})
	return v
}

// PasswordPolicyOK reports whether pw has at least 8 characters, at most 72
// bytes, a digit and one of the accepted special characters.
func PasswordPolicyOK(pw string) bool {
	if len([]rune(pw)) < minPasswordLength || len(pw) > maxPasswordBytes {
		return false
	}
	hasDigit := strings.IndexFunc(pw, unicode.IsDigit) >= 0
	hasSpecial := strings.ContainsAny(pw, passwordSpecials)
	return hasDigit && hasSpecial
}

// FieldError describes one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// Validate checks req against its struct tags and returns a validation
// DomainError listing every failed field.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return apperrors.NewValidationError("invalid request", nil)
	}
	details := make([]FieldError, len(ve))
	for i, fe := range ve {
		details[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: fieldMessage(fe)}
	}
	return apperrors.NewValidationError("Validation failed", details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", fe.Field(), fe.Param())
	case "eqfield":
		return "Passwords do not match"
	case "password":
		return fmt.Sprintf("%s must be %d characters to %d bytes long and contain a number and a special character", fe.Field(), minPasswordLength, maxPasswordBytes)
	default:
		return fmt.Sprintf("%s failed on the '%s' rule", fe.Field(), fe.Tag())
	}
}
