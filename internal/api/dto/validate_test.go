package dto

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/account-service/pkg/util"
)

func TestPasswordPolicy(t *testing.T) {
	cases := map[string]bool{
		"Password1!": true,
		"abcdefg1?":  true,
		"short1!":    false,
		"Password!!": false,
		"Password11": false,
		"":           false,
	}
	for pw, want := range cases {
		assert.Equal(t, want, PasswordPolicyOK(pw), pw)
	}

	assert.True(t, PasswordPolicyOK(strings.Repeat("a", 70)+"1!"))
	assert.False(t, PasswordPolicyOK(strings.Repeat("a", 71)+"1!"))
}

func TestValidateRegisterRequestRejectsOverlongPassword(t *testing.T) {
	pw := strings.Repeat("a", 78) + "1!"
	err := Validate(RegisterRequest{Name: "Ben", Email: "ben@x.com", Password: pw, ConfirmPassword: pw})
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	details, ok := de.Details.([]FieldError)
	require.True(t, ok)
	require.Len(t, details, 1)
	assert.Equal(t, "password", details[0].Field)
	assert.Equal(t, "password", details[0].Tag)
}

func TestValidateRegisterRequest(t *testing.T) {
	ok := RegisterRequest{Name: "Ben", Email: "ben@x.com", Password: "Password1!", ConfirmPassword: "Password1!"}
	require.NoError(t, Validate(ok))

	bad := RegisterRequest{Name: "", Email: "not-an-email", Password: "weak", ConfirmPassword: "other"}
	err := Validate(bad)
	require.Error(t, err)

	de := apperrors.ToDomainError(err)
	assert.Equal(t, http.StatusBadRequest, de.HTTPStatus)
	details, ok2 := de.Details.([]FieldError)
	require.True(t, ok2)

	fields := map[string]string{}
	for _, d := range details {
		fields[d.Field] = d.Tag
	}
	assert.Equal(t, "required", fields["name"])
	assert.Equal(t, "email", fields["email"])
	assert.Equal(t, "password", fields["password"])
	assert.Equal(t, "eqfield", fields["confirmPassword"])
}

func TestValidateVerifyCodeRequest(t *testing.T) {
	require.NoError(t, Validate(VerifyCodeRequest{Email: "ben@x.com", OTP: "123456"}))
	assert.Error(t, Validate(VerifyCodeRequest{Email: "ben@x.com", OTP: "1234567"}))
	assert.Error(t, Validate(VerifyCodeRequest{Email: "ben@x.com"}))
}
