package validator_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cultureforchange/members-api/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("no violations returns nil", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.Required("name", "Ada"),
			validator.ValidEmail("email", "ada@example.com"),
		)
		require.NoError(t, err)
	})

	t.Run("collects every violated rule", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.Required("name", ""),
			validator.ValidEmail("email", "not-an-email"),
		)
		require.Error(t, err)

		verrs := validator.ExtractValidationErrors(err)
		require.Len(t, verrs, 2)
		assert.True(t, verrs.Has("name"))
		assert.True(t, verrs.Has("email"))
	})

	t.Run("messages preserve rule order", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.PasswordMinLength("password", "a", 8),
			validator.PasswordUppercase("password", "a"),
			validator.PasswordDigit("password", "a"),
		)
		require.Error(t, err)

		verrs := validator.ExtractValidationErrors(err)
		assert.Equal(t, []string{
			"password must be at least 8 characters long",
			"password must contain at least one uppercase letter",
			"password must contain at least one digit",
		}, verrs.Messages())
	})
}

func TestIsValidEmail(t *testing.T) {
	t.Parallel()

	valid := []string{
		"user@example.com",
		"first.last@sub.example.org",
		"weird+tag@host.io",
	}
	for _, email := range valid {
		assert.True(t, validator.IsValidEmail(email), email)
	}

	invalid := []string{
		"",
		"plainaddress",
		"@missing-local.com",
		"user@nodot",
		"spaces in@addr.com",
	}
	for _, email := range invalid {
		assert.False(t, validator.IsValidEmail(email), email)
	}
}

func TestPasswordRules(t *testing.T) {
	t.Parallel()

	t.Run("passing password has no violations", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.PasswordMinLength("password", "Str0ngpass", 8),
			validator.PasswordUppercase("password", "Str0ngpass"),
			validator.PasswordLowercase("password", "Str0ngpass"),
			validator.PasswordDigit("password", "Str0ngpass"),
		)
		require.NoError(t, err)
	})

	t.Run("length counts runes not bytes", func(t *testing.T) {
		t.Parallel()

		// 7 characters, 11 bytes.
		err := validator.Apply(validator.PasswordMinLength("password", "Aa1éüöä", 8))
		require.Error(t, err)

		verrs := validator.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Contains(t, verrs[0].Message, "8 characters")

		// 8 characters, 12 bytes.
		require.NoError(t, validator.Apply(validator.PasswordMinLength("password", "Aa1éüöä!", 8)))
	})

	t.Run("each rule flags independently", func(t *testing.T) {
		t.Parallel()

		err := validator.Apply(
			validator.PasswordMinLength("password", "lower1lower", 8),
			validator.PasswordUppercase("password", "lower1lower"),
			validator.PasswordLowercase("password", "lower1lower"),
			validator.PasswordDigit("password", "lower1lower"),
		)
		require.Error(t, err)

		verrs := validator.ExtractValidationErrors(err)
		require.Len(t, verrs, 1)
		assert.Contains(t, verrs[0].Message, "uppercase")
	})
}

func TestExtractValidationErrors(t *testing.T) {
	t.Parallel()

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, validator.ExtractValidationErrors(nil))
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, validator.ExtractValidationErrors(errors.New("boom")))
		assert.False(t, validator.IsValidationError(errors.New("boom")))
	})

	t.Run("wrapped validation errors", func(t *testing.T) {
		t.Parallel()

		inner := validator.Apply(validator.Required("email", ""))
		wrapped := fmt.Errorf("request rejected: %w", inner)

		assert.True(t, validator.IsValidationError(wrapped))
		verrs := validator.ExtractValidationErrors(wrapped)
		require.Len(t, verrs, 1)
		assert.Equal(t, "email", verrs[0].Field)
	})
}
