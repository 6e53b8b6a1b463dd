package sanitizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cultureforchange/members-api/pkg/sanitizer"
)

func TestTrim(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "hello", sanitizer.Trim("  hello  "))
	assert.Equal(t, "hello world", sanitizer.Trim("\thello world\n"))
	assert.Equal(t, "", sanitizer.Trim("   "))
	assert.Equal(t, "", sanitizer.Trim(""))
}

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "User@Example.COM", "user@example.com"},
		{"trims whitespace", "  user@example.com  ", "user@example.com"},
		{"trims and lowercases", " USER@EXAMPLE.COM\n", "user@example.com"},
		{"already normalized", "user@example.com", "user@example.com"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, sanitizer.NormalizeEmail(tt.input))
		})
	}
}
