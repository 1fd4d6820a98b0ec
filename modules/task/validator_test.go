package task

import (
	"strings"
	"testing"

	domain "github.com/example/task-tracker/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_Validate(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name         string
		edit         domain.Edit
		wantValid    bool
		wantMessages []string
	}{
		{
			name:      "valid text",
			edit:      domain.Edit{Text: "buy milk"},
			wantValid: true,
		},
		{
			name:      "valid completed",
			edit:      domain.Edit{Text: "x", Completed: true},
			wantValid: true,
		},
		{
			name:         "empty text",
			edit:         domain.Edit{Text: ""},
			wantMessages: []string{"must not be empty"},
		},
		{
			name:         "whitespace only",
			edit:         domain.Edit{Text: "   \t\n"},
			wantMessages: []string{"must not be blank"},
		},
		{
			name:         "too long",
			edit:         domain.Edit{Text: strings.Repeat("a", 256)},
			wantMessages: []string{"must be at most 255 characters"},
		},
		{
			name:      "max length accepted",
			edit:      domain.Edit{Text: strings.Repeat("a", 255)},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.Validate(tt.edit)

			assert.Equal(t, tt.wantValid, result.IsValid)
			if tt.wantValid {
				assert.Empty(t, result.Errors)
				return
			}

			require.Len(t, result.Errors, 1)
			fe := result.Errors[0]
			assert.Equal(t, "text", fe.Field)
			assert.Equal(t, tt.edit.Text, fe.RejectedValue)
			assert.Equal(t, tt.wantMessages, fe.Messages)
		})
	}
}

func TestValidator_ValidHasNonNilErrors(t *testing.T) {
	result := NewValidator().Validate(domain.Edit{Text: "ok"})
	assert.NotNil(t, result.Errors)
}

func TestValidator_CollectsEveryViolation(t *testing.T) {
	// Blank text over the length limit breaks two rules on the same field.
	text := strings.Repeat(" ", 300)
	result := NewValidator().Validate(domain.Edit{Text: text})

	require.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.ElementsMatch(t,
		[]string{"must not be blank", "must be at most 255 characters"},
		result.Errors[0].Messages,
	)
}

func TestValidator_Pure(t *testing.T) {
	v := NewValidator()
	edit := domain.Edit{Text: ""}

	first := v.Validate(edit)
	second := v.Validate(edit)
	assert.Equal(t, first, second)
}
