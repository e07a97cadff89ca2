package handlers

import (
	"net/http"
	"testing"

	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queue-system/internal/status"
)

func TestIsValidName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"simple name", "Alice", true},
		{"full name", "Alice Smith", true},
		{"two letters", "Al", true},
		{"surrounding whitespace trimmed", "  Alice  ", true},
		{"single letter", "A", false},
		{"empty", "", false},
		{"whitespace only", "   ", false},
		{"digits", "Alice2", false},
		{"punctuation", "Alice-Smith", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, isValidName(tt.input))
		})
	}
}

func TestIsValidContact(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"ten digits", "5551234567", true},
		{"nine digits", "555123456", false},
		{"eleven digits", "55512345678", false},
		{"with dashes", "555-123-4567", false},
		{"letters", "555123456a", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, isValidContact(tt.input))
		})
	}
}

func TestLifecycleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", status.ErrEntryNotFound, http.StatusNotFound},
		{"invalid transition", status.ErrInvalidTransition, http.StatusBadRequest},
		{"counter busy", status.ErrCounterBusy, http.StatusBadRequest},
		{"unexpected", assert.AnError, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var apiErr *router.ApiError
			require.ErrorAs(t, lifecycleError(tt.err), &apiErr)
			assert.Equal(t, tt.expected, apiErr.Status)
		})
	}
}
