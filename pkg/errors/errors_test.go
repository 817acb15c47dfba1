package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Creation(t *testing.T) {
	cause := errors.New("underlying error")

	err := NewConflictError("profile already running", cause)

	assert.Equal(t, ErrorTypeConflict, err.Type)
	assert.Equal(t, "profile already running", err.Message)
	assert.Equal(t, cause, err.Cause)
	assert.NotNil(t, err.Context)
}

func TestDomainError_WithContext(t *testing.T) {
	err := NewProcessError("test error", nil)

	err = err.WithContext("profile", "Profile 2")
	err = err.WithContext("pid", 12345)

	assert.Equal(t, "Profile 2", err.Context["profile"])
	assert.Equal(t, 12345, err.Context["pid"])
}

func TestDomainError_ErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		error    *DomainError
		expected string
	}{
		{
			name:     "error without cause",
			error:    NewNotFoundError("browser executable not found", nil),
			expected: "not_found: browser executable not found",
		},
		{
			name:     "error with cause",
			error:    NewTimeoutError("launch confirmation timed out", errors.New("cause")),
			expected: "timeout: launch confirmation timed out: cause",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.error.Error())
		})
	}
}

func TestDomainError_TypeChecking(t *testing.T) {
	conflictErr := NewConflictError("already running", nil)
	timeoutErr := NewTimeoutError("poll budget exhausted", nil)

	assert.True(t, IsConflictError(conflictErr))
	assert.False(t, IsConflictError(timeoutErr))

	assert.True(t, IsTimeoutError(timeoutErr))
	assert.False(t, IsTimeoutError(conflictErr))

	// Plain errors never match a domain type
	assert.False(t, IsNotFoundError(errors.New("plain")))
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewProcessError("test error", cause)

	assert.Equal(t, cause, errors.Unwrap(err))
	assert.ErrorIs(t, err, cause)
}

func TestErrorCollection(t *testing.T) {
	collection := NewErrorCollection()
	assert.False(t, collection.HasErrors())
	assert.Nil(t, collection.ToError())

	collection.Add(nil)
	assert.False(t, collection.HasErrors())

	collection.Add(NewProcessError("close failed", nil))
	collection.Add(NewProcessError("another close failed", nil))

	assert.True(t, collection.HasErrors())
	assert.NotNil(t, collection.ToError())
	assert.Contains(t, collection.Error(), "2 errors occurred")
}
