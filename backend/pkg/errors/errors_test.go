package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsSurviveWrapping(t *testing.T) {
	notFound := fmt.Errorf("create location: %w", NewNotFound("Campaign", "c-1"))
	conflict := fmt.Errorf("delete power: %w", NewConflict("Power", "p-1", "still assigned to characters"))
	invalid := NewValidation("sort_by", "unknown field")

	assert.True(t, IsNotFound(notFound))
	assert.False(t, IsNotFound(conflict))
	assert.True(t, IsConflict(conflict))
	assert.True(t, IsValidation(invalid))

	assert.True(t, IsErrorType(notFound, ErrorTypeNotFound))
	assert.True(t, IsErrorType(conflict, ErrorTypeConflict))
	assert.False(t, IsErrorType(invalid, ErrorTypeGraph))
}

func TestGraphQueryFailedWrapsCause(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := NewGraphQueryFailed("location.update", cause)

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsErrorType(err, ErrorTypeGraph))
	assert.Contains(t, err.Error(), "location.update")
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "[not_found] Campaign not found: c-1", NewNotFound("Campaign", "c-1").Error())
	assert.Equal(t, "[validation] invalid depth: must be between 1 and 5", NewValidation("depth", "must be between 1 and 5").Error())
}
