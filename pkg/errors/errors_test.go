package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsAppErrorUnwrapsChain(t *testing.T) {
	base := NewValidation(ReasonPast, "cannot schedule in the past")
	wrapped := fmt.Errorf("failed to create appointment: %w", base)

	appErr, ok := AsAppError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrBadRequest, appErr.Code)
	assert.Equal(t, ReasonPast, appErr.Reason)

	_, ok = AsAppError(fmt.Errorf("plain error"))
	assert.False(t, ok)
}

func TestHasReason(t *testing.T) {
	err := NewConflict("slot taken")
	assert.True(t, HasReason(err, ReasonConflict))
	assert.False(t, HasReason(err, ReasonPast))
	assert.False(t, HasReason(nil, ReasonConflict))
}

func TestNewActionMapsReasonToCode(t *testing.T) {
	assert.Equal(t, ErrForbidden, NewAction(ReasonForbidden, "forbidden").Code)
	assert.Equal(t, ErrNotFound, NewAction(ReasonNotFound, "missing").Code)
	assert.Equal(t, ErrBadRequest, NewAction(ReasonInvalidAction, "bad action").Code)
}
