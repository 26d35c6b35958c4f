package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Is(t *testing.T) {
	err := fmt.Errorf("failed to buy: %w", NewValidationError(CodeInsufficientFunds, "❌ Not enough coins"))

	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, &ValidationError{Code: CodeInsufficientFunds})
	assert.NotErrorIs(t, err, &ValidationError{Code: CodeAlreadyOwned})
	assert.NotErrorIs(t, err, ErrOnCooldown)
	assert.True(t, IsUserError(err))
}

func TestCooldownError_UserMessage(t *testing.T) {
	tests := []struct {
		remaining time.Duration
		want      string
	}{
		{2*time.Hour + 5*time.Minute, "⏳ You can work again in **2h 5m**"},
		{30 * time.Minute, "⏳ You can work again in **30m**"},
		{42 * time.Second, "⏳ You can work again in **42s**"},
		{1500 * time.Millisecond, "⏳ You can work again in **2s**"},
	}
	for _, tt := range tests {
		t.Run(tt.remaining.String(), func(t *testing.T) {
			err := &CooldownError{Action: "work", Remaining: tt.remaining}
			assert.Equal(t, tt.want, UserMessage(err))
			assert.ErrorIs(t, err, ErrOnCooldown)
		})
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewStorageError("set economy", cause)

	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsUserError(err))
	assert.Equal(t, GenericUserMessage, UserMessage(err))

	// Wrapping twice keeps the innermost operation
	again := NewStorageError("mutate economy", err)
	var storageErr *StorageError
	assert.True(t, errors.As(again, &storageErr))
	assert.Equal(t, "set economy", storageErr.Op)

	assert.NoError(t, NewStorageError("noop", nil))
}

func TestUserMessage(t *testing.T) {
	assert.Empty(t, UserMessage(nil))
	assert.Equal(t, "❌ Nope", UserMessage(NewValidationError(CodeInvalidAmount, "❌ Nope")))
	assert.Equal(t, GenericUserMessage, UserMessage(errors.New("boom")))
}
