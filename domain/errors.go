package domain

import (
	"errors"
	"fmt"
	"time"
)

// GenericUserMessage is shown to users when something failed on our side
const GenericUserMessage = "❌ Something went wrong. Please try again later."

// Validation codes
const (
	CodeInvalidAmount     = "invalid_amount"
	CodeInsufficientFunds = "insufficient_funds"
	CodeWagerBelowMinimum = "wager_below_minimum"
	CodeWagerOverLimit    = "wager_over_limit"
	CodeNegativeBalance   = "negative_balance"
	CodeWagerDecreased    = "wager_total_decreased"
	CodeLevelDecreased    = "level_decreased"
	CodeInvalidRecord     = "invalid_record"
	CodeDuplicateShopItem = "duplicate_shop_item"
	CodeInvalidShopItem   = "invalid_shop_item"
	CodeUnknownShopItem   = "unknown_shop_item"
	CodeAlreadyOwned      = "already_owned"
	CodeNothingToSell     = "nothing_to_sell"
	CodeUnknownGame       = "unknown_game"
	CodeInvalidChoice     = "invalid_choice"
	CodeSelfTransfer      = "self_transfer"
)

var (
	// ErrValidation matches every *ValidationError via errors.Is
	ErrValidation = errors.New("validation failed")
	// ErrOnCooldown matches every *CooldownError via errors.Is
	ErrOnCooldown = errors.New("action on cooldown")
	// ErrStorage matches every *StorageError via errors.Is
	ErrStorage = errors.New("storage failure")
)

// ValidationError is returned when a caller asks for a mutation that breaks a
// ledger invariant. Nothing has been written when it is returned.
type ValidationError struct {
	Code        string
	UserMessage string
}

// NewValidationError creates a validation error with a user facing message
func NewValidationError(code, userMessage string) *ValidationError {
	return &ValidationError{Code: code, UserMessage: userMessage}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Code, e.UserMessage)
}

// Is matches ErrValidation and validation errors with the same code
func (e *ValidationError) Is(target error) bool {
	if target == ErrValidation {
		return true
	}
	if t, ok := target.(*ValidationError); ok {
		return t.Code == e.Code
	}
	return false
}

// CooldownError is returned when a cooldown gate rejects an action
type CooldownError struct {
	Action    string
	Remaining time.Duration
}

// Error implements the error interface
func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s is on cooldown for another %s", e.Action, e.Remaining.Round(time.Second))
}

// Is matches ErrOnCooldown
func (e *CooldownError) Is(target error) bool {
	return target == ErrOnCooldown
}

// UserMessage formats the remaining wait for display
func (e *CooldownError) UserMessage() string {
	remaining := e.Remaining.Round(time.Second)
	hours := int(remaining.Hours())
	minutes := int(remaining.Minutes()) % 60
	seconds := int(remaining.Seconds()) % 60
	switch {
	case hours > 0:
		return fmt.Sprintf("⏳ You can %s again in **%dh %dm**", e.Action, hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("⏳ You can %s again in **%dm**", e.Action, minutes)
	default:
		return fmt.Sprintf("⏳ You can %s again in **%ds**", e.Action, seconds)
	}
}

// StorageError wraps an I/O or network failure of a storage backend. The
// stored state is unchanged when it is returned from a write.
type StorageError struct {
	Op  string
	Err error
}

// NewStorageError wraps err, leaving nil untouched
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var existing *StorageError
	if errors.As(err, &existing) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is matches ErrStorage
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// MigrationConflict describes a record whose target value differed from the
// legacy source during migration. The legacy value always wins.
type MigrationConflict struct {
	Collection string
	GuildID    string
	Key        string
}

// Error implements the error interface
func (e *MigrationConflict) Error() string {
	return fmt.Sprintf("migration conflict in %s for guild %s key %s", e.Collection, e.GuildID, e.Key)
}

// UserMessage returns the text a command handler should show for err.
// Validation and cooldown errors carry a specific message, anything else
// gets the generic retry message so internal causes are never exposed.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.UserMessage
	}
	var cooldownErr *CooldownError
	if errors.As(err, &cooldownErr) {
		return cooldownErr.UserMessage()
	}
	return GenericUserMessage
}

// IsUserError reports whether err was caused by the user rather than the system
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrOnCooldown)
}
