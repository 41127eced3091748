package models

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidation       = errors.New("validation error")
	ErrTransactionAbort = errors.New("transaction aborted")
	ErrStoreUnavailable = errors.New("store unavailable")
)

var (
	ErrAccountNotFound       = fmt.Errorf("account %w", ErrNotFound)
	ErrEmailTaken            = fmt.Errorf("email already registered: %w", ErrConflict)
	ErrReferralCodeExhausted = fmt.Errorf("could not allocate a unique referral code: %w", ErrConflict)
	ErrInvalidAmount         = fmt.Errorf("amount must be positive: %w", ErrValidation)
	ErrInvalidProduct        = fmt.Errorf("product name is required: %w", ErrValidation)
	ErrInvalidEmail          = fmt.Errorf("invalid email: %w", ErrValidation)
	ErrInvalidName           = fmt.Errorf("name must be at least 2 characters: %w", ErrValidation)
	ErrInvalidOrderRef       = fmt.Errorf("order reference is required: %w", ErrValidation)
	ErrPurchaseImmutable     = errors.New("purchase records are immutable")
)
