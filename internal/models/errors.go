package models

import (
	"errors"
	"fmt"
)

// Базовые категории ошибок. Конкретные ошибки оборачивают одну из них, поэтому
// errors.Is работает как по конкретной ошибке, так и по категории.
var (
	ErrValidation      = errors.New("validation error")
	ErrDuplicateEntity = errors.New("duplicate entity")
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrGasFeeRequired  = errors.New("gas fee payment is required")
)

var (
	ErrDuplicateUsername  = fmt.Errorf("username already exists: %w", ErrDuplicateEntity)
	ErrDuplicateEmail     = fmt.Errorf("email already exists: %w", ErrDuplicateEntity)
	ErrProtectedAccount   = fmt.Errorf("account is protected: %w", ErrUnauthorized)
	ErrInvalidCredentials = fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	ErrInvalidFormat      = fmt.Errorf("invalid address format: %w", ErrValidation)
	ErrAmountTooLow       = fmt.Errorf("amount is below the minimum: %w", ErrValidation)
	ErrInvalidTransition  = fmt.Errorf("status transition is not allowed: %w", ErrValidation)
)
