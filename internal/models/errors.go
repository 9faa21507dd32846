package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrRegistrationConflict = errors.New("registration conflict")
	ErrValidation           = errors.New("validation error")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state")
)

var (
	ErrReservedEmail = fmt.Errorf("%w: email is reserved", ErrRegistrationConflict)
	ErrEmailTaken    = fmt.Errorf("%w: email already registered", ErrRegistrationConflict)
)
