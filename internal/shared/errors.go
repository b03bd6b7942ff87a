package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig     = fmt.Errorf("invalid configuration")
	ErrUnsupportedDriver = fmt.Errorf("unsupported database driver")

	// Store errors
	ErrDuplicateKey = fmt.Errorf("duplicate key")
	ErrSlotOccupied = fmt.Errorf("%w: yard slot already occupied", ErrDuplicateKey)
	ErrNotFound     = fmt.Errorf("record not found")

	// Authentication errors
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUnauthenticated    = fmt.Errorf("not authenticated")
	ErrSessionUnavailable = fmt.Errorf("session could not be started")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrTooManyAttempts    = fmt.Errorf("too many login attempts")

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation failed")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
