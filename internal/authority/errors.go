package authority

import "errors"

// Domain-level error values returned by the wallet authority.
var (
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrInvalidUserID        = errors.New("invalid user id")
	ErrInvalidCredits       = errors.New("invalid credits")
	ErrInvalidServiceConfig = errors.New("invalid service config")
)
