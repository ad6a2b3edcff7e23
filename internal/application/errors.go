package application

import "errors"

// Synthesis errors. All are recoverable: the operation aborts and the
// committed preference record is left as it was.
var (
	ErrModelInvocation     = errors.New("model invocation failed")
	ErrRecommendationParse = errors.New("recommendation response malformed")
	ErrScentExpansionParse = errors.New("scent expansion response malformed")
	// ErrEmptyScents marks a request on blank scent text. Callers treat it
	// as a no-op rather than a failure.
	ErrEmptyScents       = errors.New("scents are empty")
	ErrSynthesisInFlight = errors.New("a recommendation or expansion is already running")
)

// Credential errors.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidUsername    = errors.New("username must be at least 3 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
)
