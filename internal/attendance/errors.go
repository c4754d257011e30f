package attendance

import "errors"

// Every validation and eligibility failure is one of these sentinels, so
// transport layers can map outcomes without string matching. A repeated
// check-in is not among them: it is reported through CheckInResult.AlreadyMarked.
var (
	ErrSessionNotFound = errors.New("class session not found")
	ErrTokenNotFound   = errors.New("token not found")
	ErrSecretMismatch  = errors.New("token secret mismatch")
	ErrTokenInactive   = errors.New("token superseded")
	ErrTokenExpired    = errors.New("token expired")
	ErrUnknownStudent  = errors.New("unknown roll number")
	ErrNotEligible     = errors.New("student not eligible for this session")
)
