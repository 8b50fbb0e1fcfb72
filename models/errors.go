// models/errors.go
package models

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors surfaced to callers as the response message. All of these are
// recoverable by the caller; storage faults are reported separately as a
// generic failure.
var (
	ErrInvalidPhoneFormat = errors.New("Invalid Israeli phone number format")
	ErrUserNotFound       = errors.New("User not found")
	ErrUserAlreadyExists  = errors.New("User already exists. Use login instead.")
	ErrAccountInactive    = errors.New("Account is inactive. Please contact support.")
	ErrChallengeNotFound  = errors.New("No OTP was requested for this phone number")
	ErrOtpExpired         = errors.New("OTP expired")
	ErrInvalidOtpCode     = errors.New("Invalid OTP code")
	ErrNotificationFailed = errors.New("Failed to send verification code")
	ErrDependencyTimeout  = errors.New("Service temporarily unavailable. Please try again.")
)

// IsDomainError reports whether err belongs to the caller-recoverable
// taxonomy above, as opposed to an internal storage or dependency fault.
func IsDomainError(err error) bool {
	var tooMany *TooManyAttemptsError
	if errors.As(err, &tooMany) {
		return true
	}
	for _, domain := range []error{
		ErrInvalidPhoneFormat, ErrUserNotFound, ErrUserAlreadyExists,
		ErrAccountInactive, ErrChallengeNotFound, ErrOtpExpired,
		ErrInvalidOtpCode, ErrNotificationFailed, ErrDependencyTimeout,
	} {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}

// TooManyAttemptsError reports an active OTP lockout along with the remaining
// cooldown, so handlers can tell the caller when to retry.
type TooManyAttemptsError struct {
	RetryAfter time.Duration
}

func (e *TooManyAttemptsError) Error() string {
	return fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", RemainingMinutes(e.RetryAfter))
}

// RemainingSeconds returns the cooldown rounded up to whole seconds.
func (e *TooManyAttemptsError) RemainingSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

// RemainingMinutes rounds a cooldown up to whole minutes for user-facing messages.
func RemainingMinutes(d time.Duration) int {
	mins := int((d + time.Minute - 1) / time.Minute)
	if mins < 0 {
		return 0
	}
	return mins
}
