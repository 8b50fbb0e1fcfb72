// store/challenge_store.go
package store

import (
	"context"

	"github.com/intai-app/intai_backend/models"
)

// UpdateFunc transforms the current challenge for a phone into its next state.
// current is nil when no challenge exists. Returning nil deletes the record.
// The returned record is persisted even when err is non-nil, so a failed
// verification can atomically record its attempt while surfacing the domain
// error; err is passed through to the Update caller verbatim.
type UpdateFunc func(current *models.OTPChallenge) (*models.OTPChallenge, error)

// ChallengeStore is the keyed repository holding at most one OTP challenge per
// phone number. Implementations must serialize mutations per phone so that two
// concurrent verifications cannot both consume the last allowed attempt.
type ChallengeStore interface {
	// Get returns the challenge for phone, or nil when absent. Expired
	// records may still be returned; callers evaluate state lazily.
	Get(ctx context.Context, phone string) (*models.OTPChallenge, error)

	// Put stores the challenge, superseding any existing record for the
	// same phone.
	Put(ctx context.Context, challenge *models.OTPChallenge) error

	// Delete removes the challenge for phone. Deleting an absent record is
	// not an error.
	Delete(ctx context.Context, phone string) error

	// Update applies fn to the current record under per-phone mutual
	// exclusion and persists the result. It returns the persisted record
	// (nil when deleted) and the error returned by fn.
	Update(ctx context.Context, phone string, fn UpdateFunc) (*models.OTPChallenge, error)
}
