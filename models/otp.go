// models/otp.go
package models

import (
	"time"
)

// OTPPurpose distinguishes whether a challenge authenticates an existing
// account or provisions a new one.
type OTPPurpose string

const (
	PurposeLogin    OTPPurpose = "login"
	PurposeRegister OTPPurpose = "register"
)

// ValidPurpose reports whether s names a known OTP purpose.
func ValidPurpose(s string) bool {
	return s == string(PurposeLogin) || s == string(PurposeRegister)
}

// ChallengeState is the verdict of evaluating a challenge snapshot at a point
// in time.
type ChallengeState int

const (
	ChallengePending ChallengeState = iota
	ChallengeExpired
	ChallengeBlocked
)

// OTPChallenge is the single outstanding verification record for a phone
// number. At most one challenge exists per phone; creating a new one
// supersedes the previous record.
type OTPChallenge struct {
	Phone        string     `json:"phone" bson:"phone"`
	Code         string     `json:"code" bson:"code"`
	Purpose      OTPPurpose `json:"purpose" bson:"purpose"`
	CreatedAt    time.Time  `json:"createdAt" bson:"createdAt"`
	ExpiresAt    time.Time  `json:"expiresAt" bson:"expiresAt"`
	Attempts     int        `json:"attempts" bson:"attempts"`
	BlockedUntil *time.Time `json:"blockedUntil,omitempty" bson:"blockedUntil,omitempty"`
}

// StateAt evaluates the challenge against the given clock reading. A block in
// effect takes precedence over expiry: lockout is independent of code expiry
// and still governs after the code itself has lapsed.
func (ch *OTPChallenge) StateAt(now time.Time) ChallengeState {
	if ch.BlockedUntil != nil && now.Before(*ch.BlockedUntil) {
		return ChallengeBlocked
	}
	if now.After(ch.ExpiresAt) {
		return ChallengeExpired
	}
	return ChallengePending
}

// BlockRemaining returns how long the active lockout still lasts, or zero when
// no block is in effect.
func (ch *OTPChallenge) BlockRemaining(now time.Time) time.Duration {
	if ch.BlockedUntil == nil || !now.Before(*ch.BlockedUntil) {
		return 0
	}
	return ch.BlockedUntil.Sub(now)
}

// RecordFailure returns a copy of the challenge with one more failed attempt
// recorded. When the attempt budget is exhausted the copy is blocked until
// now+blockFor and the code and expiry are cleared, so the original code can
// no longer be verified even if known.
func (ch OTPChallenge) RecordFailure(now time.Time, maxAttempts int, blockFor time.Duration) OTPChallenge {
	ch.Attempts++
	if ch.Attempts >= maxAttempts {
		until := now.Add(blockFor)
		ch.BlockedUntil = &until
		ch.Code = ""
		ch.ExpiresAt = now
	}
	return ch
}

// Retention returns how long the record remains meaningful: until expiry, or
// until an active block lapses, whichever is later. Stores may use it as a TTL.
func (ch *OTPChallenge) Retention(now time.Time) time.Duration {
	deadline := ch.ExpiresAt
	if ch.BlockedUntil != nil && ch.BlockedUntil.After(deadline) {
		deadline = *ch.BlockedUntil
	}
	if !deadline.After(now) {
		return 0
	}
	return deadline.Sub(now)
}
