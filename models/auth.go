// models/auth.go

package models

import "time"

// SendOTPRequest asks for a verification code to be dispatched to a phone.
type SendOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	Type  string `json:"type" validate:"required,oneof=login register"`
}

// VerifyOTPRequest submits a code for an outstanding challenge. The profile
// fields are only consulted when Type is "register".
type VerifyOTPRequest struct {
	Phone      string `json:"phone" validate:"required"`
	OTPCode    string `json:"otpCode" validate:"required"`
	Type       string `json:"type" validate:"required,oneof=login register"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Email      string `json:"email,omitempty"`
	NationalID string `json:"nationalId,omitempty"`
}

// SendOTPData is the payload of a successful send-otp response. Phone is the
// masked destination, never the full number.
type SendOTPData struct {
	Phone     string    `json:"phone"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifyOTPData is the payload of a successful verify-otp response.
type VerifyOTPData struct {
	User  UserProjection `json:"user"`
	Token string         `json:"token"`
}

// CurrentData is the payload of the current-session endpoint. User is null
// when no valid session is presented.
type CurrentData struct {
	User *UserProjection `json:"user"`
}
