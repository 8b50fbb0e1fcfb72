// models/user.go
package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User model
type User struct {
	ID                 primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	FirstName          string             `json:"firstName" bson:"firstName"`
	LastName           string             `json:"lastName" bson:"lastName"`
	Phone              string             `json:"phone" bson:"phone"`
	Email              string             `json:"email" bson:"email"`
	NationalID         string             `json:"nationalId,omitempty" bson:"nationalId,omitempty"`
	Role               string             `json:"role" bson:"role"`
	IsActive           bool               `json:"isActive" bson:"isActive"`
	IsPhoneVerified    bool               `json:"isPhoneVerified" bson:"isPhoneVerified"`
	IsEmailVerified    bool               `json:"isEmailVerified" bson:"isEmailVerified"`
	Language           string             `json:"language" bson:"language"` // "he" or "en"
	EmailNotifications bool               `json:"emailNotifications" bson:"emailNotifications"`
	SMSNotifications   bool               `json:"smsNotifications" bson:"smsNotifications"`
	AppNotifications   bool               `json:"appNotifications" bson:"appNotifications"`
	LastLogin          *time.Time         `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// FullName joins the first and last name, tolerating either being empty.
func (u *User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// UserProjection is the caller-facing view of an account. OTP state, block
// timestamps and other internal fields are never part of it.
type UserProjection struct {
	ID              string `json:"id"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	FullName        string `json:"fullName"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Role            string `json:"role"`
	IsPhoneVerified bool   `json:"isPhoneVerified"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

// Projection builds the caller-facing view of the user.
func (u *User) Projection() UserProjection {
	return UserProjection{
		ID:              u.ID.Hex(),
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		Phone:           u.Phone,
		Email:           u.Email,
		Role:            u.Role,
		IsPhoneVerified: u.IsPhoneVerified,
		IsEmailVerified: u.IsEmailVerified,
	}
}

// Response model
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
