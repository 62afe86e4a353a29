package domain

import (
	"strings"
	"time"
)

// Staff is a member of one organisation's back office.
type Staff struct {
	StaffID        string    `json:"id" dynamodbav:"staff_id"`
	OrganisationID string    `json:"organisation_id" dynamodbav:"organisation_id"`
	Email          string    `json:"email" dynamodbav:"email"`
	Phone          *string   `json:"phone" dynamodbav:"phone"`
	PasswordHash   string    `json:"-" dynamodbav:"password_hash"`
	FirstName      string    `json:"first_name" dynamodbav:"first_name"`
	LastName       string    `json:"last_name" dynamodbav:"last_name"`
	Role           Role      `json:"role" dynamodbav:"role"`
	EmailVerified  bool      `json:"email_verified" dynamodbav:"email_verified"`
	PhoneVerified  bool      `json:"phone_verified" dynamodbav:"phone_verified"`
	Enable         bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}

// Recipient returns the address a verification on channel c targets, or "" when absent.
func (s *Staff) Recipient(c Channel) string {
	switch c {
	case ChannelEmail:
		return s.Email
	case ChannelPhone:
		if s.Phone != nil {
			return *s.Phone
		}
	}
	return ""
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type CreateStaffRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
	Password  string  `json:"password" validate:"required,min=8,max=72"`
	FirstName string  `json:"first_name" validate:"required"`
	LastName  string  `json:"last_name" validate:"required"`
	Role      Role    `json:"role" validate:"required,role"`
}
