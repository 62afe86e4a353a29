package domain

import "time"

// Session is one staff login. It carries the active organisation and the
// super-admin view-all toggle so the tenancy snapshot is stable across requests.
type Session struct {
	SessionID        string    `json:"id" dynamodbav:"session_id"`
	StaffID          string    `json:"staff_id" dynamodbav:"staff_id"`
	OrganisationID   string    `json:"organisation_id" dynamodbav:"organisation_id"`
	ViewAll          bool      `json:"view_all" dynamodbav:"view_all"`
	Enable           bool      `json:"enable" dynamodbav:"enable"`
	RefreshToken     string    `json:"-" dynamodbav:"refresh_token"`
	RefreshExpiresAt int64     `json:"-" dynamodbav:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt        time.Time `json:"updated" dynamodbav:"updated_at"`
	Staff            *Staff    `json:"staff,omitempty" dynamodbav:"-"`
}
