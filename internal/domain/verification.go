package domain

import (
	"fmt"
	"time"
)

// Channel is the modality a verification targets.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelPhone:
		return true
	}
	return false
}

// VerificationStatus is the stored lifecycle state. Expiry is derived from ExpiresAt, never stored.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationPending, VerificationVerified:
		return true
	}
	return false
}

// VerificationRecord is one issued code/token pair.
// PK: verification_id. GSI recipient-index on recipient.
// ExpiresAt is in Unix milliseconds; the table has no TTL so verified records survive it.
type VerificationRecord struct {
	VerificationID string             `json:"id" dynamodbav:"verification_id"`
	SubjectID      string             `json:"subject_id" dynamodbav:"subject_id"`
	Recipient      string             `json:"recipient" dynamodbav:"recipient"`
	Channel        Channel            `json:"channel" dynamodbav:"channel"`
	Code           string             `json:"-" dynamodbav:"code"`
	Token          string             `json:"-" dynamodbav:"token"`
	Status         VerificationStatus `json:"status" dynamodbav:"status"`
	ExpiresAt      int64              `json:"expires_at" dynamodbav:"expires_at"`
	CreatedAt      time.Time          `json:"created" dynamodbav:"created_at"`
}

// Expired reports whether now is past the record's expiry, to the millisecond.
func (v *VerificationRecord) Expired(now time.Time) bool {
	return now.UnixMilli() > v.ExpiresAt
}

// Validate checks a decoded record against the closed enumerations.
func (v *VerificationRecord) Validate() error {
	if v.VerificationID == "" {
		return fmt.Errorf("verification without id: %w", ErrMalformedRecord)
	}
	if !v.Channel.Valid() {
		return fmt.Errorf("verification %s has channel %q: %w", v.VerificationID, v.Channel, ErrMalformedRecord)
	}
	if !v.Status.Valid() {
		return fmt.Errorf("verification %s has status %q: %w", v.VerificationID, v.Status, ErrMalformedRecord)
	}
	return nil
}
