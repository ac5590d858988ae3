package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// VerificationState represents a user's channel-join status
type VerificationState string

const (
	VerificationUnverified VerificationState = "unverified"
	VerificationPending    VerificationState = "pending"
	VerificationVerified   VerificationState = "verified"
)

// CanTransitionTo reports whether the gate may move a user from s to next.
// Nothing leaves Verified.
func (s VerificationState) CanTransitionTo(next VerificationState) bool {
	switch s {
	case VerificationUnverified:
		return next == VerificationPending || next == VerificationVerified
	case VerificationPending:
		return next == VerificationPending || next == VerificationVerified
	case VerificationVerified:
		return next == VerificationVerified
	default:
		return false
	}
}

// User represents a bot participant
type User struct {
	ID                int64             `json:"id"`
	Username          string            `json:"username"`
	DisplayName       string            `json:"displayName"`
	ReferrerID        null.Int64        `json:"referrerId,omitempty"`
	VerificationState VerificationState `json:"verificationState"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// IsVerified reports whether the user passed the channel gate
func (u *User) IsVerified() bool {
	return u.VerificationState == VerificationVerified
}
