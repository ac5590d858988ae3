package entities

import (
	"strconv"
	"strings"
	"time"
)

// ReferralEdge is a directed referrer -> referred relation
type ReferralEdge struct {
	ID         int64     `json:"id"`
	ReferrerID int64     `json:"referrerId"`
	ReferredID int64     `json:"referredId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ReferralTokenKind tags the result of normalizing a start argument
type ReferralTokenKind int

const (
	ReferralTokenAbsent ReferralTokenKind = iota
	ReferralTokenMalformed
	ReferralTokenCandidate
)

// ReferralTokenPrefix is stripped from deep-link arguments such as "ref_42"
const ReferralTokenPrefix = "ref_"

// ReferralToken is the normalized form of a start argument
type ReferralToken struct {
	Kind       ReferralTokenKind
	ReferrerID int64
}

// ParseReferralToken normalizes a raw start argument. Anything that is not a
// positive integer id (after prefix stripping) is Malformed, never an error.
func ParseReferralToken(raw string) ReferralToken {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ReferralToken{Kind: ReferralTokenAbsent}
	}

	raw = strings.TrimPrefix(raw, ReferralTokenPrefix)
	for _, c := range raw {
		if c < '0' || c > '9' {
			return ReferralToken{Kind: ReferralTokenMalformed}
		}
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return ReferralToken{Kind: ReferralTokenMalformed}
	}
	return ReferralToken{Kind: ReferralTokenCandidate, ReferrerID: id}
}

// Candidate returns the referrer id when one resolved
func (t ReferralToken) Candidate() (int64, bool) {
	return t.ReferrerID, t.Kind == ReferralTokenCandidate
}

// RegistrationOutcome is the result of a start event
type RegistrationOutcome string

const (
	RegistrationNewUser      RegistrationOutcome = "new_user"
	RegistrationExistingUser RegistrationOutcome = "existing_user"
)

// RegistrationInput carries the fields of an inbound start event
type RegistrationInput struct {
	UserID        int64
	Username      string
	DisplayName   string
	ReferralToken string
}

// RegistrationResult describes what a start event changed
type RegistrationResult struct {
	Outcome     RegistrationOutcome
	ReferrerID  int64
	EdgeCreated bool
	Evaluation  *RewardEvaluation
}

// ReferralSummary is what a user sees for /myrefs
type ReferralSummary struct {
	UserID            int64
	ReferralCount     int64
	Threshold         int
	Balance           int64
	VerificationState VerificationState
	LastCode          string
}
