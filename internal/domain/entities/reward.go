package entities

import "time"

// RewardPolicy selects how referral counts turn into automatic grants
type RewardPolicy string

const (
	// RewardPolicyOnce grants a single lifetime reward when the threshold is first reached
	RewardPolicyOnce RewardPolicy = "once"
	// RewardPolicyEvery grants one unit per full threshold of referrals
	RewardPolicyEvery RewardPolicy = "every"
)

// Valid reports whether p is a known policy
func (p RewardPolicy) Valid() bool {
	return p == RewardPolicyOnce || p == RewardPolicyEvery
}

// EntitledGrants returns how many automatic grants count referrals earn
func (p RewardPolicy) EntitledGrants(count int64, threshold int) int64 {
	if threshold <= 0 || count < int64(threshold) {
		return 0
	}
	n := count / int64(threshold)
	if p == RewardPolicyOnce && n > 1 {
		return 1
	}
	return n
}

// RewardCodeKind records why a code was issued
type RewardCodeKind string

const (
	RewardCodeThreshold RewardCodeKind = "threshold"
	RewardCodeAdmin     RewardCodeKind = "admin"
	RewardCodeClaim     RewardCodeKind = "claim"
)

// RewardAccount is the per-user reward ledger
type RewardAccount struct {
	UserID          int64     `json:"userId"`
	Balance         int64     `json:"balance"`
	ThresholdGrants int64     `json:"thresholdGrants"`
	AdminGrants     int64     `json:"adminGrants"`
	Claims          int64     `json:"claims"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// TotalGrants is the number of balance increments ever recorded
func (a *RewardAccount) TotalGrants() int64 {
	return a.ThresholdGrants + a.AdminGrants
}

// RewardCode is an issued code kept for audit
type RewardCode struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"userId"`
	Code      string         `json:"code"`
	Kind      RewardCodeKind `json:"kind"`
	CreatedAt time.Time      `json:"createdAt"`
}

// RewardEvaluationOutcome is the result of re-evaluating a referrer
type RewardEvaluationOutcome string

const (
	RewardNoChange RewardEvaluationOutcome = "no_change"
	RewardGranted  RewardEvaluationOutcome = "granted"
)

// RewardEvaluation describes a threshold check
type RewardEvaluation struct {
	Outcome       RewardEvaluationOutcome
	ReferrerID    int64
	ReferralCount int64
	Codes         []string
}

// Code returns the most recent code granted by the evaluation
func (e *RewardEvaluation) Code() string {
	if e == nil || len(e.Codes) == 0 {
		return ""
	}
	return e.Codes[len(e.Codes)-1]
}

// ClaimOutcome is the result of a claim request
type ClaimOutcome string

const (
	ClaimClaimed ClaimOutcome = "claimed"
	ClaimEmpty   ClaimOutcome = "empty"
	// ClaimLocked means the user must pass verification first
	ClaimLocked ClaimOutcome = "locked"
)

// ClaimResult carries the delivered code on success
type ClaimResult struct {
	Outcome ClaimOutcome
	Code    string
	Balance int64
}

// GrantOutcome is the result of an admin grant
type GrantOutcome string

const (
	GrantGranted         GrantOutcome = "granted"
	GrantAlreadyRewarded GrantOutcome = "already_rewarded"
)

// GrantResult carries the code issued by an admin grant
type GrantResult struct {
	Outcome GrantOutcome
	UserID  int64
	Code    string
}

// LedgerStats are the admin totals
type LedgerStats struct {
	Users         int64
	VerifiedUsers int64
	PendingUsers  int64
	Referrals     int64
	RewardedUsers int64
}
