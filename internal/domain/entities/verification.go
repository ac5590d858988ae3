package entities

// VerificationOutcome is the result of a verification request
type VerificationOutcome string

const (
	VerificationOutcomeVerified         VerificationOutcome = "verified"
	VerificationOutcomePendingConfirmed VerificationOutcome = "pending_confirmed"
	VerificationOutcomeNotFound         VerificationOutcome = "not_found"
)
