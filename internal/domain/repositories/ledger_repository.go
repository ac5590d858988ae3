package repositories

import (
	"context"

	"referral-bot.backend/internal/domain/entities"
)

// UserRepository defines user data operations
type UserRepository interface {
	// Upsert creates the user or refreshes username/display name.
	// ReferrerID is only written on creation.
	Upsert(ctx context.Context, user *entities.User) (isNew bool, err error)
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	Exists(ctx context.Context, id int64) (bool, error)
	// TransitionVerification moves the user to `to` only if the current state is in `from`
	TransitionVerification(ctx context.Context, id int64, from []entities.VerificationState, to entities.VerificationState) (bool, error)
	Count(ctx context.Context) (int64, error)
	CountByState(ctx context.Context, state entities.VerificationState) (int64, error)
	// ListByState returns up to limit users in state with an id above afterID, in id order
	ListByState(ctx context.Context, state entities.VerificationState, afterID int64, limit int) ([]*entities.User, error)
}

// ReferralRepository defines referral edge operations
type ReferralRepository interface {
	// Insert stores the edge; inserted is false when the pair already exists
	Insert(ctx context.Context, referrerID, referredID int64) (inserted bool, err error)
	CountByReferrer(ctx context.Context, referrerID int64) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// RewardRepository defines reward ledger operations
type RewardRepository interface {
	// EnsureAccount creates the zero account row if missing, so it can be locked
	EnsureAccount(ctx context.Context, userID int64) error
	// GetAccount returns a zero account when none exists
	GetAccount(ctx context.Context, userID int64) (*entities.RewardAccount, error)
	// AdjustBalance applies delta atomically and records code when given.
	// It fails with ErrNegativeBalance instead of going below zero.
	AdjustBalance(ctx context.Context, userID int64, delta int64, code *entities.RewardCode) (*entities.RewardAccount, error)
	// RecordThresholdGrant adds one automatic grant if threshold_grants still equals expected
	RecordThresholdGrant(ctx context.Context, userID int64, expected int64, code string) (bool, error)
	ListCodes(ctx context.Context, userID int64) ([]*entities.RewardCode, error)
	CountRewarded(ctx context.Context) (int64, error)
}
