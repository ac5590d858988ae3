package usecases

import (
	"context"

	"go.uber.org/zap"
	"referral-bot.backend/internal/domain/entities"
	domainerrors "referral-bot.backend/internal/domain/errors"
	"referral-bot.backend/internal/domain/repositories"
	"referral-bot.backend/pkg/logger"
)

// AdminAuthorizer reports whether a user may run admin commands
type AdminAuthorizer func(userID int64) bool

// AdminUsecase handles operator commands
type AdminUsecase struct {
	userRepo     repositories.UserRepository
	referralRepo repositories.ReferralRepository
	rewardRepo   repositories.RewardRepository
	rewards      *RewardUsecase
	isAdmin      AdminAuthorizer
}

// NewAdminUsecase creates a new admin usecase
func NewAdminUsecase(
	userRepo repositories.UserRepository,
	referralRepo repositories.ReferralRepository,
	rewardRepo repositories.RewardRepository,
	rewards *RewardUsecase,
	isAdmin AdminAuthorizer,
) *AdminUsecase {
	return &AdminUsecase{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		rewardRepo:   rewardRepo,
		rewards:      rewards,
		isAdmin:      isAdmin,
	}
}

func (u *AdminUsecase) authorize(adminID int64) error {
	if u.isAdmin == nil || !u.isAdmin(adminID) {
		return domainerrors.ErrForbidden
	}
	return nil
}

// Authorized reports whether userID may run admin commands
func (u *AdminUsecase) Authorized(userID int64) bool {
	return u.authorize(userID) == nil
}

// Grant credits a reward to targetID on behalf of adminID
func (u *AdminUsecase) Grant(ctx context.Context, adminID, targetID int64) (*entities.GrantResult, error) {
	if err := u.authorize(adminID); err != nil {
		return nil, err
	}

	result, err := u.rewards.Grant(ctx, targetID)
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "Admin grant",
		zap.Int64("admin_id", adminID),
		zap.Int64("target_id", targetID),
		zap.String("outcome", string(result.Outcome)),
	)
	return result, nil
}

// Stats returns ledger totals
func (u *AdminUsecase) Stats(ctx context.Context, adminID int64) (*entities.LedgerStats, error) {
	if err := u.authorize(adminID); err != nil {
		return nil, err
	}

	stats := &entities.LedgerStats{}
	var err error
	if stats.Users, err = u.userRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.VerifiedUsers, err = u.userRepo.CountByState(ctx, entities.VerificationVerified); err != nil {
		return nil, err
	}
	if stats.PendingUsers, err = u.userRepo.CountByState(ctx, entities.VerificationPending); err != nil {
		return nil, err
	}
	if stats.Referrals, err = u.referralRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.RewardedUsers, err = u.rewardRepo.CountRewarded(ctx); err != nil {
		return nil, err
	}
	return stats, nil
}
