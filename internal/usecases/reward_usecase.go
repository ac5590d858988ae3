package usecases

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"referral-bot.backend/internal/domain/entities"
	domainerrors "referral-bot.backend/internal/domain/errors"
	"referral-bot.backend/internal/domain/repositories"
	"referral-bot.backend/pkg/logger"
	"referral-bot.backend/pkg/metrics"
)

// RewardOptions are the configured reward rules
type RewardOptions struct {
	Threshold                 int
	Policy                    entities.RewardPolicy
	ClaimRequiresVerification bool
}

// RewardUsecase evaluates thresholds and moves reward balances
type RewardUsecase struct {
	userRepo     repositories.UserRepository
	referralRepo repositories.ReferralRepository
	rewardRepo   repositories.RewardRepository
	uow          repositories.UnitOfWork
	notifier     Notifier
	newCode      CodeGenerator
	opts         RewardOptions
}

// NewRewardUsecase creates a new reward usecase
func NewRewardUsecase(
	userRepo repositories.UserRepository,
	referralRepo repositories.ReferralRepository,
	rewardRepo repositories.RewardRepository,
	uow repositories.UnitOfWork,
	notifier Notifier,
	newCode CodeGenerator,
	opts RewardOptions,
) *RewardUsecase {
	if !opts.Policy.Valid() {
		opts.Policy = entities.RewardPolicyOnce
	}
	return &RewardUsecase{
		userRepo:     userRepo,
		referralRepo: referralRepo,
		rewardRepo:   rewardRepo,
		uow:          uow,
		notifier:     notifier,
		newCode:      newCode,
		opts:         opts,
	}
}

// Threshold returns the configured referral count per reward
func (u *RewardUsecase) Threshold() int {
	return u.opts.Threshold
}

// Evaluate re-checks a referrer's count and grants any reward it is owed.
// Safe to call repeatedly: grants are keyed on the account state, not the count.
func (u *RewardUsecase) Evaluate(ctx context.Context, referrerID int64) (*entities.RewardEvaluation, error) {
	var eval *entities.RewardEvaluation
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		var err error
		eval, err = u.evaluate(txCtx, referrerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	u.announceGrant(ctx, eval)
	return eval, nil
}

// evaluate must run inside a unit of work. The referrer's account row is
// locked before counting, so concurrent registrations for the same referrer
// count one after another and none of them misses the threshold.
func (u *RewardUsecase) evaluate(ctx context.Context, referrerID int64) (*entities.RewardEvaluation, error) {
	if err := u.rewardRepo.EnsureAccount(ctx, referrerID); err != nil {
		return nil, err
	}
	account, err := u.rewardRepo.GetAccount(u.uow.WithLock(ctx), referrerID)
	if err != nil {
		return nil, err
	}

	count, err := u.referralRepo.CountByReferrer(ctx, referrerID)
	if err != nil {
		return nil, err
	}

	eval := &entities.RewardEvaluation{
		Outcome:       entities.RewardNoChange,
		ReferrerID:    referrerID,
		ReferralCount: count,
	}

	entitled := u.entitledThresholdGrants(count, account)
	for granted := account.ThresholdGrants; granted < entitled; granted++ {
		code := u.newCode()
		ok, err := u.rewardRepo.RecordThresholdGrant(ctx, referrerID, granted, code)
		if err != nil {
			return nil, err
		}
		if !ok {
			// a concurrent evaluation already advanced the account
			break
		}
		eval.Codes = append(eval.Codes, code)
	}

	if len(eval.Codes) > 0 {
		eval.Outcome = entities.RewardGranted
	}
	return eval, nil
}

// entitledThresholdGrants caps a once-policy account that already holds an admin grant
func (u *RewardUsecase) entitledThresholdGrants(count int64, account *entities.RewardAccount) int64 {
	if u.opts.Policy == entities.RewardPolicyOnce && account.AdminGrants > 0 {
		return account.ThresholdGrants
	}
	return u.opts.Policy.EntitledGrants(count, u.opts.Threshold)
}

func (u *RewardUsecase) announceGrant(ctx context.Context, eval *entities.RewardEvaluation) {
	if eval == nil || eval.Outcome != entities.RewardGranted {
		return
	}
	for _, code := range eval.Codes {
		metrics.RewardGrants.WithLabelValues(string(entities.RewardCodeThreshold)).Inc()
		logger.Info(ctx, "Reward granted",
			zap.Int64("referrer_id", eval.ReferrerID),
			zap.Int64("referrals", eval.ReferralCount),
		)
		u.notifier.Notify(ctx, eval.ReferrerID, thresholdRewardText(u.opts.Threshold, code))
	}
}

// Claim spends one unit of balance and issues a delivery code. A zero
// balance is the Empty outcome and leaves the ledger untouched.
func (u *RewardUsecase) Claim(ctx context.Context, userID int64) (*entities.ClaimResult, error) {
	var result *entities.ClaimResult
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		user, err := u.userRepo.GetByID(txCtx, userID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrNotFound) {
				return domainerrors.ErrUserNotRegistered
			}
			return err
		}
		if u.opts.ClaimRequiresVerification && !user.IsVerified() {
			result = &entities.ClaimResult{Outcome: entities.ClaimLocked}
			return nil
		}

		account, err := u.rewardRepo.GetAccount(u.uow.WithLock(txCtx), userID)
		if err != nil {
			return err
		}
		if account.Balance <= 0 {
			result = &entities.ClaimResult{Outcome: entities.ClaimEmpty}
			return nil
		}

		code := u.newCode()
		updated, err := u.rewardRepo.AdjustBalance(txCtx, userID, -1, &entities.RewardCode{
			Code: code,
			Kind: entities.RewardCodeClaim,
		})
		if errors.Is(err, domainerrors.ErrNegativeBalance) {
			result = &entities.ClaimResult{Outcome: entities.ClaimEmpty}
			return nil
		}
		if err != nil {
			return err
		}
		result = &entities.ClaimResult{Outcome: entities.ClaimClaimed, Code: code, Balance: updated.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.RewardClaims.WithLabelValues(string(result.Outcome)).Inc()
	if result.Outcome == entities.ClaimClaimed {
		logger.Info(ctx, "Reward claimed", zap.Int64("balance_left", result.Balance))
	}
	return result, nil
}

// Grant credits one unit by hand. Under the once policy a user that already
// holds any grant is refused.
func (u *RewardUsecase) Grant(ctx context.Context, userID int64) (*entities.GrantResult, error) {
	if userID <= 0 {
		return nil, domainerrors.ErrInvalidInput
	}

	var result *entities.GrantResult
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.rewardRepo.EnsureAccount(txCtx, userID); err != nil {
			return err
		}
		account, err := u.rewardRepo.GetAccount(u.uow.WithLock(txCtx), userID)
		if err != nil {
			return err
		}
		if u.opts.Policy == entities.RewardPolicyOnce && account.TotalGrants() > 0 {
			result = &entities.GrantResult{Outcome: entities.GrantAlreadyRewarded, UserID: userID}
			return nil
		}

		code := u.newCode()
		if _, err := u.rewardRepo.AdjustBalance(txCtx, userID, 1, &entities.RewardCode{
			Code: code,
			Kind: entities.RewardCodeAdmin,
		}); err != nil {
			return err
		}
		result = &entities.GrantResult{Outcome: entities.GrantGranted, UserID: userID, Code: code}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Outcome == entities.GrantGranted {
		metrics.RewardGrants.WithLabelValues(string(entities.RewardCodeAdmin)).Inc()
		u.notifier.Notify(ctx, userID, adminGrantText(result.Code))
	}
	return result, nil
}

// Summary gathers what a user sees for their own referrals
func (u *RewardUsecase) Summary(ctx context.Context, userID int64) (*entities.ReferralSummary, error) {
	summary := &entities.ReferralSummary{
		UserID:            userID,
		Threshold:         u.opts.Threshold,
		VerificationState: entities.VerificationUnverified,
	}

	user, err := u.userRepo.GetByID(ctx, userID)
	switch {
	case err == nil:
		summary.VerificationState = user.VerificationState
	case !errors.Is(err, domainerrors.ErrNotFound):
		return nil, err
	}

	if summary.ReferralCount, err = u.referralRepo.CountByReferrer(ctx, userID); err != nil {
		return nil, err
	}

	account, err := u.rewardRepo.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.Balance = account.Balance

	codes, err := u.rewardRepo.ListCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(codes) > 0 {
		summary.LastCode = codes[len(codes)-1].Code
	}
	return summary, nil
}
