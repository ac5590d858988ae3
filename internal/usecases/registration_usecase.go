package usecases

import (
	"context"

	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"
	"referral-bot.backend/internal/domain/entities"
	domainerrors "referral-bot.backend/internal/domain/errors"
	"referral-bot.backend/internal/domain/repositories"
	"referral-bot.backend/pkg/logger"
	"referral-bot.backend/pkg/metrics"
)

// RegistrationUsecase handles start events
type RegistrationUsecase struct {
	userRepo              repositories.UserRepository
	referralRepo          repositories.ReferralRepository
	uow                   repositories.UnitOfWork
	rewards               *RewardUsecase
	notifier              Notifier
	requireReferrerExists bool
}

// NewRegistrationUsecase creates a new registration usecase
func NewRegistrationUsecase(
	userRepo repositories.UserRepository,
	referralRepo repositories.ReferralRepository,
	uow repositories.UnitOfWork,
	rewards *RewardUsecase,
	notifier Notifier,
	requireReferrerExists bool,
) *RegistrationUsecase {
	return &RegistrationUsecase{
		userRepo:              userRepo,
		referralRepo:          referralRepo,
		uow:                   uow,
		rewards:               rewards,
		notifier:              notifier,
		requireReferrerExists: requireReferrerExists,
	}
}

// Register records the user and, on first contact only, the referral edge
// implied by the start token. Replays are harmless: an existing user is
// refreshed and never re-attributed.
func (u *RegistrationUsecase) Register(ctx context.Context, input *entities.RegistrationInput) (*entities.RegistrationResult, error) {
	if input == nil || input.UserID <= 0 {
		return nil, domainerrors.ErrInvalidInput
	}

	token := entities.ParseReferralToken(input.ReferralToken)
	if token.Kind == entities.ReferralTokenMalformed {
		logger.Debug(ctx, "Ignoring malformed referral token", zap.String("token", input.ReferralToken))
	}

	result := &entities.RegistrationResult{Outcome: entities.RegistrationExistingUser}
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		referrerID, err := u.resolveReferrer(txCtx, input.UserID, token)
		if err != nil {
			return err
		}

		user := &entities.User{
			ID:          input.UserID,
			Username:    input.Username,
			DisplayName: input.DisplayName,
		}
		if referrerID > 0 {
			user.ReferrerID = null.Int64From(referrerID)
		}

		isNew, err := u.userRepo.Upsert(txCtx, user)
		if err != nil {
			return err
		}
		if !isNew {
			return nil
		}

		result.Outcome = entities.RegistrationNewUser
		if referrerID == 0 {
			return nil
		}

		inserted, err := u.referralRepo.Insert(txCtx, referrerID, input.UserID)
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}
		result.ReferrerID = referrerID
		result.EdgeCreated = true

		result.Evaluation, err = u.rewards.evaluate(txCtx, referrerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.Registrations.WithLabelValues(string(result.Outcome)).Inc()
	if result.EdgeCreated {
		metrics.ReferralEdges.Inc()
		logger.Info(ctx, "Referral recorded",
			zap.Int64("referrer_id", result.ReferrerID),
			zap.Int64("referred_id", input.UserID),
		)
		u.notifier.Notify(ctx, result.ReferrerID, referralJoinedText(
			input.Username, input.DisplayName, result.Evaluation.ReferralCount, u.rewards.Threshold()))
		u.rewards.announceGrant(ctx, result.Evaluation)
	}
	return result, nil
}

// resolveReferrer returns 0 when the token does not name a usable referrer
func (u *RegistrationUsecase) resolveReferrer(ctx context.Context, userID int64, token entities.ReferralToken) (int64, error) {
	referrerID, ok := token.Candidate()
	if !ok {
		return 0, nil
	}
	if referrerID == userID {
		logger.Debug(ctx, "Ignoring self referral")
		return 0, nil
	}
	if !u.requireReferrerExists {
		return referrerID, nil
	}

	exists, err := u.userRepo.Exists(ctx, referrerID)
	if err != nil {
		return 0, err
	}
	if !exists {
		logger.Debug(ctx, "Ignoring referral from unknown user", zap.Int64("referrer_id", referrerID))
		return 0, nil
	}
	return referrerID, nil
}
