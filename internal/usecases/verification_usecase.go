package usecases

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"referral-bot.backend/internal/domain/entities"
	domainerrors "referral-bot.backend/internal/domain/errors"
	"referral-bot.backend/internal/domain/repositories"
	"referral-bot.backend/pkg/logger"
	"referral-bot.backend/pkg/metrics"
)

// MembershipChecker answers whether a user is in the gated channel
type MembershipChecker interface {
	IsMember(ctx context.Context, userID int64) (bool, error)
}

// JoinRequestChecker answers whether a user has an unanswered join request.
// It is optional: without elevated credentials the gate runs membership-only.
type JoinRequestChecker interface {
	HasPendingJoinRequest(ctx context.Context, userID int64) (bool, error)
}

// VerificationUsecase drives the channel-join state machine
type VerificationUsecase struct {
	userRepo     repositories.UserRepository
	membership   MembershipChecker
	joinRequests JoinRequestChecker
	timeout      time.Duration
}

// NewVerificationUsecase creates a new verification usecase. joinRequests may be nil.
func NewVerificationUsecase(
	userRepo repositories.UserRepository,
	membership MembershipChecker,
	joinRequests JoinRequestChecker,
	timeout time.Duration,
) *VerificationUsecase {
	return &VerificationUsecase{
		userRepo:     userRepo,
		membership:   membership,
		joinRequests: joinRequests,
		timeout:      timeout,
	}
}

// RequestVerification consults the collaborators and moves the user forward.
// A failed or slow collaborator counts as "not a member".
func (u *VerificationUsecase) RequestVerification(ctx context.Context, userID int64) (entities.VerificationOutcome, error) {
	user, err := u.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return "", domainerrors.ErrUserNotRegistered
		}
		return "", err
	}
	if user.IsVerified() {
		metrics.VerificationRequests.WithLabelValues(string(entities.VerificationOutcomeVerified)).Inc()
		return entities.VerificationOutcomeVerified, nil
	}

	outcome, err := u.check(ctx, user)
	if err != nil {
		return "", err
	}
	metrics.VerificationRequests.WithLabelValues(string(outcome)).Inc()
	return outcome, nil
}

func (u *VerificationUsecase) check(ctx context.Context, user *entities.User) (entities.VerificationOutcome, error) {
	if u.isMember(ctx, user.ID) {
		if _, err := u.userRepo.TransitionVerification(ctx, user.ID,
			[]entities.VerificationState{entities.VerificationUnverified, entities.VerificationPending},
			entities.VerificationVerified,
		); err != nil {
			return "", err
		}
		logger.Info(ctx, "User verified", zap.Int64("user_id", user.ID))
		return entities.VerificationOutcomeVerified, nil
	}

	if u.hasPendingJoinRequest(ctx, user.ID) {
		ok, err := u.userRepo.TransitionVerification(ctx, user.ID,
			[]entities.VerificationState{entities.VerificationUnverified},
			entities.VerificationPending,
		)
		if err != nil {
			return "", err
		}
		if !ok {
			// lost a race to a concurrent verification; report what is stored now
			current, err := u.userRepo.GetByID(ctx, user.ID)
			if err != nil {
				return "", err
			}
			if current.IsVerified() {
				return entities.VerificationOutcomeVerified, nil
			}
		}
		return entities.VerificationOutcomePendingConfirmed, nil
	}

	return entities.VerificationOutcomeNotFound, nil
}

func (u *VerificationUsecase) isMember(ctx context.Context, userID int64) bool {
	if u.membership == nil {
		return false
	}
	qctx, cancel := u.withTimeout(ctx)
	defer cancel()

	ok, err := u.membership.IsMember(qctx, userID)
	if err != nil {
		logger.Warn(ctx, "Membership query failed", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return ok
}

func (u *VerificationUsecase) hasPendingJoinRequest(ctx context.Context, userID int64) bool {
	if u.joinRequests == nil {
		return false
	}
	qctx, cancel := u.withTimeout(ctx)
	defer cancel()

	ok, err := u.joinRequests.HasPendingJoinRequest(qctx, userID)
	if err != nil {
		logger.Warn(ctx, "Join request query failed", zap.Int64("user_id", userID), zap.Error(err))
		return false
	}
	return ok
}

func (u *VerificationUsecase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.timeout)
}
