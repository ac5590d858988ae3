package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
	"referral-bot.backend/internal/domain/entities"
	"referral-bot.backend/pkg/logger"
)

type pendingUserLister interface {
	ListByState(ctx context.Context, state entities.VerificationState, afterID int64, limit int) ([]*entities.User, error)
}

type verifier interface {
	RequestVerification(ctx context.Context, userID int64) (entities.VerificationOutcome, error)
}

type notifier interface {
	Notify(ctx context.Context, userID int64, text string)
}

// VerifiedText is sent to a user the sweep promotes
const VerifiedText = "✅ Your join request was approved. You are now verified!"

// PendingVerificationJob promotes pending users once their join request is approved
type PendingVerificationJob struct {
	users    pendingUserLister
	verifier verifier
	notifier notifier
	interval time.Duration
	batch    int
	stop     chan struct{}

	// last user id checked; the next sweep resumes after it
	cursor int64
}

func NewPendingVerificationJob(users pendingUserLister, v verifier, n notifier, interval time.Duration, batch int) *PendingVerificationJob {
	if batch <= 0 {
		batch = 50
	}
	return &PendingVerificationJob{
		users:    users,
		verifier: v,
		notifier: n,
		interval: interval,
		batch:    batch,
		stop:     make(chan struct{}),
	}
}

func (j *PendingVerificationJob) Start(ctx context.Context) {
	logger.Info(ctx, "Starting pending verification job", zap.Duration("interval", j.interval))

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Pending verification job stopped (context cancelled)")
			return
		case <-j.stop:
			logger.Info(ctx, "Pending verification job stopped")
			return
		case <-ticker.C:
			j.processPendingUsers(ctx)
		}
	}
}

func (j *PendingVerificationJob) Stop() {
	close(j.stop)
}

func (j *PendingVerificationJob) processPendingUsers(ctx context.Context) {
	pending, err := j.users.ListByState(ctx, entities.VerificationPending, j.cursor, j.batch)
	if err != nil {
		logger.Error(ctx, "Error fetching pending users", zap.Error(err))
		return
	}
	if len(pending) < j.batch {
		j.cursor = 0
	} else {
		j.cursor = pending[len(pending)-1].ID
	}
	if len(pending) == 0 {
		return
	}

	promoted := 0
	for _, user := range pending {
		outcome, err := j.verifier.RequestVerification(ctx, user.ID)
		if err != nil {
			logger.Warn(ctx, "Pending re-check failed", zap.Int64("user_id", user.ID), zap.Error(err))
			continue
		}
		if outcome == entities.VerificationOutcomeVerified {
			promoted++
			j.notifier.Notify(ctx, user.ID, VerifiedText)
		}
	}

	logger.Info(ctx, "Re-checked pending users", zap.Int("checked", len(pending)), zap.Int("verified", promoted))
}
