package main

import (
	"gorm.io/gorm"

	"referral-bot.backend/internal/config"
	"referral-bot.backend/internal/infrastructure/cache"
	"referral-bot.backend/internal/infrastructure/jobs"
	"referral-bot.backend/internal/infrastructure/repositories"
	"referral-bot.backend/internal/infrastructure/telegram"
	tghandler "referral-bot.backend/internal/interfaces/telegram"
	"referral-bot.backend/internal/usecases"
	"referral-bot.backend/pkg/redis"
)

// app holds the long-lived components main starts and stops
type app struct {
	processor  *tghandler.Processor
	dispatcher *usecases.Dispatcher
	pendingJob *jobs.PendingVerificationJob
}

func buildApp(cfg *config.Config, db *gorm.DB, client *telegram.Client) *app {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	referralRepo := repositories.NewReferralRepository(db)
	rewardRepo := repositories.NewRewardRepository(db)
	uow := repositories.NewUnitOfWork(db)

	dispatcher := usecases.NewDispatcher(client, cfg.Workers.NotifyQueueSize, cfg.Workers.NotifyWorkers, cfg.Workers.NotifyTimeout)

	// Join requests only exist in redis; without it verification runs membership-only
	var joinStore *cache.JoinRequestStore
	var joinChecker usecases.JoinRequestChecker
	if redis.Enabled() {
		joinStore = cache.NewJoinRequestStore(client.ChannelID(), cfg.Telegram.JoinRequestTTL)
		joinChecker = joinStore
	}

	// Initialize usecases
	rewardUsecase := usecases.NewRewardUsecase(userRepo, referralRepo, rewardRepo, uow, dispatcher,
		usecases.NewCodeGenerator(cfg.Referral.RewardCodePrefix),
		usecases.RewardOptions{
			Threshold:                 cfg.Referral.Threshold,
			Policy:                    cfg.Referral.RewardPolicy,
			ClaimRequiresVerification: cfg.Referral.ClaimRequiresVerification,
		})
	registrationUsecase := usecases.NewRegistrationUsecase(userRepo, referralRepo, uow, rewardUsecase, dispatcher, cfg.Referral.RequireReferrerExists)
	verificationUsecase := usecases.NewVerificationUsecase(userRepo, client, joinChecker, cfg.Telegram.MembershipTimeout)
	adminUsecase := usecases.NewAdminUsecase(userRepo, referralRepo, rewardRepo, rewardUsecase, cfg.Referral.IsAdmin)

	opts := []tghandler.HandlerOption{
		tghandler.WithThrottle(cache.NewThrottle("throttle:verify", cfg.Telegram.VerifyCooldown)),
	}
	if joinStore != nil {
		opts = append(opts, tghandler.WithJoinRequests(joinStore))
	}
	handler := tghandler.NewHandler(client, registrationUsecase, rewardUsecase, verificationUsecase, adminUsecase, opts...)

	a := &app{
		processor:  tghandler.NewProcessor(handler, cfg.Workers.UpdateWorkers, cfg.Workers.EventTimeout),
		dispatcher: dispatcher,
	}
	if cfg.Workers.PendingSweepInterval > 0 && joinStore != nil {
		a.pendingJob = jobs.NewPendingVerificationJob(userRepo, verificationUsecase, dispatcher,
			cfg.Workers.PendingSweepInterval, cfg.Workers.PendingSweepBatch)
	}
	return a
}
