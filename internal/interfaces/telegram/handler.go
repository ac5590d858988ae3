package telegram

import (
	"context"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"referral-bot.backend/internal/domain/entities"
	"referral-bot.backend/internal/infrastructure/cache"
	"referral-bot.backend/pkg/logger"
)

// Responder sends replies back over the messaging provider
type Responder interface {
	SendWithKeyboard(ctx context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	ReferralLink(userID int64) string
}

type Registrar interface {
	Register(ctx context.Context, input *entities.RegistrationInput) (*entities.RegistrationResult, error)
}

type Rewards interface {
	Summary(ctx context.Context, userID int64) (*entities.ReferralSummary, error)
	Claim(ctx context.Context, userID int64) (*entities.ClaimResult, error)
}

type Verifier interface {
	RequestVerification(ctx context.Context, userID int64) (entities.VerificationOutcome, error)
}

type Admin interface {
	Authorized(userID int64) bool
	Grant(ctx context.Context, adminID, targetID int64) (*entities.GrantResult, error)
	Stats(ctx context.Context, adminID int64) (*entities.LedgerStats, error)
}

type JoinRequestRecorder interface {
	Record(ctx context.Context, req *cache.JoinRequest) error
}

type Throttle interface {
	Allow(ctx context.Context, userID int64) bool
}

// Handler routes events to the usecases and renders their outcomes
type Handler struct {
	responder    Responder
	registrar    Registrar
	rewards      Rewards
	verifier     Verifier
	admin        Admin
	joinRequests JoinRequestRecorder
	throttle     Throttle
}

// HandlerOption configures optional collaborators
type HandlerOption func(*Handler)

// WithJoinRequests records chat_join_request updates
func WithJoinRequests(r JoinRequestRecorder) HandlerOption {
	return func(h *Handler) { h.joinRequests = r }
}

// WithThrottle rate-limits verify presses
func WithThrottle(t Throttle) HandlerOption {
	return func(h *Handler) { h.throttle = t }
}

// NewHandler creates a new event handler
func NewHandler(responder Responder, registrar Registrar, rewards Rewards, verifier Verifier, admin Admin, opts ...HandlerOption) *Handler {
	h := &Handler{
		responder: responder,
		registrar: registrar,
		rewards:   rewards,
		verifier:  verifier,
		admin:     admin,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type reply struct {
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

// Handle processes one event. Usecase failures become user-facing replies;
// only delivery of the reply itself can fail.
func (h *Handler) Handle(ctx context.Context, ev *Event) error {
	if ev.Kind == EventJoinRequest {
		return h.recordJoinRequest(ctx, ev)
	}
	if ev.Kind == EventCallback && ev.CallbackID != "" {
		if err := h.responder.AnswerCallback(ctx, ev.CallbackID, ""); err != nil {
			logger.Debug(ctx, "Failed to answer callback", zap.Error(err))
		}
	}

	r := h.route(ctx, ev)
	if r == nil {
		return nil
	}
	return h.responder.SendWithKeyboard(ctx, ev.ChatID, r.text, r.keyboard)
}

func (h *Handler) route(ctx context.Context, ev *Event) *reply {
	switch ev.Action {
	case ActionStart:
		return h.start(ctx, ev)
	case ActionMyRefs:
		return h.myRefs(ctx, ev)
	case ActionVerify:
		return h.verify(ctx, ev)
	case ActionClaim:
		return h.claim(ctx, ev)
	case ActionGrant:
		return h.grant(ctx, ev)
	case ActionStats:
		return h.stats(ctx, ev)
	default:
		return &reply{text: textHelp, keyboard: mainKeyboard()}
	}
}

func (h *Handler) start(ctx context.Context, ev *Event) *reply {
	res, err := h.registrar.Register(ctx, &entities.RegistrationInput{
		UserID:        ev.UserID,
		Username:      ev.Username,
		DisplayName:   ev.DisplayName,
		ReferralToken: ev.Argument,
	})
	if err != nil {
		return h.failure(ctx, ev, err)
	}

	summary, err := h.rewards.Summary(ctx, ev.UserID)
	if err != nil {
		return h.failure(ctx, ev, err)
	}
	return &reply{
		text:     welcomeText(ev, res, summaryText(summary, h.responder.ReferralLink(ev.UserID))),
		keyboard: mainKeyboard(),
	}
}

func (h *Handler) myRefs(ctx context.Context, ev *Event) *reply {
	summary, err := h.rewards.Summary(ctx, ev.UserID)
	if err != nil {
		return h.failure(ctx, ev, err)
	}
	return &reply{text: summaryText(summary, h.responder.ReferralLink(ev.UserID)), keyboard: mainKeyboard()}
}

func (h *Handler) verify(ctx context.Context, ev *Event) *reply {
	if h.throttle != nil && !h.throttle.Allow(ctx, ev.UserID) {
		return &reply{text: textThrottled}
	}
	outcome, err := h.verifier.RequestVerification(ctx, ev.UserID)
	if err != nil {
		return h.failure(ctx, ev, err)
	}
	if outcome == entities.VerificationOutcomeVerified {
		return &reply{text: verificationText(outcome), keyboard: mainKeyboard()}
	}
	return &reply{text: verificationText(outcome)}
}

func (h *Handler) claim(ctx context.Context, ev *Event) *reply {
	res, err := h.rewards.Claim(ctx, ev.UserID)
	if err != nil {
		return h.failure(ctx, ev, err)
	}
	return &reply{text: claimText(res)}
}

func (h *Handler) grant(ctx context.Context, ev *Event) *reply {
	targetID, err := strconv.ParseInt(ev.Argument, 10, 64)
	if err != nil || targetID <= 0 {
		if !h.admin.Authorized(ev.UserID) {
			return &reply{text: textForbidden}
		}
		return &reply{text: textGrantUsage}
	}

	res, err := h.admin.Grant(ctx, ev.UserID, targetID)
	if err != nil {
		return h.failure(ctx, ev, err)
	}
	return &reply{text: grantText(res)}
}

func (h *Handler) stats(ctx context.Context, ev *Event) *reply {
	s, err := h.admin.Stats(ctx, ev.UserID)
	if err != nil {
		return h.failure(ctx, ev, err)
	}
	return &reply{text: statsText(s)}
}

func (h *Handler) recordJoinRequest(ctx context.Context, ev *Event) error {
	if h.joinRequests == nil {
		return nil
	}
	err := h.joinRequests.Record(ctx, &cache.JoinRequest{
		ChatID:      ev.ChatID,
		UserID:      ev.UserID,
		RequestedAt: time.Now(),
	})
	if err != nil {
		logger.Warn(ctx, "Failed to record join request", zap.Error(err))
	}
	return nil
}

func (h *Handler) failure(ctx context.Context, ev *Event, err error) *reply {
	text, expected := errorText(ev.Action, err)
	if !expected {
		logger.Error(ctx, "Failed to handle event", zap.String("action", ev.Action), zap.Error(err))
	}
	return &reply{text: text}
}
