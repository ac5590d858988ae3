package telegram

import (
	"context"
	"strconv"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"
	"referral-bot.backend/internal/domain/entities"
	"referral-bot.backend/internal/infrastructure/cache"
)

type sentReply struct {
	chatID   int64
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

type fakeResponder struct {
	mu       sync.Mutex
	replies  []sentReply
	answered []string
	sendErr  error
}

func (f *fakeResponder) SendWithKeyboard(_ context.Context, chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, sentReply{chatID: chatID, text: text, keyboard: keyboard})
	return f.sendErr
}

func (f *fakeResponder) AnswerCallback(_ context.Context, callbackID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answered = append(f.answered, callbackID)
	return nil
}

func (f *fakeResponder) ReferralLink(userID int64) string {
	return "https://t.me/refbot?start=" + strconv.FormatInt(userID, 10)
}

func (f *fakeResponder) last() sentReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return sentReply{}
	}
	return f.replies[len(f.replies)-1]
}

type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) Register(ctx context.Context, input *entities.RegistrationInput) (*entities.RegistrationResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RegistrationResult), args.Error(1)
}

type MockRewards struct {
	mock.Mock
}

func (m *MockRewards) Summary(ctx context.Context, userID int64) (*entities.ReferralSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ReferralSummary), args.Error(1)
}

func (m *MockRewards) Claim(ctx context.Context, userID int64) (*entities.ClaimResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ClaimResult), args.Error(1)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) RequestVerification(ctx context.Context, userID int64) (entities.VerificationOutcome, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(entities.VerificationOutcome), args.Error(1)
}

type MockAdmin struct {
	mock.Mock
}

func (m *MockAdmin) Authorized(userID int64) bool {
	args := m.Called(userID)
	return args.Bool(0)
}

func (m *MockAdmin) Grant(ctx context.Context, adminID, targetID int64) (*entities.GrantResult, error) {
	args := m.Called(ctx, adminID, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.GrantResult), args.Error(1)
}

func (m *MockAdmin) Stats(ctx context.Context, adminID int64) (*entities.LedgerStats, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.LedgerStats), args.Error(1)
}

type MockJoinRequestRecorder struct {
	mock.Mock
}

func (m *MockJoinRequestRecorder) Record(ctx context.Context, req *cache.JoinRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

type stubThrottle struct {
	allow bool
}

func (s stubThrottle) Allow(context.Context, int64) bool {
	return s.allow
}
