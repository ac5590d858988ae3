package usecases_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"referral-bot.backend/internal/domain/entities"
	"referral-bot.backend/internal/infrastructure/repositories"
	"referral-bot.backend/internal/testutil"
	"referral-bot.backend/internal/usecases"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	args := m.Called(ctx, f)
	if err := args.Error(0); err != nil {
		return err
	}
	return f(ctx)
}

func (m *MockUnitOfWork) WithLock(ctx context.Context) context.Context {
	args := m.Called(ctx)
	return args.Get(0).(context.Context)
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Upsert(ctx context.Context, user *entities.User) (bool, error) {
	args := m.Called(ctx, user)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) TransitionVerification(ctx context.Context, id int64, from []entities.VerificationState, to entities.VerificationState) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountByState(ctx context.Context, state entities.VerificationState) (int64, error) {
	args := m.Called(ctx, state)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ListByState(ctx context.Context, state entities.VerificationState, afterID int64, limit int) ([]*entities.User, error) {
	args := m.Called(ctx, state, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.User), args.Error(1)
}

// Mock MembershipChecker
type MockMembershipChecker struct {
	mock.Mock
}

func (m *MockMembershipChecker) IsMember(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// Mock JoinRequestChecker
type MockJoinRequestChecker struct {
	mock.Mock
}

func (m *MockJoinRequestChecker) HasPendingJoinRequest(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// Mock Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, userID int64, text string) error {
	args := m.Called(ctx, userID, text)
	return args.Error(0)
}

type sentMessage struct {
	userID int64
	text   string
}

// recordingNotifier keeps every notification for assertions
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
}

func (n *recordingNotifier) Notify(_ context.Context, userID int64, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{userID: userID, text: text})
}

func (n *recordingNotifier) messagesFor(userID int64) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.sent {
		if m.userID == userID {
			out = append(out, m.text)
		}
	}
	return out
}

// ledger wires the usecases over an in-memory database
type ledger struct {
	users        *repositories.UserRepository
	referrals    *repositories.ReferralRepository
	rewards      *repositories.RewardRepository
	notifier     *recordingNotifier
	reward       *usecases.RewardUsecase
	registration *usecases.RegistrationUsecase
}

type ledgerOption func(*ledgerConfig)

type ledgerConfig struct {
	reward                usecases.RewardOptions
	requireReferrerExists bool
}

func withPolicy(p entities.RewardPolicy) ledgerOption {
	return func(c *ledgerConfig) { c.reward.Policy = p }
}

func withThreshold(n int) ledgerOption {
	return func(c *ledgerConfig) { c.reward.Threshold = n }
}

func withoutClaimVerification() ledgerOption {
	return func(c *ledgerConfig) { c.reward.ClaimRequiresVerification = false }
}

func withRequireReferrerExists() ledgerOption {
	return func(c *ledgerConfig) { c.requireReferrerExists = true }
}

func newLedger(t *testing.T, opts ...ledgerOption) *ledger {
	t.Helper()
	cfg := &ledgerConfig{reward: usecases.RewardOptions{
		Threshold:                 5,
		Policy:                    entities.RewardPolicyOnce,
		ClaimRequiresVerification: true,
	}}
	for _, opt := range opts {
		opt(cfg)
	}

	db := testutil.NewTestDB(t)
	l := &ledger{
		users:     repositories.NewUserRepository(db),
		referrals: repositories.NewReferralRepository(db),
		rewards:   repositories.NewRewardRepository(db),
		notifier:  &recordingNotifier{},
	}
	uow := repositories.NewUnitOfWork(db)
	l.reward = usecases.NewRewardUsecase(l.users, l.referrals, l.rewards, uow, l.notifier,
		usecases.NewCodeGenerator("REWARD-"), cfg.reward)
	l.registration = usecases.NewRegistrationUsecase(l.users, l.referrals, uow, l.reward, l.notifier,
		cfg.requireReferrerExists)
	return l
}

func (l *ledger) start(t *testing.T, userID int64, token string) *entities.RegistrationResult {
	t.Helper()
	res, err := l.registration.Register(context.Background(), &entities.RegistrationInput{
		UserID:        userID,
		Username:      "",
		DisplayName:   "user",
		ReferralToken: token,
	})
	if err != nil {
		t.Fatalf("register %d: %v", userID, err)
	}
	return res
}
