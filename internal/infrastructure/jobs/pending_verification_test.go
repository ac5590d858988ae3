package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"referral-bot.backend/internal/domain/entities"
)

type pendingUserListerStub struct {
	users  []*entities.User
	err    error
	limit  int
	after  []int64
	called int
}

func (s *pendingUserListerStub) ListByState(_ context.Context, state entities.VerificationState, afterID int64, limit int) ([]*entities.User, error) {
	s.called++
	s.limit = limit
	s.after = append(s.after, afterID)
	if s.err != nil {
		return nil, s.err
	}
	if state != entities.VerificationPending {
		return nil, nil
	}
	var out []*entities.User
	for _, u := range s.users {
		if u.ID > afterID && len(out) < limit {
			out = append(out, u)
		}
	}
	return out, nil
}

type verifierStub struct {
	outcomes map[int64]entities.VerificationOutcome
	errs     map[int64]error
	checked  []int64
}

func (s *verifierStub) RequestVerification(_ context.Context, userID int64) (entities.VerificationOutcome, error) {
	s.checked = append(s.checked, userID)
	if err := s.errs[userID]; err != nil {
		return "", err
	}
	return s.outcomes[userID], nil
}

type notifierStub struct {
	recipients []int64
}

func (s *notifierStub) Notify(_ context.Context, userID int64, _ string) {
	s.recipients = append(s.recipients, userID)
}

func TestProcessPendingUsers_NoItems(t *testing.T) {
	users := &pendingUserListerStub{}
	v := &verifierStub{}
	job := NewPendingVerificationJob(users, v, &notifierStub{}, time.Millisecond, 0)

	job.processPendingUsers(context.Background())
	require.Equal(t, 50, users.limit)
	require.Empty(t, v.checked)
}

func TestProcessPendingUsers_PromotesAndNotifies(t *testing.T) {
	users := &pendingUserListerStub{users: []*entities.User{{ID: 1}, {ID: 2}, {ID: 3}}}
	v := &verifierStub{
		outcomes: map[int64]entities.VerificationOutcome{
			1: entities.VerificationOutcomeVerified,
			2: entities.VerificationOutcomePendingConfirmed,
		},
		errs: map[int64]error{3: errors.New("db down")},
	}
	n := &notifierStub{}
	job := NewPendingVerificationJob(users, v, n, time.Millisecond, 10)

	job.processPendingUsers(context.Background())
	require.Equal(t, []int64{1, 2, 3}, v.checked)
	require.Equal(t, []int64{1}, n.recipients)
	require.Equal(t, 10, users.limit)
}

func TestProcessPendingUsers_ListError(t *testing.T) {
	users := &pendingUserListerStub{err: errors.New("db down")}
	v := &verifierStub{}
	job := NewPendingVerificationJob(users, v, &notifierStub{}, time.Millisecond, 10)

	job.processPendingUsers(context.Background())
	require.Empty(t, v.checked)
}

func TestPendingVerificationJob_StartStop(t *testing.T) {
	users := &pendingUserListerStub{}
	job := NewPendingVerificationJob(users, &verifierStub{}, &notifierStub{}, time.Millisecond, 10)

	done := make(chan struct{})
	go func() {
		job.Start(context.Background())
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	job.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop")
	}
}

func TestPendingVerificationJob_ContextCancel(t *testing.T) {
	job := NewPendingVerificationJob(&pendingUserListerStub{}, &verifierStub{}, &notifierStub{}, time.Hour, 10)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		job.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("job did not stop on cancel")
	}
}

func TestProcessPendingUsers_CursorWrapsAround(t *testing.T) {
	users := &pendingUserListerStub{users: []*entities.User{{ID: 1}, {ID: 2}, {ID: 3}}}
	v := &verifierStub{}
	job := NewPendingVerificationJob(users, v, &notifierStub{}, time.Millisecond, 2)

	for i := 0; i < 3; i++ {
		job.processPendingUsers(context.Background())
	}
	require.Equal(t, []int64{0, 2, 0}, users.after)
	require.Equal(t, []int64{1, 2, 3, 1, 2}, v.checked)
}
