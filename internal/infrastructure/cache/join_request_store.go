package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"referral-bot.backend/pkg/redis"
)

// JoinRequest is a pending request to join the gated channel
type JoinRequest struct {
	ChatID      int64     `json:"chatId"`
	UserID      int64     `json:"userId"`
	RequestedAt time.Time `json:"requestedAt"`
}

// JoinRequestStore keeps pending join requests in Redis until they expire
type JoinRequestStore struct {
	chatID int64
	ttl    time.Duration
}

var (
	setJoinRequest    = redis.Set
	getJoinRequest    = redis.Get
	deleteJoinRequest = redis.Del
)

// NewJoinRequestStore creates a store for requests against chatID
func NewJoinRequestStore(chatID int64, ttl time.Duration) *JoinRequestStore {
	return &JoinRequestStore{chatID: chatID, ttl: ttl}
}

func (s *JoinRequestStore) key(userID int64) string {
	return fmt.Sprintf("joinreq:%d:%d", s.chatID, userID)
}

// ChatID is the channel the store tracks
func (s *JoinRequestStore) ChatID() int64 {
	return s.chatID
}

// Record stores a join request; requests for other chats are ignored
func (s *JoinRequestStore) Record(ctx context.Context, req *JoinRequest) error {
	if req == nil || req.ChatID != s.chatID {
		return nil
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = time.Now()
	}

	data, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return setJoinRequest(ctx, s.key(req.UserID), data, s.ttl)
}

// Get returns the stored request or nil when there is none
func (s *JoinRequestStore) Get(ctx context.Context, userID int64) (*JoinRequest, error) {
	raw, err := getJoinRequest(ctx, s.key(userID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}

	var req JoinRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, fmt.Errorf("decode join request: %w", err)
	}
	return &req, nil
}

// HasPendingJoinRequest reports whether userID asked to join and has not expired
func (s *JoinRequestStore) HasPendingJoinRequest(ctx context.Context, userID int64) (bool, error) {
	req, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	return req != nil, nil
}

// Forget drops a request once it has been resolved
func (s *JoinRequestStore) Forget(ctx context.Context, userID int64) error {
	return deleteJoinRequest(ctx, s.key(userID))
}
