package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"referral-bot.backend/pkg/logger"
	"referral-bot.backend/pkg/redis"
)

var setThrottleKey = redis.SetNX

// Throttle admits one action per key per cooldown window
type Throttle struct {
	prefix   string
	cooldown time.Duration
}

// NewThrottle creates a throttle whose keys live under prefix
func NewThrottle(prefix string, cooldown time.Duration) *Throttle {
	return &Throttle{prefix: prefix, cooldown: cooldown}
}

// Allow reports whether userID may act now. Redis errors let the action through.
func (t *Throttle) Allow(ctx context.Context, userID int64) bool {
	if t == nil || t.cooldown <= 0 || !redis.Enabled() {
		return true
	}

	ok, err := setThrottleKey(ctx, fmt.Sprintf("%s:%d", t.prefix, userID), 1, t.cooldown)
	if err != nil {
		logger.Warn(ctx, "Throttle check failed, allowing", zap.String("prefix", t.prefix), zap.Error(err))
		return true
	}
	return ok
}
