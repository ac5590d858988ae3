package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"referral-bot.backend/pkg/logger"
	"referral-bot.backend/pkg/redis"
)

// DedupRetention is how long a delivered update id is remembered
const DedupRetention = 24 * time.Hour

var (
	redisSetNX = redis.SetNX
	redisDel   = redis.Del
)

// UpdateDedupMiddleware drops webhook deliveries whose update_id was already
// accepted. Telegram redelivers on timeouts; this only saves the repeated work
// and replies, the ledger stays idempotent on its own. Without redis every
// delivery passes through.
func UpdateDedupMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !redis.Enabled() {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var envelope struct {
			UpdateID *int `json:"update_id"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil || envelope.UpdateID == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := fmt.Sprintf("tg:update:%d", *envelope.UpdateID)
		first, err := redisSetNX(ctx, key, "accepted", DedupRetention)
		if err != nil {
			logger.Warn(ctx, "Update dedup unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !first {
			c.Header("X-Duplicate-Update", "true")
			c.AbortWithStatusJSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}

		c.Next()

		// forget failed deliveries so Telegram's retry is processed
		if c.Writer.Status() < 200 || c.Writer.Status() >= 300 {
			_ = redisDel(ctx, key)
		}
	}
}
