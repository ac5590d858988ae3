package handlers

import (
	"context"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	domainerrors "referral-bot.backend/internal/domain/errors"
	"referral-bot.backend/internal/interfaces/http/response"
	"referral-bot.backend/pkg/logger"
)

// UpdateProcessor accepts one Telegram update for asynchronous handling
type UpdateProcessor interface {
	Process(ctx context.Context, update tgbotapi.Update) error
}

// WebhookHandler receives Telegram webhook deliveries
type WebhookHandler struct {
	processor UpdateProcessor
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(processor UpdateProcessor) *WebhookHandler {
	return &WebhookHandler{processor: processor}
}

// HandleUpdate hands a Telegram update to the processor
// POST <TELEGRAM_WEBHOOK_PATH>
func (h *WebhookHandler) HandleUpdate(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		response.Error(c, domainerrors.BadRequest("malformed update"))
		return
	}

	if err := h.processor.Process(c.Request.Context(), update); err != nil {
		// non-2xx makes Telegram redeliver later
		logger.Warn(c.Request.Context(), "Update not accepted", zap.Int("update_id", update.UpdateID), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "busy"})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"received": true})
}
