package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"referral-bot.backend/internal/interfaces/http/handlers"
	"referral-bot.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "referral-bot"
	serviceVersion = "1.0.0"
)

type routeDeps struct {
	healthHandler  *handlers.HealthHandler
	webhookHandler *handlers.WebhookHandler
	webhookPath    string
}

func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	r.GET("/health", d.healthHandler.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// webhook mode only
	if d.webhookHandler != nil {
		r.POST(d.webhookPath, middleware.UpdateDedupMiddleware(), d.webhookHandler.HandleUpdate)
	}
	return r
}
