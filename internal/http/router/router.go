package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Kushalrock/reposignal-app/internal/events"
	"github.com/Kushalrock/reposignal-app/internal/http/handler/webhook"
)

type RouterConfig struct {
	WebhookSecret string
}

func SetupRoutes(router *gin.Engine, table *events.Table, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	githubHandler := webhook.NewGitHubWebhookHandler(cfg.WebhookSecret, table)
	router.POST("/api/webhooks/github", githubHandler.HandleEvent)
}
