package webhook

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v57/github"

	"github.com/Kushalrock/reposignal-app/internal/events"
)

// GitHubWebhookHandler authenticates inbound deliveries and hands them to
// the event table. Handler failures are a 500 to the platform (which
// redelivers) but never anything user-visible.
type GitHubWebhookHandler struct {
	secret []byte
	table  *events.Table
}

func NewGitHubWebhookHandler(secret string, table *events.Table) *GitHubWebhookHandler {
	return &GitHubWebhookHandler{
		secret: []byte(secret),
		table:  table,
	}
}

func (h *GitHubWebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := github.ValidatePayload(c.Request, h.secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}

	eventType := github.WebHookType(c.Request)
	deliveryID := github.DeliveryID(c.Request)

	if err := h.table.Dispatch(ctx, eventType, deliveryID, body); err != nil {
		slog.ErrorContext(ctx, "failed to process event",
			"error", err,
			"event_type", eventType,
			"delivery_id", deliveryID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
