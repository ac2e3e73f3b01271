package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v75/github"
	"github.com/rs/zerolog/log"

	"github.com/camdenv/website/blog/application"
)

const (
	signatureHeader = "X-Hub-Signature-256"
	eventHeader     = "X-GitHub-Event"
)

// WebhookHandler receives push events from the content repository and feeds
// them to the sync orchestrator.
type WebhookHandler struct {
	webhookSecret []byte
	postService   *application.PostService
}

// NewWebhookHandler creates a WebhookHandler. The secret is the shared HMAC
// key configured on the content repository's webhook.
func NewWebhookHandler(secret []byte, postService *application.PostService) *WebhookHandler {
	return &WebhookHandler{
		webhookSecret: secret,
		postService:   postService,
	}
}

func (h *WebhookHandler) RegisterRoutes(r *gin.Engine) {
	r.POST("/webhook/github", h.HandlePush)
}

// HandlePush verifies and applies one push notification. Failures map to:
// 400 for a missing signature or malformed payload, 403 for a signature
// mismatch, and 500 for any sync failure so the sender redelivers the event.
func (h *WebhookHandler) HandlePush(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.String(http.StatusBadRequest, "Failed to read body")
		return
	}

	signature := c.GetHeader(signatureHeader)
	if signature == "" {
		c.String(http.StatusBadRequest, "Missing signature")
		return
	}

	if !VerifySignature(h.webhookSecret, body, signature) {
		c.String(http.StatusForbidden, "Signature mismatch")
		return
	}

	// Deliveries other than push (e.g. the ping sent on webhook creation)
	// are acknowledged and ignored.
	if event := c.GetHeader(eventHeader); event != "" && event != "push" {
		c.Status(http.StatusOK)
		return
	}

	var evt github.PushEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		c.String(http.StatusBadRequest, "Invalid payload")
		return
	}
	if evt.GetRef() == "" {
		c.String(http.StatusBadRequest, "Invalid payload: missing ref")
		return
	}

	if err := h.postService.HandlePushEvent(c.Request.Context(), &evt); err != nil {
		log.Error().Err(err).Str("ref", evt.GetRef()).Msg("Failed to apply push event")
		c.String(http.StatusInternalServerError, "Error handling event")
		return
	}

	c.Status(http.StatusOK)
}
