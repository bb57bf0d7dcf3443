package channel

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"converso-platform/internal/agent"
	"converso-platform/internal/conversation"
	"converso-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// WhatsAppWebhookHandler converts an inbound WhatsApp webhook to an
// orchestrator call and returns the reply as JSON for the sending gateway.
//
// No decision logic here; the orchestrator owns it.
//
// Tenant scoping: workspace_id is resolved from the dialed number by the
// injected resolver, never taken from the payload.

type WorkspaceResolver func(c *gin.Context, toNumber string) (string, error)

type WhatsAppWebhookHandler struct {
	Orchestrator  *agent.Orchestrator
	Conversations conversation.Repository

	WorkspaceResolver WorkspaceResolver

	// SignatureSecret enables HMAC validation of the raw body. Empty
	// disables it (local development only).
	SignatureSecret string

	// Redis plus MaxConcurrent cap simultaneous in-flight webhooks per
	// workspace. Nil Redis disables the cap.
	Redis         *redis.Client
	MaxConcurrent int

	// DefaultLanguage is used until per-contact language detection exists.
	DefaultLanguage string

	Now func() time.Time
}

type whatsappForm struct {
	MessageSid  string
	From        string
	To          string
	Body        string
	ProfileName string
}

func (h WhatsAppWebhookHandler) HandleInbound(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Now == nil {
		h.Now = time.Now
	}
	if h.Orchestrator == nil || h.Conversations == nil || h.WorkspaceResolver == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "channel not configured"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	if h.SignatureSecret != "" {
		sig := c.GetHeader(SignatureHeader)
		if sig == "" || !ValidSignature(h.SignatureSecret, body, sig) {
			log.Warn("whatsapp webhook signature rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	form := whatsappForm{
		MessageSid:  values.Get("MessageSid"),
		From:        values.Get("From"),
		To:          values.Get("To"),
		Body:        values.Get("Body"),
		ProfileName: values.Get("ProfileName"),
	}
	if form.From == "" || form.Body == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing sender or body"})
		return
	}

	workspaceID, err := h.WorkspaceResolver(c, form.To)
	if err != nil {
		log.Warn("workspace resolution failed", "to", form.To, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown destination"})
		return
	}

	ctx := c.Request.Context()

	if h.Redis != nil && h.MaxConcurrent > 0 {
		ok, err := acquireIntakeSlot(ctx, h.Redis, conversation.ChannelWhatsapp, workspaceID, h.MaxConcurrent)
		if err != nil {
			log.Error("concurrency cap check failed", "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "cap check failed"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "workspace busy"})
			return
		}
		defer func() {
			if err := releaseIntakeSlot(ctx, h.Redis, conversation.ChannelWhatsapp, workspaceID); err != nil {
				log.Error("concurrency cap release failed", "err", err)
			}
		}()
	}

	conv, err := h.Conversations.EnsureOpen(ctx, workspaceID, conversation.ChannelWhatsapp, form.From)
	if err != nil {
		log.Error("conversation lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "conversation failed"})
		return
	}
	history, err := h.Conversations.ListMessages(ctx, workspaceID, conv.ID)
	if err != nil {
		log.Error("history load failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history failed"})
		return
	}

	actx := agent.AgentContext{
		WorkspaceID:    workspaceID,
		ChannelType:    conversation.ChannelWhatsapp,
		ContactID:      conv.ContactID,
		ContactPhone:   form.From,
		ContactName:    form.ProfileName,
		ConversationID: conv.ID,
		Language:       h.DefaultLanguage,
	}
	resp, err := h.Orchestrator.ProcessMessage(ctx, actx, form.Body, history)
	if err != nil {
		log.Error("message processing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	now := h.Now().UTC()
	h.appendMessage(c, conv, conversation.DirectionInbound, form.Body, now)
	h.appendMessage(c, conv, conversation.DirectionOutbound, resp.Message, now.Add(time.Millisecond))

	if resp.ShouldEscalate {
		h.markHandedOff(c, conv)
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation_id":   conv.ID,
		"reply":             resp.Message,
		"action":            resp.Action,
		"should_escalate":   resp.ShouldEscalate,
		"escalation_reason": resp.EscalationReason,
	})
}

// markHandedOff moves the thread out of the automated pool so reporting and
// operators see the handoff. Best-effort: the reply was already produced.
func (h WhatsAppWebhookHandler) markHandedOff(c *gin.Context, conv conversation.Conversation) {
	if err := h.Conversations.UpdateStatus(c.Request.Context(), conv.WorkspaceID, conv.ID, conversation.StatusHandedOff); err != nil {
		logger.FromGin(c).Error("handoff status update failed", "err", err)
	}
}

func (h WhatsAppWebhookHandler) appendMessage(c *gin.Context, conv conversation.Conversation, dir conversation.Direction, content string, at time.Time) {
	if content == "" {
		return
	}
	err := h.Conversations.AppendMessage(c.Request.Context(), conversation.Message{
		ID:             uuid.NewString(),
		WorkspaceID:    conv.WorkspaceID,
		ConversationID: conv.ID,
		Direction:      dir,
		Content:        content,
		CreatedAt:      at,
	})
	if err != nil {
		logger.FromGin(c).Error("message append failed", "direction", dir, "err", err)
	}
}
