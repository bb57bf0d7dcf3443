package channel

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"converso-platform/internal/agent"
	"converso-platform/internal/conversation"
	"converso-platform/internal/usage"
	"converso-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// VoiceWebhookHandler turns voice webhook turns (speech transcripts) into
// orchestrator calls and answers with TwiML.
//
// Call minutes are recorded here, on the call-status callback, because only
// the provider knows the final duration.

type VoiceWebhookHandler struct {
	Orchestrator  *agent.Orchestrator
	Conversations conversation.Repository
	Usage         *usage.Service

	WorkspaceResolver WorkspaceResolver

	// SignatureSecret enables HMAC validation of the raw body. Empty
	// disables it (local development only).
	SignatureSecret string

	// GatherAction is the webhook path the provider posts the next speech
	// transcript to.
	GatherAction string

	DefaultLanguage string

	Now func() time.Time
}

type voiceForm struct {
	CallSid      string
	From         string
	To           string
	CallStatus   string
	CallDuration string
	SpeechResult string
}

func (h VoiceWebhookHandler) HandleInbound(c *gin.Context) {
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
			log.Warn("voice webhook signature rejected")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	form := voiceForm{
		CallSid:      values.Get("CallSid"),
		From:         values.Get("From"),
		To:           values.Get("To"),
		CallStatus:   values.Get("CallStatus"),
		CallDuration: values.Get("CallDuration"),
		SpeechResult: values.Get("SpeechResult"),
	}
	if form.From == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing caller"})
		return
	}

	workspaceID, err := h.WorkspaceResolver(c, form.To)
	if err != nil {
		log.Warn("workspace resolution failed", "to", form.To, "err", err)
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown destination"})
		return
	}

	ctx := c.Request.Context()

	if form.CallStatus == "completed" {
		h.recordCallMinutes(c, workspaceID, form)
		c.Status(http.StatusNoContent)
		return
	}

	conv, err := h.Conversations.EnsureOpen(ctx, workspaceID, conversation.ChannelPhone, form.From)
	if err != nil {
		log.Error("conversation lookup failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "conversation failed"})
		return
	}

	// First turn: no transcript yet, just greet and listen.
	if form.SpeechResult == "" {
		h.respondTwiML(c, func() (string, error) {
			return SpeakAndListen(greeting(h.DefaultLanguage), h.DefaultLanguage, h.GatherAction)
		})
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
		ChannelType:    conversation.ChannelPhone,
		ContactID:      conv.ContactID,
		ContactPhone:   form.From,
		ConversationID: conv.ID,
		Language:       h.DefaultLanguage,
	}
	resp, err := h.Orchestrator.ProcessMessage(ctx, actx, form.SpeechResult, history)
	if err != nil {
		log.Error("message processing failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	now := h.Now().UTC()
	h.appendMessage(c, conv, conversation.DirectionInbound, form.SpeechResult, now)
	h.appendMessage(c, conv, conversation.DirectionOutbound, resp.Message, now.Add(time.Millisecond))

	// Handoffs end the automated leg; everything else keeps listening.
	if resp.ShouldEscalate {
		h.markHandedOff(c, conv)
		h.respondTwiML(c, func() (string, error) {
			return SpeakAndHangup(resp.Message, h.DefaultLanguage)
		})
		return
	}
	h.respondTwiML(c, func() (string, error) {
		return SpeakAndListen(resp.Message, h.DefaultLanguage, h.GatherAction)
	})
}

func (h VoiceWebhookHandler) recordCallMinutes(c *gin.Context, workspaceID string, form voiceForm) {
	if h.Usage == nil {
		return
	}
	seconds, err := strconv.Atoi(form.CallDuration)
	if err != nil || seconds <= 0 {
		return
	}
	minutes := int64((seconds + 59) / 60)

	conv, err := h.Conversations.EnsureOpen(c.Request.Context(), workspaceID, conversation.ChannelPhone, form.From)
	if err != nil {
		logger.FromGin(c).Error("conversation lookup failed", "err", err)
		return
	}
	if _, err := h.Usage.RecordCallMinutes(c.Request.Context(), workspaceID, conv.ID, minutes); err != nil {
		logger.FromGin(c).Error("call minute record failed", "err", err)
	}
}

// markHandedOff moves the thread out of the automated pool so reporting and
// operators see the handoff. Best-effort: the reply was already produced.
func (h VoiceWebhookHandler) markHandedOff(c *gin.Context, conv conversation.Conversation) {
	if err := h.Conversations.UpdateStatus(c.Request.Context(), conv.WorkspaceID, conv.ID, conversation.StatusHandedOff); err != nil {
		logger.FromGin(c).Error("handoff status update failed", "err", err)
	}
}

func (h VoiceWebhookHandler) respondTwiML(c *gin.Context, render func() (string, error)) {
	twiml, err := render()
	if err != nil {
		logger.FromGin(c).Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}

func (h VoiceWebhookHandler) appendMessage(c *gin.Context, conv conversation.Conversation, dir conversation.Direction, content string, at time.Time) {
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

func greeting(language string) string {
	if language == "en" {
		return "Hi! You've reached our virtual assistant. How can I help you?"
	}
	return "¡Hola! Te atiende nuestro asistente virtual. ¿En qué puedo ayudarte?"
}
