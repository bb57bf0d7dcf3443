package httpapi

import (
	"net/http"
	"time"

	"converso-platform/internal/agent"
	"converso-platform/internal/auth"
	"converso-platform/internal/booking"
	"converso-platform/internal/contact"
	"converso-platform/internal/conversation"
	"converso-platform/internal/quota"
	"converso-platform/internal/rbac"
	"converso-platform/internal/reporting"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth          *auth.Manager
	Quotas        *quota.Service
	Contacts      *contact.Aggregator
	ContactFacts  contact.FactsSource
	Conversations conversation.Repository
	Orchestrator  *agent.Orchestrator
	Reports       *reporting.Service
}

// --- Auth ---

type loginRequest struct {
	UserID      string `json:"user_id"`
	WorkspaceID string `json:"workspace_id"`
	Role        string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.WorkspaceID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, workspace_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.WorkspaceID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Quota ---

// GetCallMinuteQuota previews whether one more call minute would be allowed.
// It never records usage.
func (h Handlers) GetCallMinuteQuota(c *gin.Context) {
	if h.Quotas == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "quota not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	check, err := h.Quotas.CheckCallMinuteQuota(c.Request.Context(), workspaceID, 1)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "quota check failed"})
		return
	}
	c.JSON(http.StatusOK, check)
}

func (h Handlers) GetWhatsappConversationQuota(c *gin.Context) {
	if h.Quotas == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "quota not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	check, err := h.Quotas.CheckWhatsappConversationQuota(c.Request.Context(), workspaceID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "quota check failed"})
		return
	}
	c.JSON(http.StatusOK, check)
}

// --- Contact analysis ---

// GetContactAnalysis recomputes the contact-level analysis from the contact's
// full conversation history. Nothing is persisted.
func (h Handlers) GetContactAnalysis(c *gin.Context) {
	if h.Contacts == nil || h.Conversations == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "contacts not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	contactID := c.Param("contact_id")
	if contactID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "contact_id required"})
		return
	}

	convs, err := h.Conversations.ListByContact(c.Request.Context(), workspaceID, contactID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
		return
	}
	histories := make([]contact.History, 0, len(convs))
	for _, cv := range convs {
		msgs, err := h.Conversations.ListMessages(c.Request.Context(), workspaceID, cv.ID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "history lookup failed"})
			return
		}
		histories = append(histories, contact.History{Conversation: cv, Messages: msgs})
	}

	facts := contact.Facts{}
	if h.ContactFacts != nil {
		f, err := h.ContactFacts.Facts(c.Request.Context(), workspaceID, contactID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "facts lookup failed"})
			return
		}
		facts = f
	}

	analysis, err := h.Contacts.Aggregate(c.Request.Context(), histories, facts)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "analysis failed"})
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// --- Booking ---

type createBookingRequest struct {
	ConversationID string `json:"conversation_id"`
	SlotIndex      int    `json:"slot_index"`

	ContactID    string `json:"contact_id,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	Language     string `json:"language,omitempty"`
}

// CreateBooking confirms one of the slots previously offered in a conversation.
func (h Handlers) CreateBooking(c *gin.Context) {
	if h.Orchestrator == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "agent not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.ConversationID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "conversation_id required"})
		return
	}
	if req.SlotIndex < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "slot_index must be >= 0"})
		return
	}

	actx := agent.AgentContext{
		WorkspaceID:    workspaceID,
		ConversationID: req.ConversationID,
		ContactID:      req.ContactID,
		ContactName:    req.ContactName,
		ContactPhone:   req.ContactPhone,
		Language:       req.Language,
	}
	out, err := h.Orchestrator.BookAppointment(c.Request.Context(), actx, req.SlotIndex, booking.Attendee{
		Name:      req.ContactName,
		Phone:     req.ContactPhone,
		Email:     req.ContactEmail,
		ContactID: req.ContactID,
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- Reporting ---

func (h Handlers) GetUsageReport(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	rng, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.UsageSummary(c.Request.Context(), reporting.UsageSummaryRequest{WorkspaceID: workspaceID, Range: rng})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) GetConversationsReport(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	workspaceID, err := auth.WorkspaceID(c.Request.Context())
	if err != nil || workspaceID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "workspace_id required"})
		return
	}
	rng, ok := parseRange(c)
	if !ok {
		return
	}
	out, err := h.Reports.ConversationsSummary(c.Request.Context(), reporting.ConversationsSummaryRequest{
		WorkspaceID: workspaceID,
		Range:       rng,
		Channel:     c.Query("channel"),
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// parseRange reads from/to RFC3339 query params; to defaults to now, from to 30 days back.
func parseRange(c *gin.Context) (reporting.TimeRange, bool) {
	now := time.Now().UTC()
	rng := reporting.TimeRange{From: now.AddDate(0, 0, -30), To: now}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return reporting.TimeRange{}, false
		}
		rng.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return reporting.TimeRange{}, false
		}
		rng.To = t
	}
	return rng, true
}

// Convenience middleware bundles.

func RequireWorkspaceAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireWorkspace(), rbac.RequireAnyRole(roles...)}
}
