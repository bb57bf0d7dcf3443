package channel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"converso-platform/internal/agent"
	"converso-platform/internal/booking"
	"converso-platform/internal/calendar"
	"converso-platform/internal/classifier"
	"converso-platform/internal/conversation"
	"converso-platform/internal/escalation"
	"converso-platform/internal/lexicon"
	"converso-platform/internal/quota"
	"converso-platform/internal/usage"

	"github.com/gin-gonic/gin"
)

type channelFixture struct {
	orch      *agent.Orchestrator
	convs     *conversation.MemoryRepo
	usageRepo *usage.MemoryRepo
}

func newChannelFixture(t *testing.T) *channelFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	set := lexicon.Default()
	provider := calendar.NewMemoryProvider()
	flow := booking.NewFlow(calendar.NewResolver(provider), provider, booking.NewMemoryStore())

	quotaRepo := quota.NewMemoryRepo()
	quotaRepo.Subscriptions = []quota.Subscription{{
		ID: "sub-1", WorkspaceID: "ws-1", PlanCode: "pro", RegionCode: "MX", Status: quota.SubscriptionStatusActive,
	}}
	quotaRepo.PlanRegions = []quota.PlanRegion{{
		ID: "pr-1", PlanCode: "pro", RegionCode: "MX", Currency: "MXN",
		IncludedCallMinutes: 1000, IncludedConversations: 1000,
		LimitMode: quota.LimitModeSoft, IsActive: true,
	}}

	usageRepo := usage.NewMemoryRepo()
	convs := conversation.NewMemoryRepo()

	orch := agent.NewOrchestrator(
		set,
		classifier.New(set),
		escalation.NewRouter(set),
		flow,
		quota.NewService(quotaRepo),
		usage.NewService(usageRepo),
		agent.StaticCalendars{"ws-1": {CalendarID: "cal-1"}},
	)
	return &channelFixture{orch: orch, convs: convs, usageRepo: usageRepo}
}

func resolveWS(c *gin.Context, to string) (string, error) {
	if to == "+5215500000000" {
		return "ws-1", nil
	}
	return "", errors.New("unknown number")
}

func waForm(body string) url.Values {
	return url.Values{
		"MessageSid":  {"SM123"},
		"From":        {"+5215512345678"},
		"To":          {"+5215500000000"},
		"Body":        {body},
		"ProfileName": {"Ana"},
	}
}

func postForm(t *testing.T, handler gin.HandlerFunc, form url.Values, sign func(payload []byte) string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/webhooks/whatsapp", handler)

	payload := form.Encode()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sign != nil {
		req.Header.Set(SignatureHeader, sign([]byte(payload)))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestWhatsApp_RepliesAndPersistsMessages(t *testing.T) {
	f := newChannelFixture(t)
	h := WhatsAppWebhookHandler{
		Orchestrator:      f.orch,
		Conversations:     f.convs,
		WorkspaceResolver: resolveWS,
		DefaultLanguage:   "es",
		Now:               func() time.Time { return time.Date(2025, 6, 9, 12, 0, 0, 0, time.UTC) },
	}

	w := postForm(t, h.HandleInbound, waForm("hola buenos días"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "asistente virtual") {
		t.Fatalf("expected greeting reply, got %s", w.Body.String())
	}

	conv, err := f.convs.EnsureOpen(context.Background(), "ws-1", conversation.ChannelWhatsapp, "+5215512345678")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	msgs, err := f.convs.ListMessages(context.Background(), "ws-1", conv.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Direction != conversation.DirectionInbound || msgs[1].Direction != conversation.DirectionOutbound {
		t.Fatalf("expected inbound+outbound persisted, got %+v", msgs)
	}
	if len(f.usageRepo.Events) != 1 {
		t.Fatalf("first message must bill one conversation, got %d", len(f.usageRepo.Events))
	}
}

func TestWhatsApp_SignatureRequired(t *testing.T) {
	f := newChannelFixture(t)
	h := WhatsAppWebhookHandler{
		Orchestrator:      f.orch,
		Conversations:     f.convs,
		WorkspaceResolver: resolveWS,
		SignatureSecret:   "topsecret",
	}

	w := postForm(t, h.HandleInbound, waForm("hola"), nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing signature must 401, got %d", w.Code)
	}

	w = postForm(t, h.HandleInbound, waForm("hola"), func(p []byte) string { return Sign("wrong", p) })
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad signature must 401, got %d", w.Code)
	}

	w = postForm(t, h.HandleInbound, waForm("hola"), func(p []byte) string { return Sign("topsecret", p) })
	if w.Code != http.StatusOK {
		t.Fatalf("valid signature must 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestWhatsApp_UnknownDestination(t *testing.T) {
	f := newChannelFixture(t)
	h := WhatsAppWebhookHandler{
		Orchestrator:      f.orch,
		Conversations:     f.convs,
		WorkspaceResolver: resolveWS,
	}

	form := waForm("hola")
	form.Set("To", "+10000000000")
	if w := postForm(t, h.HandleInbound, form, nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown number must 404, got %d", w.Code)
	}
}

func TestWhatsApp_MissingFields(t *testing.T) {
	f := newChannelFixture(t)
	h := WhatsAppWebhookHandler{
		Orchestrator:      f.orch,
		Conversations:     f.convs,
		WorkspaceResolver: resolveWS,
	}

	form := waForm("")
	if w := postForm(t, h.HandleInbound, form, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("empty body must 400, got %d", w.Code)
	}
}

func TestWhatsApp_EscalationSurfacesInResponse(t *testing.T) {
	f := newChannelFixture(t)
	h := WhatsAppWebhookHandler{
		Orchestrator:      f.orch,
		Conversations:     f.convs,
		WorkspaceResolver: resolveWS,
	}

	w := postForm(t, h.HandleInbound, waForm("quiero hablar con un gerente"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, `"should_escalate":true`) {
		t.Fatalf("expected escalation flag, got %s", body)
	}
	if !strings.Contains(body, "EXPLICIT_REQUEST") {
		t.Fatalf("expected reason, got %s", body)
	}
}

func TestWhatsApp_EscalationMarksConversationHandedOff(t *testing.T) {
	f := newChannelFixture(t)
	h := WhatsAppWebhookHandler{
		Orchestrator:      f.orch,
		Conversations:     f.convs,
		WorkspaceResolver: resolveWS,
	}

	conv, err := f.convs.EnsureOpen(context.Background(), "ws-1", conversation.ChannelWhatsapp, "+5215512345678")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	w := postForm(t, h.HandleInbound, waForm("quiero hablar con un gerente"), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	got, err := f.convs.GetConversation(context.Background(), "ws-1", conv.ID)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if got.Status != conversation.StatusHandedOff {
		t.Fatalf("escalated thread must be handed off, got status %q", got.Status)
	}
}
