package agent

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"converso-platform/internal/audit"
	"converso-platform/internal/booking"
	"converso-platform/internal/calendar"
	"converso-platform/internal/classifier"
	"converso-platform/internal/conversation"
	"converso-platform/internal/escalation"
	"converso-platform/internal/lexicon"
	"converso-platform/internal/quota"
	"converso-platform/internal/usage"
	"converso-platform/pkg/logger"
)

// Orchestrator is the decision engine's entry point. One inbound message in,
// one structured response out.
//
// Sequencing per message, each step short-circuiting:
//  1. Immediate escalation checks on the current message alone (no quota
//     check, no classification).
//  2. Quota gate for the channel's metered unit. A hard denial never reaches
//     the classifier.
//  3. Booking flow: booking-intent phrases start (or restart) a slot offer;
//     a bare number answers a pending offer.
//  4. Full classification over history+message and a template reply.
type Orchestrator struct {
	set    lexicon.Set
	engine classifier.Engine
	router *escalation.Router
	flow   *booking.Flow

	quotas    *quota.Service
	usages    *usage.Service
	calendars CalendarDirectory

	// generator, when set, replaces the template reply on the
	// no-escalation path. Template text is the fallback on any error.
	generator TextGenerator

	// audits, when set, records escalations, quota denials and confirmed
	// bookings. Audit failures never block a reply.
	audits *audit.Service
}

// CalendarDirectory resolves a workspace's calendar connection.
type CalendarDirectory interface {
	Connection(ctx context.Context, workspaceID string) (calendar.Connection, error)
}

// StaticCalendars is a fixed workspace -> connection map.
type StaticCalendars map[string]calendar.Connection

func (s StaticCalendars) Connection(_ context.Context, workspaceID string) (calendar.Connection, error) {
	conn, ok := s[workspaceID]
	if !ok {
		return calendar.Connection{}, fmt.Errorf("agent: no calendar connection for workspace %s", workspaceID)
	}
	return conn, nil
}

// TextGenerator is the pluggable LLM seam. It only has to return plain text
// for a system prompt plus history.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt string, history []conversation.Message) (string, error)
}

var ErrInvalidContext = errors.New("agent: workspace and conversation are required")

func NewOrchestrator(
	set lexicon.Set,
	engine classifier.Engine,
	router *escalation.Router,
	flow *booking.Flow,
	quotas *quota.Service,
	usages *usage.Service,
	calendars CalendarDirectory,
) *Orchestrator {
	return &Orchestrator{
		set:       set,
		engine:    engine,
		router:    router,
		flow:      flow,
		quotas:    quotas,
		usages:    usages,
		calendars: calendars,
	}
}

// WithGenerator installs the optional text generator.
func (o *Orchestrator) WithGenerator(g TextGenerator) *Orchestrator {
	o.generator = g
	return o
}

// WithAudit installs the optional audit trail.
func (o *Orchestrator) WithAudit(a *audit.Service) *Orchestrator {
	o.audits = a
	return o
}

// ProcessMessage handles one inbound message against its history.
func (o *Orchestrator) ProcessMessage(ctx context.Context, actx AgentContext, message string, history []conversation.Message) (AgentResponse, error) {
	if actx.WorkspaceID == "" || actx.ConversationID == "" {
		return AgentResponse{}, ErrInvalidContext
	}
	log := logger.From(ctx).With(
		"workspace_id", actx.WorkspaceID,
		"conversation_id", actx.ConversationID,
		"channel", actx.ChannelType,
	)

	// 1) Immediate handoff: explicit request or trigger phrase in this
	// message. Classification is skipped entirely.
	if h, ok := o.router.CheckImmediate(message); ok {
		log.Info("immediate escalation", "reason", h.Reason)
		o.auditEscalation(ctx, actx, string(h.Reason))
		return AgentResponse{
			Message:          h.Message,
			Action:           ActionTransferToHuman,
			ShouldEscalate:   true,
			EscalationReason: h.Reason,
		}, nil
	}

	// 2) Quota gate. Denials are values, not errors; the caller gets a
	// speakable denial message.
	check, err := o.checkQuota(ctx, actx)
	if err != nil {
		return AgentResponse{}, err
	}
	if !check.Allowed {
		log.Warn("quota denied", "warning", check.Warning, "percent_used", check.Usage.PercentUsed)
		if o.audits != nil {
			if err := o.audits.LogQuotaDenied(ctx, actx.WorkspaceID, actx.ConversationID, check.Warning); err != nil {
				log.Error("audit append failed", "error", err)
			}
		}
		return AgentResponse{
			Message:        msgQuotaDenied(actx.Language),
			ShouldEscalate: true,
		}, nil
	}
	if check.Warning != "" {
		log.Warn("quota warning", "warning", check.Warning, "percent_used", check.Usage.PercentUsed)
	}
	if err := o.recordUsage(ctx, actx, history); err != nil {
		// Recording must not block the reply; the grant already happened.
		log.Error("usage record failed", "error", err)
	}

	lower := strings.ToLower(message)

	// 3a) Booking intent starts a fresh slot offer, replacing any stale one.
	if lexicon.Matches(lower, o.set.BookingIntent) {
		return o.startBooking(ctx, actx)
	}

	// 3b) A bare number answers a pending slot offer.
	if idx, ok := numericSelection(message); ok {
		if pending, err := o.flow.Pending(ctx, actx.WorkspaceID, actx.ConversationID); err != nil {
			return AgentResponse{}, err
		} else if pending {
			out, err := o.BookAppointment(ctx, actx, idx, booking.Attendee{
				Name:      actx.ContactName,
				Phone:     actx.ContactPhone,
				ContactID: actx.ContactID,
			})
			if err != nil {
				return AgentResponse{}, err
			}
			return AgentResponse{
				Message:        out.Message,
				Action:         ActionBookAppointment,
				ShouldEscalate: out.ShouldEscalate,
				BookingData: &booking.Result{
					State:          bookingState(out),
					Message:        out.Message,
					EventID:        out.EventID,
					ShouldEscalate: out.ShouldEscalate,
				},
			}, nil
		}
	}

	// 4) Full classification over the whole history plus this message.
	analysis := o.engine.Classify(append(append([]conversation.Message{}, history...), conversation.Message{
		Direction: conversation.DirectionInbound,
		Content:   message,
	}))

	if h, ok := o.router.FromAnalysis(analysis); ok {
		log.Info("classified escalation", "reason", h.Reason, "intent", analysis.Intent)
		o.auditEscalation(ctx, actx, string(h.Reason))
		return AgentResponse{
			Message:          h.Message,
			Action:           ActionTransferToHuman,
			Analysis:         &analysis,
			ShouldEscalate:   true,
			EscalationReason: h.Reason,
		}, nil
	}

	reply := templateReply(actx.Language, analysis.Intent)
	if o.generator != nil {
		if text, err := o.generator.Generate(ctx, systemPrompt(actx, analysis), history); err == nil && text != "" {
			reply = text
		} else if err != nil {
			log.Warn("text generator failed, using template", "error", err)
		}
	}

	return AgentResponse{
		Message:  reply,
		Analysis: &analysis,
	}, nil
}

// BookAppointment commits a slot selection for the conversation's pending
// offer. slotIndex is 0-based.
func (o *Orchestrator) BookAppointment(ctx context.Context, actx AgentContext, slotIndex int, attendee booking.Attendee) (BookingOutcome, error) {
	if actx.WorkspaceID == "" || actx.ConversationID == "" {
		return BookingOutcome{}, ErrInvalidContext
	}
	conn, err := o.calendars.Connection(ctx, actx.WorkspaceID)
	if err != nil {
		return BookingOutcome{}, err
	}

	res, err := o.flow.Book(ctx, actx.WorkspaceID, actx.ConversationID, conn, slotIndex, attendee)
	if err != nil {
		if errors.Is(err, booking.ErrNoActiveFlow) {
			return BookingOutcome{Message: msgNoPendingOffer(actx.Language)}, nil
		}
		return BookingOutcome{}, err
	}
	if res.State == booking.StateConfirmed && o.audits != nil {
		if err := o.audits.LogBooking(ctx, actx.WorkspaceID, actx.ConversationID, actx.ContactID, res.EventID); err != nil {
			logger.From(ctx).Error("audit append failed", "error", err)
		}
	}
	return BookingOutcome{
		Success:        res.State == booking.StateConfirmed,
		Message:        res.Message,
		EventID:        res.EventID,
		ShouldEscalate: res.ShouldEscalate,
	}, nil
}

func (o *Orchestrator) auditEscalation(ctx context.Context, actx AgentContext, reason string) {
	if o.audits == nil {
		return
	}
	if err := o.audits.LogEscalation(ctx, actx.WorkspaceID, actx.ConversationID, actx.ContactID, reason); err != nil {
		logger.From(ctx).Error("audit append failed", "error", err)
	}
}

func (o *Orchestrator) startBooking(ctx context.Context, actx AgentContext) (AgentResponse, error) {
	conn, err := o.calendars.Connection(ctx, actx.WorkspaceID)
	if err != nil {
		return AgentResponse{}, err
	}
	res, err := o.flow.Start(ctx, actx.WorkspaceID, actx.ConversationID, conn, actx.Language)
	if err != nil {
		return AgentResponse{}, err
	}
	return AgentResponse{
		Message:        res.Message,
		Action:         ActionBookAppointment,
		BookingData:    &res,
		ShouldEscalate: res.ShouldEscalate,
	}, nil
}

func (o *Orchestrator) checkQuota(ctx context.Context, actx AgentContext) (quota.Check, error) {
	if actx.ChannelType == conversation.ChannelPhone {
		return o.quotas.CheckCallMinuteQuota(ctx, actx.WorkspaceID, 1)
	}
	return o.quotas.CheckWhatsappConversationQuota(ctx, actx.WorkspaceID)
}

// recordUsage appends the metered unit the quota check granted. A whatsapp
// conversation bills once, on its first inbound message; call minutes are
// recorded by the voice adapter at call end, where the duration is known.
func (o *Orchestrator) recordUsage(ctx context.Context, actx AgentContext, history []conversation.Message) error {
	if actx.ChannelType == conversation.ChannelPhone {
		return nil
	}
	if len(history) > 0 {
		return nil
	}
	_, err := o.usages.RecordWhatsappConversation(ctx, actx.WorkspaceID, actx.ConversationID)
	return err
}

// numericSelection parses a bare 1-based slot number ("2", "2.") into a
// 0-based index.
func numericSelection(message string) (int, bool) {
	s := strings.TrimSpace(message)
	s = strings.TrimSuffix(s, ".")
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

func bookingState(out BookingOutcome) booking.State {
	switch {
	case out.Success:
		return booking.StateConfirmed
	case out.ShouldEscalate:
		return booking.StateFailed
	default:
		return booking.StateSlotsOffered
	}
}

func systemPrompt(actx AgentContext, a classifier.Analysis) string {
	return fmt.Sprintf(
		"Eres un asistente virtual de atención a clientes. Intent: %s. Sentimiento: %s. Responde breve y cordial en el idioma del cliente (%s).",
		a.Intent, a.Sentiment, languageOr(actx.Language),
	)
}

func languageOr(language string) string {
	if language == "" {
		return "es"
	}
	return language
}

func templateReply(language string, intent classifier.Intent) string {
	if language == "en" {
		switch intent {
		case classifier.IntentGreeting:
			return "Hi! I'm the virtual assistant. How can I help you today?"
		case classifier.IntentAskPrice:
			return "Happy to share pricing information. Which product or service are you interested in?"
		case classifier.IntentProductInfo:
			return "Of course, let me tell you more about our products. Which one are you interested in?"
		case classifier.IntentBookAppointment:
			return "I can book an appointment for you. Let me check the available times."
		case classifier.IntentPurchase:
			return "Great! I'll help you with your purchase. Which product would you like?"
		case classifier.IntentComplaint:
			return "I'm very sorry about that. Could you tell me more so we can fix it?"
		case classifier.IntentTechnicalSupport:
			return "I understand, let's take a look. Could you describe the problem in more detail?"
		case classifier.IntentCancellation:
			return "I'm sorry you want to cancel. May I ask the reason?"
		case classifier.IntentFarewell:
			return "Thanks for reaching out! Have a great day."
		default:
			return "Thanks for your message. Could you give me a bit more detail so I can help you better?"
		}
	}
	switch intent {
	case classifier.IntentGreeting:
		return "¡Hola! Soy el asistente virtual. ¿En qué puedo ayudarte hoy?"
	case classifier.IntentAskPrice:
		return "Con gusto te comparto información de precios. ¿Qué producto o servicio te interesa?"
	case classifier.IntentProductInfo:
		return "Claro, te cuento más sobre nuestros productos. ¿Cuál te interesa en particular?"
	case classifier.IntentBookAppointment:
		return "Puedo agendarte una cita. Déjame revisar los horarios disponibles."
	case classifier.IntentPurchase:
		return "¡Excelente! Te ayudo con tu compra. ¿Qué producto deseas adquirir?"
	case classifier.IntentComplaint:
		return "Lamento mucho lo ocurrido. ¿Puedes contarme más para poder resolverlo?"
	case classifier.IntentTechnicalSupport:
		return "Entiendo, vamos a revisarlo. ¿Puedes describirme el problema con más detalle?"
	case classifier.IntentCancellation:
		return "Lamento que quieras cancelar. ¿Puedo preguntarte el motivo?"
	case classifier.IntentFarewell:
		return "¡Gracias por escribirnos! Que tengas un excelente día."
	default:
		return "Gracias por tu mensaje. ¿Podrías darme un poco más de detalle para ayudarte mejor?"
	}
}

func msgQuotaDenied(language string) string {
	if language == "en" {
		return "Our automated assistant is not available right now. An advisor will get back to you as soon as possible."
	}
	return "Nuestro asistente automático no está disponible en este momento. Un asesor te responderá a la brevedad."
}

func msgNoPendingOffer(language string) string {
	if language == "en" {
		return "I don't have a slot list open for you. Tell me if you'd like to book an appointment and I'll check availability."
	}
	return "No tengo una lista de horarios abierta. Dime si quieres agendar una cita y reviso la disponibilidad."
}
