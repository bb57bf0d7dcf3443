package classifier

import (
	"fmt"
	"strings"

	"converso-platform/internal/conversation"
	"converso-platform/internal/lexicon"
)

// Classifier turns a message history into a ConversationAnalysis using
// lexicon-based rules.
//
// Contract: text/history in, Analysis out. The rule internals are
// encapsulated behind Classify so a statistical implementation can replace
// this one without touching any caller (see Engine).
//
// The function is total: any message list, including empty, yields a valid
// Analysis (general_inquiry / neutral / no escalation).

// Engine is the classification contract consumed by the router and the
// contact aggregator.
type Engine interface {
	Classify(messages []conversation.Message) Analysis
}

type Classifier struct {
	set lexicon.Set
}

func New(set lexicon.Set) *Classifier {
	return &Classifier{set: set}
}

// Analysis is derived per call and never mutated after being returned.
type Analysis struct {
	Labels    []string  `json:"labels"`
	Intent    Intent    `json:"intent"`
	Topic     string    `json:"topic"`
	Summary   string    `json:"summary"`
	Sentiment Sentiment `json:"sentiment"`

	NeedsEscalation  bool             `json:"needs_escalation"`
	EscalationReason EscalationReason `json:"escalation_reason,omitempty"`

	// Confidence rises with the winning intent's match count, in [0.5, 0.95].
	Confidence float64 `json:"confidence"`
}

func (a Analysis) HasLabel(label string) bool {
	for _, l := range a.Labels {
		if l == label {
			return true
		}
	}
	return false
}

type Intent string

const (
	IntentGreeting         Intent = "greeting"
	IntentAskPrice         Intent = "ask_price"
	IntentProductInfo      Intent = "product_info"
	IntentBookAppointment  Intent = "book_appointment"
	IntentPurchase         Intent = "purchase_intent"
	IntentComplaint        Intent = "complaint"
	IntentTechnicalSupport Intent = "technical_support"
	IntentCancellation     Intent = "cancellation"
	IntentFarewell         Intent = "farewell"
	IntentGeneralInquiry   Intent = "general_inquiry"
)

type Sentiment string

const (
	SentimentVeryPositive Sentiment = "very_positive"
	SentimentPositive     Sentiment = "positive"
	SentimentNeutral      Sentiment = "neutral"
	SentimentNegative     Sentiment = "negative"
	SentimentVeryNegative Sentiment = "very_negative"
	SentimentFrustrated   Sentiment = "frustrated"
)

type EscalationReason string

const (
	ReasonNone               EscalationReason = ""
	ReasonExplicitRequest    EscalationReason = "EXPLICIT_REQUEST"
	ReasonComplaint          EscalationReason = "COMPLAINT"
	ReasonLegalThreat        EscalationReason = "LEGAL_THREAT"
	ReasonCancellationRisk   EscalationReason = "CANCELLATION_RISK"
	ReasonBillingDispute     EscalationReason = "BILLING_DISPUTE"
	ReasonFrustratedCustomer EscalationReason = "FRUSTRATED_CUSTOMER"
	ReasonRepeatedFailure    EscalationReason = "REPEATED_FAILURE"
)

// ReasonForTrigger maps a trigger category name to its escalation reason.
func ReasonForTrigger(category string) EscalationReason {
	switch category {
	case "complaint":
		return ReasonComplaint
	case "legal_threat":
		return ReasonLegalThreat
	case "cancellation_risk":
		return ReasonCancellationRisk
	case "billing_dispute":
		return ReasonBillingDispute
	default:
		return ReasonNone
	}
}

const (
	baseConfidence = 0.5
	confidenceStep = 0.15
	maxConfidence  = 0.95
)

func (c *Classifier) Classify(messages []conversation.Message) Analysis {
	inbound, outbound, inboundCount := buffers(messages)

	intent, matchCount := c.resolveIntent(inbound)
	labels := c.resolveLabels(inbound)
	sentiment := c.resolveSentiment(inbound)

	a := Analysis{
		Labels:     labels,
		Intent:     intent,
		Topic:      topicFor(intent),
		Sentiment:  sentiment,
		Confidence: confidence(matchCount),
	}

	// Escalation rules only ever fill an empty reason slot; once set, a
	// reason is never overwritten by a later rule.
	for _, cat := range c.set.Triggers {
		if lexicon.Matches(inbound, cat.Phrases) {
			a.NeedsEscalation = true
			a.EscalationReason = ReasonForTrigger(cat.Name)
			break
		}
	}
	if sentiment == SentimentFrustrated || sentiment == SentimentVeryNegative {
		a.NeedsEscalation = true
		if a.EscalationReason == ReasonNone {
			a.EscalationReason = ReasonFrustratedCustomer
		}
	}
	if lexicon.Matches(outbound, c.set.AgentFailure) {
		a.NeedsEscalation = true
		if a.EscalationReason == ReasonNone {
			a.EscalationReason = ReasonRepeatedFailure
		}
	}

	a.Summary = summarize(a, inboundCount)
	return a
}

// buffers concatenates inbound and outbound message bodies, lower-cased.
func buffers(messages []conversation.Message) (inbound, outbound string, inboundCount int) {
	var in, out strings.Builder
	for _, m := range messages {
		switch m.Direction {
		case conversation.DirectionInbound:
			in.WriteString(strings.ToLower(m.Content))
			in.WriteByte(' ')
			inboundCount++
		case conversation.DirectionOutbound:
			out.WriteString(strings.ToLower(m.Content))
			out.WriteByte(' ')
		}
	}
	return in.String(), out.String(), inboundCount
}

// resolveIntent selects the intent category with the strict maximum match
// count; ties keep the first-declared category.
func (c *Classifier) resolveIntent(inbound string) (Intent, int) {
	best := IntentGeneralInquiry
	bestCount := 0
	for _, cat := range c.set.Intents {
		n := lexicon.MatchCount(inbound, cat.Phrases)
		if n > bestCount {
			best = Intent(cat.Name)
			bestCount = n
		}
	}
	return best, bestCount
}

func (c *Classifier) resolveLabels(inbound string) []string {
	var labels []string
	for _, cat := range c.set.Labels {
		if lexicon.Matches(inbound, cat.Phrases) {
			labels = append(labels, cat.Name)
		}
	}
	return labels
}

// resolveSentiment iterates categories in fixed priority order; the first
// category with a match wins. No match means neutral.
func (c *Classifier) resolveSentiment(inbound string) Sentiment {
	for _, cat := range c.set.Sentiments {
		if lexicon.Matches(inbound, cat.Phrases) {
			return Sentiment(cat.Name)
		}
	}
	return SentimentNeutral
}

func confidence(matchCount int) float64 {
	if matchCount <= 0 {
		return baseConfidence
	}
	v := baseConfidence + confidenceStep*float64(matchCount)
	if v > maxConfidence {
		return maxConfidence
	}
	return v
}

func topicFor(intent Intent) string {
	switch intent {
	case IntentGreeting:
		return "Saludo"
	case IntentAskPrice:
		return "Consulta de precios"
	case IntentProductInfo:
		return "Información de producto"
	case IntentBookAppointment:
		return "Agendamiento de cita"
	case IntentPurchase:
		return "Intención de compra"
	case IntentComplaint:
		return "Queja"
	case IntentTechnicalSupport:
		return "Soporte técnico"
	case IntentCancellation:
		return "Cancelación"
	case IntentFarewell:
		return "Despedida"
	default:
		return "Consulta general"
	}
}

func describe(intent Intent) string {
	switch intent {
	case IntentGreeting:
		return "El cliente inicia la conversación"
	case IntentAskPrice:
		return "El cliente pregunta por precios"
	case IntentProductInfo:
		return "El cliente pide información del producto"
	case IntentBookAppointment:
		return "El cliente quiere agendar una cita"
	case IntentPurchase:
		return "El cliente muestra intención de compra"
	case IntentComplaint:
		return "El cliente presenta una queja"
	case IntentTechnicalSupport:
		return "El cliente necesita soporte técnico"
	case IntentCancellation:
		return "El cliente quiere cancelar"
	case IntentFarewell:
		return "El cliente se despide"
	default:
		return "Consulta general del cliente"
	}
}

func summarize(a Analysis, inboundCount int) string {
	var b strings.Builder
	b.WriteString(describe(a.Intent))
	if a.HasLabel("urgent") {
		b.WriteString(" (urgente)")
	}
	b.WriteString(".")
	if a.NeedsEscalation {
		b.WriteString(" Requiere atención humana.")
	}
	b.WriteString(fmt.Sprintf(" Mensajes del cliente: %d.", inboundCount))
	return b.String()
}
