package escalation

import (
	"strings"

	"converso-platform/internal/classifier"
	"converso-platform/internal/lexicon"
)

// Router decides whether a conversation hands off to a human operator.
//
// Check order is part of the contract:
//  1) Explicit human-request phrases in the latest inbound message alone.
//  2) Escalation-trigger lexicons scoped to just the current message.
//  3) Whole-history classification (the caller runs the classifier and
//     passes its output through FromAnalysis).
//
// Steps 1 and 2 short-circuit classification entirely.

type Action string

const ActionTransferToHuman Action = "transfer_to_human"

// Handoff is the router's output. Action is always transfer_to_human.
type Handoff struct {
	Action  Action                      `json:"action"`
	Reason  classifier.EscalationReason `json:"reason"`
	Message string                      `json:"message"`
}

type Router struct {
	set lexicon.Set
}

func NewRouter(set lexicon.Set) *Router {
	return &Router{set: set}
}

// CheckImmediate runs the pre-classification checks against the current
// message only. It returns (handoff, true) when the conversation must hand
// off without classifying.
func (r *Router) CheckImmediate(message string) (Handoff, bool) {
	buf := strings.ToLower(message)

	if lexicon.Matches(buf, r.set.HumanRequest) {
		return r.handoff(classifier.ReasonExplicitRequest), true
	}

	for _, cat := range r.set.Triggers {
		if lexicon.Matches(buf, cat.Phrases) {
			return r.handoff(classifier.ReasonForTrigger(cat.Name)), true
		}
	}

	return Handoff{}, false
}

// FromAnalysis wraps classifier escalation output into a handoff.
func (r *Router) FromAnalysis(a classifier.Analysis) (Handoff, bool) {
	if !a.NeedsEscalation {
		return Handoff{}, false
	}
	return r.handoff(a.EscalationReason), true
}

func (r *Router) handoff(reason classifier.EscalationReason) Handoff {
	return Handoff{
		Action:  ActionTransferToHuman,
		Reason:  reason,
		Message: MessageFor(reason),
	}
}

// MessageFor returns the fixed user-facing message for a reason.
func MessageFor(reason classifier.EscalationReason) string {
	switch reason {
	case classifier.ReasonExplicitRequest:
		return "Entendido, te comunico con uno de nuestros asesores. En un momento te atiende una persona."
	case classifier.ReasonComplaint:
		return "Lamento mucho la mala experiencia. Voy a transferirte con un asesor para resolver tu queja."
	case classifier.ReasonLegalThreat:
		return "Comprendo la seriedad del asunto. Te comunico de inmediato con un responsable."
	case classifier.ReasonCancellationRisk:
		return "Lamento que estés pensando en dejarnos. Te paso con un asesor que puede revisar tu caso."
	case classifier.ReasonBillingDispute:
		return "Entiendo tu inquietud con el cobro. Un asesor revisará tu facturación en un momento."
	case classifier.ReasonFrustratedCustomer:
		return "Lamento la frustración. Te comunico con una persona de nuestro equipo ahora mismo."
	case classifier.ReasonRepeatedFailure:
		return "Para darte una mejor atención, te comunico con uno de nuestros asesores."
	default:
		return "Un momento por favor, te comunico con un asesor."
	}
}
