package escalation

import (
	"testing"

	"converso-platform/internal/classifier"
	"converso-platform/internal/lexicon"
)

func TestCheckImmediate_ExplicitHumanRequest(t *testing.T) {
	r := NewRouter(lexicon.Default())

	h, ok := r.CheckImmediate("quiero hablar con un gerente")
	if !ok {
		t.Fatalf("expected immediate handoff")
	}
	if h.Action != ActionTransferToHuman {
		t.Fatalf("expected transfer_to_human, got %q", h.Action)
	}
	if h.Reason != classifier.ReasonExplicitRequest {
		t.Fatalf("expected EXPLICIT_REQUEST, got %q", h.Reason)
	}
	if h.Message == "" {
		t.Fatalf("expected a user-facing message")
	}
}

func TestCheckImmediate_HumanRequestWinsOverTrigger(t *testing.T) {
	r := NewRouter(lexicon.Default())

	// Matches both a human-request phrase and the complaint trigger; the
	// explicit request check runs first.
	h, ok := r.CheckImmediate("quiero hablar con un agente por el mal servicio")
	if !ok {
		t.Fatalf("expected handoff")
	}
	if h.Reason != classifier.ReasonExplicitRequest {
		t.Fatalf("expected EXPLICIT_REQUEST, got %q", h.Reason)
	}
}

func TestCheckImmediate_TriggerScopedToCurrentMessage(t *testing.T) {
	r := NewRouter(lexicon.Default())

	h, ok := r.CheckImmediate("esto es un cobro indebido")
	if !ok {
		t.Fatalf("expected handoff")
	}
	if h.Reason != classifier.ReasonBillingDispute {
		t.Fatalf("expected BILLING_DISPUTE, got %q", h.Reason)
	}
}

func TestCheckImmediate_TriggerDeclarationOrder(t *testing.T) {
	r := NewRouter(lexicon.Default())

	// Matches complaint ("reclamo") and legal_threat ("abogado"); complaint is
	// declared first.
	h, ok := r.CheckImmediate("tengo un reclamo y voy a llamar a mi abogado")
	if !ok {
		t.Fatalf("expected handoff")
	}
	if h.Reason != classifier.ReasonComplaint {
		t.Fatalf("expected COMPLAINT, got %q", h.Reason)
	}
}

func TestCheckImmediate_NoMatchFallsThrough(t *testing.T) {
	r := NewRouter(lexicon.Default())

	if _, ok := r.CheckImmediate("hola, quisiera saber el precio"); ok {
		t.Fatalf("expected fall-through to classification")
	}
}

func TestFromAnalysis(t *testing.T) {
	r := NewRouter(lexicon.Default())

	if _, ok := r.FromAnalysis(classifier.Analysis{}); ok {
		t.Fatalf("expected no handoff without escalation")
	}

	h, ok := r.FromAnalysis(classifier.Analysis{
		NeedsEscalation:  true,
		EscalationReason: classifier.ReasonRepeatedFailure,
	})
	if !ok {
		t.Fatalf("expected handoff")
	}
	if h.Reason != classifier.ReasonRepeatedFailure {
		t.Fatalf("expected REPEATED_FAILURE, got %q", h.Reason)
	}
	if h.Action != ActionTransferToHuman {
		t.Fatalf("expected transfer_to_human")
	}
}

func TestMessageFor_CoversAllReasonsPlusDefault(t *testing.T) {
	reasons := []classifier.EscalationReason{
		classifier.ReasonExplicitRequest,
		classifier.ReasonComplaint,
		classifier.ReasonLegalThreat,
		classifier.ReasonCancellationRisk,
		classifier.ReasonBillingDispute,
		classifier.ReasonFrustratedCustomer,
		classifier.ReasonRepeatedFailure,
	}
	seen := make(map[string]struct{})
	for _, r := range reasons {
		m := MessageFor(r)
		if m == "" {
			t.Fatalf("empty message for %q", r)
		}
		if m == MessageFor("UNKNOWN") {
			t.Fatalf("reason %q fell through to the default message", r)
		}
		seen[m] = struct{}{}
	}
	if len(seen) != len(reasons) {
		t.Fatalf("expected %d distinct messages, got %d", len(reasons), len(seen))
	}
	if MessageFor("UNKNOWN") == "" {
		t.Fatalf("expected a default fallback message")
	}
}
