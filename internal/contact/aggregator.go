package contact

import (
	"context"
	"fmt"
	"time"

	"converso-platform/internal/classifier"
	"converso-platform/internal/conversation"

	"golang.org/x/sync/errgroup"
)

// Aggregator folds per-conversation classifier output across a contact's full
// history into a segment, a lead score, and a human-review flag.
//
// Reason asymmetry (intentional, do not unify):
// - Inside one conversation the first-set escalation reason wins.
// - At the contact level the reason from the LAST escalated conversation wins.

type Aggregator struct {
	engine classifier.Engine

	// maxParallel bounds concurrent per-conversation classification.
	maxParallel int
}

func NewAggregator(engine classifier.Engine) *Aggregator {
	return &Aggregator{engine: engine, maxParallel: 4}
}

// Facts are optional existing contact attributes from the CRM.
type Facts struct {
	ClientSince     *time.Time
	DebtAmountMinor int64
	Status          string
}

// StatusLost marks a contact closed as lost in the CRM.
const StatusLost = "lost"

type Segment string

const (
	SegmentNew           Segment = "new"
	SegmentHotLead       Segment = "hot_lead"
	SegmentWarmLead      Segment = "warm_lead"
	SegmentColdLead      Segment = "cold_lead"
	SegmentVIP           Segment = "vip"
	SegmentActiveClient  Segment = "active_client"
	SegmentAtRisk        Segment = "at_risk"
	SegmentSupportNeeded Segment = "support_needed"
	SegmentLost          Segment = "lost"
)

type KanbanStage string

const (
	StageProspect KanbanStage = "prospect"
	StageClient   KanbanStage = "client"
	StageLost     KanbanStage = "lost"
)

// Analysis is the contact-level derived view. Score is clamped to [0,100].
type Analysis struct {
	Labels    []string             `json:"labels"`
	Segment   Segment              `json:"segment"`
	Sentiment classifier.Sentiment `json:"sentiment"`
	Score     int                  `json:"score"`
	Summary   string               `json:"summary"`

	NeedsHumanReview bool                        `json:"needs_human_review"`
	EscalationReason classifier.EscalationReason `json:"escalation_reason,omitempty"`

	SuggestedStage KanbanStage `json:"suggested_stage"`
}

// History is one conversation with its full message list.
type History struct {
	Conversation conversation.Conversation
	Messages     []conversation.Message
}

func (a *Aggregator) Aggregate(ctx context.Context, histories []History, facts Facts) (Analysis, error) {
	analyses := make([]classifier.Analysis, len(histories))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.maxParallel)
	for i := range histories {
		i := i
		g.Go(func() error {
			analyses[i] = a.engine.Classify(histories[i].Messages)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Analysis{}, err
	}

	out := Analysis{}

	seen := make(map[string]struct{})
	for _, ca := range analyses {
		for _, l := range ca.Labels {
			if _, ok := seen[l]; ok {
				continue
			}
			seen[l] = struct{}{}
			out.Labels = append(out.Labels, l)
		}
	}

	avg := averageSentiment(analyses)
	out.Sentiment = bucketSentiment(avg)

	forcedFrustrated := false
	for _, ca := range analyses {
		if ca.NeedsEscalation {
			out.NeedsHumanReview = true
			// Last escalated conversation wins at this level.
			out.EscalationReason = ca.EscalationReason
			if ca.EscalationReason == classifier.ReasonFrustratedCustomer {
				forcedFrustrated = true
			}
		}
	}
	if forcedFrustrated {
		out.Sentiment = classifier.SentimentFrustrated
	}

	out.Segment = segment(out, avg, len(histories), facts)
	out.Score = score(out)
	out.SuggestedStage = suggestStage(out.Segment, out.NeedsHumanReview)
	out.Summary = summarize(out, len(histories))

	return out, nil
}

func sentimentValue(s classifier.Sentiment) int {
	switch s {
	case classifier.SentimentVeryNegative, classifier.SentimentFrustrated:
		return 1
	case classifier.SentimentNegative:
		return 2
	case classifier.SentimentPositive:
		return 4
	case classifier.SentimentVeryPositive:
		return 5
	default:
		return 3
	}
}

func averageSentiment(analyses []classifier.Analysis) float64 {
	if len(analyses) == 0 {
		return 3
	}
	total := 0
	for _, a := range analyses {
		total += sentimentValue(a.Sentiment)
	}
	return float64(total) / float64(len(analyses))
}

func bucketSentiment(avg float64) classifier.Sentiment {
	switch {
	case avg >= 4.5:
		return classifier.SentimentVeryPositive
	case avg >= 3.5:
		return classifier.SentimentPositive
	case avg >= 2.5:
		return classifier.SentimentNeutral
	case avg >= 1.5:
		return classifier.SentimentNegative
	default:
		return classifier.SentimentVeryNegative
	}
}

func hasLabel(labels []string, want string) bool {
	for _, l := range labels {
		if l == want {
			return true
		}
	}
	return false
}

func negativeOrWorse(s classifier.Sentiment) bool {
	switch s {
	case classifier.SentimentNegative, classifier.SentimentVeryNegative, classifier.SentimentFrustrated:
		return true
	default:
		return false
	}
}

// segment applies the priority-ordered segmentation rules; the first match wins.
func segment(a Analysis, avg float64, conversations int, facts Facts) Segment {
	if facts.Status == StatusLost {
		return SegmentLost
	}
	if conversations == 0 {
		return SegmentNew
	}

	interested := hasLabel(a.Labels, "interested")

	if facts.ClientSince != nil {
		if negativeOrWorse(a.Sentiment) {
			return SegmentAtRisk
		}
		if interested || avg >= 4 {
			return SegmentVIP
		}
		return SegmentActiveClient
	}

	urgent := hasLabel(a.Labels, "urgent")
	switch {
	case interested && urgent:
		return SegmentHotLead
	case interested:
		return SegmentWarmLead
	case hasLabel(a.Labels, "price_sensitive"):
		return SegmentColdLead
	case a.NeedsHumanReview:
		return SegmentSupportNeeded
	default:
		return SegmentWarmLead
	}
}

// score starts at 50 and applies every adjustment independently, then clamps.
func score(a Analysis) int {
	s := 50
	if hasLabel(a.Labels, "interested") {
		s += 15
	}
	if hasLabel(a.Labels, "urgent") {
		s += 10
	}
	if hasLabel(a.Labels, "decision_maker") {
		s += 10
	}
	if hasLabel(a.Labels, "referral") {
		s += 5
	}
	if hasLabel(a.Labels, "returning") {
		s += 10
	}
	if hasLabel(a.Labels, "price_sensitive") {
		s -= 5
	}
	if hasLabel(a.Labels, "competitor_mention") {
		s -= 10
	}
	if negativeOrWorse(a.Sentiment) {
		s -= 15
	}
	if a.NeedsHumanReview {
		s -= 10
	}
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

func suggestStage(s Segment, needsReview bool) KanbanStage {
	switch s {
	case SegmentLost:
		return StageLost
	case SegmentVIP, SegmentActiveClient, SegmentAtRisk:
		return StageClient
	case SegmentSupportNeeded:
		if needsReview {
			return StageProspect
		}
		return StageClient
	default:
		return StageProspect
	}
}

func summarize(a Analysis, conversations int) string {
	s := fmt.Sprintf("Contacto en segmento %s con %d conversaciones analizadas. Puntaje: %d.", a.Segment, conversations, a.Score)
	if a.NeedsHumanReview {
		s += " Requiere revisión humana."
	}
	return s
}
