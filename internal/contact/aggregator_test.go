package contact

import (
	"context"
	"testing"
	"time"

	"converso-platform/internal/classifier"
	"converso-platform/internal/conversation"
	"converso-platform/internal/lexicon"
)

// stubEngine returns canned analyses keyed by the first message's content.
type stubEngine struct {
	byContent map[string]classifier.Analysis
}

func (s stubEngine) Classify(messages []conversation.Message) classifier.Analysis {
	if len(messages) == 0 {
		return classifier.Analysis{Intent: classifier.IntentGeneralInquiry, Sentiment: classifier.SentimentNeutral, Confidence: 0.5}
	}
	return s.byContent[messages[0].Content]
}

func history(key string) History {
	return History{Messages: []conversation.Message{{Direction: conversation.DirectionInbound, Content: key}}}
}

func TestAggregate_ZeroConversations(t *testing.T) {
	agg := NewAggregator(classifier.New(lexicon.Default()))

	a, err := agg.Aggregate(context.Background(), nil, Facts{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Segment != SegmentNew {
		t.Fatalf("expected new segment, got %q", a.Segment)
	}
	if a.Sentiment != classifier.SentimentNeutral {
		t.Fatalf("zero conversations default to neutral, got %q", a.Sentiment)
	}
	if a.NeedsHumanReview {
		t.Fatalf("expected no human review")
	}
	if a.Score != 50 {
		t.Fatalf("expected base score 50, got %d", a.Score)
	}
	if a.SuggestedStage != StageProspect {
		t.Fatalf("expected prospect stage, got %q", a.SuggestedStage)
	}
}

func TestAggregate_SentimentAverageAndBuckets(t *testing.T) {
	eng := stubEngine{byContent: map[string]classifier.Analysis{
		"a": {Sentiment: classifier.SentimentVeryPositive},
		"b": {Sentiment: classifier.SentimentPositive},
		"c": {Sentiment: classifier.SentimentNeutral},
	}}
	agg := NewAggregator(eng)

	// (5+4+3)/3 = 4.0 -> positive bucket.
	a, err := agg.Aggregate(context.Background(), []History{history("a"), history("b"), history("c")}, Facts{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Sentiment != classifier.SentimentPositive {
		t.Fatalf("expected positive, got %q", a.Sentiment)
	}
}

func TestAggregate_FrustratedReasonForcesSentiment(t *testing.T) {
	eng := stubEngine{byContent: map[string]classifier.Analysis{
		"good": {Sentiment: classifier.SentimentVeryPositive},
		"bad": {
			Sentiment:        classifier.SentimentFrustrated,
			NeedsEscalation:  true,
			EscalationReason: classifier.ReasonFrustratedCustomer,
		},
	}}
	agg := NewAggregator(eng)

	// Numeric average (5+5+1)/3 = 3.67 would bucket to positive, but a
	// FRUSTRATED_CUSTOMER escalation forces the contact sentiment.
	a, err := agg.Aggregate(context.Background(), []History{history("good"), history("good"), history("bad")}, Facts{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Sentiment != classifier.SentimentFrustrated {
		t.Fatalf("expected forced frustrated, got %q", a.Sentiment)
	}
	if !a.NeedsHumanReview {
		t.Fatalf("expected human review")
	}
}

func TestAggregate_LastEscalationReasonWins(t *testing.T) {
	eng := stubEngine{byContent: map[string]classifier.Analysis{
		"first":  {NeedsEscalation: true, EscalationReason: classifier.ReasonComplaint, Sentiment: classifier.SentimentNeutral},
		"second": {NeedsEscalation: true, EscalationReason: classifier.ReasonBillingDispute, Sentiment: classifier.SentimentNeutral},
		"calm":   {Sentiment: classifier.SentimentNeutral},
	}}
	agg := NewAggregator(eng)

	a, err := agg.Aggregate(context.Background(), []History{history("first"), history("second"), history("calm")}, Facts{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.EscalationReason != classifier.ReasonBillingDispute {
		t.Fatalf("expected last escalated reason BILLING_DISPUTE, got %q", a.EscalationReason)
	}
}

func TestAggregate_Segmentation(t *testing.T) {
	since := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name     string
		analysis classifier.Analysis
		facts    Facts
		want     Segment
	}{
		{
			name:     "client with negative sentiment is at risk",
			analysis: classifier.Analysis{Sentiment: classifier.SentimentNegative},
			facts:    Facts{ClientSince: &since},
			want:     SegmentAtRisk,
		},
		{
			name:     "client with interested label is vip",
			analysis: classifier.Analysis{Sentiment: classifier.SentimentNeutral, Labels: []string{"interested"}},
			facts:    Facts{ClientSince: &since},
			want:     SegmentVIP,
		},
		{
			name:     "client otherwise active",
			analysis: classifier.Analysis{Sentiment: classifier.SentimentNeutral},
			facts:    Facts{ClientSince: &since},
			want:     SegmentActiveClient,
		},
		{
			name:     "interested and urgent lead is hot",
			analysis: classifier.Analysis{Sentiment: classifier.SentimentNeutral, Labels: []string{"interested", "urgent"}},
			want:     SegmentHotLead,
		},
		{
			name:     "interested only is warm",
			analysis: classifier.Analysis{Sentiment: classifier.SentimentNeutral, Labels: []string{"interested"}},
			want:     SegmentWarmLead,
		},
		{
			name:     "price sensitive without interest is cold",
			analysis: classifier.Analysis{Sentiment: classifier.SentimentNeutral, Labels: []string{"price_sensitive"}},
			want:     SegmentColdLead,
		},
		{
			name:     "escalated lead needs support",
			analysis: classifier.Analysis{Sentiment: classifier.SentimentNeutral, NeedsEscalation: true, EscalationReason: classifier.ReasonComplaint},
			want:     SegmentSupportNeeded,
		},
		{
			name:     "default lead is warm",
			analysis: classifier.Analysis{Sentiment: classifier.SentimentNeutral},
			want:     SegmentWarmLead,
		},
		{
			name:     "lost status wins over everything",
			analysis: classifier.Analysis{Sentiment: classifier.SentimentVeryPositive, Labels: []string{"interested", "urgent"}},
			facts:    Facts{Status: StatusLost, ClientSince: &since},
			want:     SegmentLost,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eng := stubEngine{byContent: map[string]classifier.Analysis{"m": tc.analysis}}
			agg := NewAggregator(eng)
			a, err := agg.Aggregate(context.Background(), []History{history("m")}, tc.facts)
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if a.Segment != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, a.Segment)
			}
		})
	}
}

func TestAggregate_ScoreClampedWithAllLabels(t *testing.T) {
	all := []string{"interested", "urgent", "decision_maker", "referral", "returning", "price_sensitive", "competitor_mention"}

	// All positive and negative adjustments at once: 50+15+10+10+5+10-5-10 = 85.
	eng := stubEngine{byContent: map[string]classifier.Analysis{
		"m": {Labels: all, Sentiment: classifier.SentimentNeutral},
	}}
	a, err := NewAggregator(eng).Aggregate(context.Background(), []History{history("m")}, Facts{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Score != 85 {
		t.Fatalf("expected 85, got %d", a.Score)
	}
	if a.Score < 0 || a.Score > 100 {
		t.Fatalf("score out of range: %d", a.Score)
	}

	// Stack every positive label across many conversations; still <= 100.
	positive := []string{"interested", "urgent", "decision_maker", "referral", "returning"}
	eng = stubEngine{byContent: map[string]classifier.Analysis{
		"m": {Labels: positive, Sentiment: classifier.SentimentVeryPositive},
	}}
	a, err = NewAggregator(eng).Aggregate(context.Background(), []History{history("m"), history("m")}, Facts{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Score != 100 {
		t.Fatalf("expected clamp at 100, got %d", a.Score)
	}

	// Everything bad at once; still >= 0.
	eng = stubEngine{byContent: map[string]classifier.Analysis{
		"m": {
			Labels:           []string{"price_sensitive", "competitor_mention"},
			Sentiment:        classifier.SentimentFrustrated,
			NeedsEscalation:  true,
			EscalationReason: classifier.ReasonFrustratedCustomer,
		},
	}}
	a, err = NewAggregator(eng).Aggregate(context.Background(), []History{history("m")}, Facts{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if a.Score < 0 {
		t.Fatalf("score below zero: %d", a.Score)
	}
	if a.Score != 10 {
		// 50 -5 -10 -15 -10 = 10
		t.Fatalf("expected 10, got %d", a.Score)
	}
}

func TestAggregate_KanbanSuggestion(t *testing.T) {
	if got := suggestStage(SegmentSupportNeeded, true); got != StageProspect {
		t.Fatalf("support_needed with review should be prospect, got %q", got)
	}
	if got := suggestStage(SegmentSupportNeeded, false); got != StageClient {
		t.Fatalf("support_needed without review should be client, got %q", got)
	}
	if got := suggestStage(SegmentVIP, false); got != StageClient {
		t.Fatalf("vip should be client, got %q", got)
	}
	if got := suggestStage(SegmentLost, false); got != StageLost {
		t.Fatalf("lost should be lost, got %q", got)
	}
	if got := suggestStage(SegmentHotLead, false); got != StageProspect {
		t.Fatalf("hot_lead should be prospect, got %q", got)
	}
}
