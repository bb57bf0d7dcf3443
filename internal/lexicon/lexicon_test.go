package lexicon

import (
	"strings"
	"testing"
)

func TestMatchCount_SumsOccurrences(t *testing.T) {
	buf := "el precio es alto, pero el precio incluye soporte"
	if got := MatchCount(buf, []string{"precio", "soporte"}); got != 3 {
		t.Fatalf("expected 3 matches, got %d", got)
	}
	if got := MatchCount(buf, []string{"tarifa"}); got != 0 {
		t.Fatalf("expected 0 matches, got %d", got)
	}
}

func TestMatchCount_IgnoresEmptyPhrases(t *testing.T) {
	if got := MatchCount("hola", []string{"", "hola"}); got != 1 {
		t.Fatalf("expected 1 match, got %d", got)
	}
}

func TestMatches(t *testing.T) {
	if !Matches("quiero hablar con un gerente", Default().HumanRequest) {
		t.Fatalf("expected human-request match")
	}
	if Matches("quiero agendar una cita", Default().HumanRequest) {
		t.Fatalf("unexpected human-request match")
	}
}

func TestDefault_PhrasesAreLowerCase(t *testing.T) {
	set := Default()

	check := func(name string, phrases []string) {
		t.Helper()
		for _, p := range phrases {
			if p != strings.ToLower(p) {
				t.Fatalf("%s phrase %q is not lower-case", name, p)
			}
			if p == "" {
				t.Fatalf("%s contains an empty phrase", name)
			}
		}
	}

	for _, c := range set.Intents {
		check("intent/"+c.Name, c.Phrases)
	}
	for _, c := range set.Sentiments {
		check("sentiment/"+c.Name, c.Phrases)
	}
	for _, c := range set.Labels {
		check("label/"+c.Name, c.Phrases)
	}
	for _, c := range set.Triggers {
		check("trigger/"+c.Name, c.Phrases)
	}
	check("booking_intent", set.BookingIntent)
	check("human_request", set.HumanRequest)
	check("agent_failure", set.AgentFailure)
}

func TestDefault_SentimentPriorityOrder(t *testing.T) {
	set := Default()
	want := []string{"very_positive", "positive", "negative", "very_negative", "frustrated"}
	if len(set.Sentiments) != len(want) {
		t.Fatalf("expected %d sentiment categories, got %d", len(want), len(set.Sentiments))
	}
	for i, c := range set.Sentiments {
		if c.Name != want[i] {
			t.Fatalf("sentiment order mismatch at %d: got %q want %q", i, c.Name, want[i])
		}
	}
}
