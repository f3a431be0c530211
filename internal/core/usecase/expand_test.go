package usecase

import (
	"strings"
	"testing"
)

var testExpansions = []ExpansionRule{
	{
		Match:  []string{"controls scheduling", "scheduling", "scheduled"},
		Append: "plugin.xml DOTS task scheduler run every 30 seconds",
	},
	{
		Match:  []string{"plugin.xml"},
		Append: "DOTS config registers task Monitor run every 30 seconds",
	},
}

func TestExpandQuestionAppendsBoostTerms(t *testing.T) {
	got := expandQuestion("what controls scheduling", testExpansions)
	want := "what controls scheduling plugin.xml DOTS task scheduler run every 30 seconds"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExpandQuestionLastMatchingRuleWins(t *testing.T) {
	got := expandQuestion("is scheduling set in plugin.xml?", testExpansions)
	if !strings.HasSuffix(got, "DOTS config registers task Monitor run every 30 seconds") {
		t.Fatalf("expected later rule to win, got %q", got)
	}
	if strings.Contains(got, "task scheduler run") {
		t.Fatalf("expected earlier rule terms replaced, got %q", got)
	}
}

func TestExpandQuestionCaseInsensitiveTriggers(t *testing.T) {
	got := expandQuestion("What Controls SCHEDULING?", testExpansions)
	if !strings.Contains(got, "plugin.xml DOTS") {
		t.Fatalf("expected case-insensitive trigger, got %q", got)
	}
	if !strings.HasPrefix(got, "What Controls SCHEDULING?") {
		t.Fatalf("expected raw question preserved, got %q", got)
	}
}

func TestExpandQuestionNoTriggerUnchanged(t *testing.T) {
	q := "how many pages does it have"
	if got := expandQuestion(q, testExpansions); got != q {
		t.Fatalf("expected question unchanged, got %q", got)
	}
}
