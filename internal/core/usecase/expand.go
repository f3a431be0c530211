package usecase

import "strings"

// ExpansionRule appends retrieval boost terms to a question when any of
// its trigger substrings matches. Rules compensate for vocabulary gaps
// between how users ask and how documents phrase things; the defaults
// ship in config and can be replaced per deployment.
type ExpansionRule struct {
	Match  []string
	Append string
}

// expandQuestion checks rules in order against the lowercased question;
// the last matching rule wins and its terms are appended to the raw
// question. Expansion feeds retrieval only: prompts, mode detection and
// citations always see the original question.
func expandQuestion(question string, rules []ExpansionRule) string {
	lowered := strings.ToLower(question)
	expanded := question
	for _, rule := range rules {
		if rule.Append == "" {
			continue
		}
		for _, trigger := range rule.Match {
			if trigger == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(trigger)) {
				expanded = question + " " + rule.Append
				break
			}
		}
	}
	return expanded
}
