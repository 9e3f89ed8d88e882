package trigger

import (
	"strconv"
	"strings"
)

// KeywordClassifier is the default Classifier: literal phrase and prefix
// matching, case-insensitive. Extracted content keeps the user's casing;
// topic keys are lowercased so "Recursion" and "recursion" are one concept.
type KeywordClassifier struct{}

// NewKeywordClassifier returns the default keyword-matching classifier.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{}
}

var startPhrases = map[string]bool{
	"hello":          true,
	"hi":             true,
	"start":          true,
	"let's start":    true,
	"resume":         true,
	"let's continue": true,
	"good morning":   true,
}

var endPhrases = map[string]bool{
	"stop":           true,
	"bye":            true,
	"goodbye":        true,
	"continue later": true,
	"that's all":     true,
	"done for today": true,
}

var consentPhrases = map[string]bool{
	"yes":       true,
	"approved":  true,
	"save this": true,
	"save it":   true,
	"go ahead":  true,
}

var statusPhrases = map[string]bool{
	"status":        true,
	"where are we":  true,
	"where were we": true,
	"what's next":   true,
}

// Classify maps an utterance to a Trigger. Unmatched input is Unknown.
func (c *KeywordClassifier) Classify(utterance string) Trigger {
	raw := utterance
	phrase := normalize(utterance)

	switch {
	case startPhrases[phrase]:
		return Trigger{Kind: SessionStart, Raw: raw}
	case endPhrases[phrase]:
		return Trigger{Kind: SessionEnd, Raw: raw}
	case consentPhrases[phrase]:
		return Trigger{Kind: ConsentGrant, Raw: raw}
	case statusPhrases[phrase]:
		return Trigger{Kind: StatusQuery, Raw: raw}
	}

	if rest, ok := cutPrefixFold(raw, "approved:"); ok {
		t := Trigger{Kind: DecisionApproval, Raw: raw, Description: rest}
		if idx := indexFold(rest, " because "); idx >= 0 {
			t.Description = strings.TrimSpace(rest[:idx])
			t.Rationale = strings.TrimSpace(rest[idx+1:])
		}
		return t
	}

	if rest, ok := cutPrefixFold(raw, "explained:"); ok {
		topic, content, found := strings.Cut(rest, ":")
		if !found {
			return Trigger{Kind: Unknown, Raw: raw}
		}
		return Trigger{
			Kind:    ConceptExplained,
			Raw:     raw,
			Topic:   topicKey(topic),
			Content: strings.TrimSpace(content),
		}
	}

	for _, p := range []string{"i don't understand", "i do not understand", "i dont understand"} {
		if rest, ok := cutPrefixFold(raw, p); ok && rest != "" {
			return Trigger{Kind: ConceptDifficultySignal, Raw: raw, Topic: topicKey(rest), Signal: SignalDontUnderstand}
		}
	}
	if rest, ok := cutPrefixFold(raw, "understood:"); ok && rest != "" {
		return Trigger{Kind: ConceptDifficultySignal, Raw: raw, Topic: topicKey(rest), Signal: SignalExplainedCorrectly}
	}
	if rest, ok := cutPrefixFold(raw, "applied:"); ok && rest != "" {
		return Trigger{Kind: ConceptDifficultySignal, Raw: raw, Topic: topicKey(rest), Signal: SignalAppliedCorrectly}
	}
	for _, p := range []string{"struggling with", "revisit:"} {
		if rest, ok := cutPrefixFold(raw, p); ok && rest != "" {
			topic := strings.TrimSuffix(topicKey(rest), " again")
			return Trigger{Kind: ConceptDifficultySignal, Raw: raw, Topic: topic, Signal: SignalRepeatedFailure}
		}
	}

	if rest, ok := cutPrefixFold(raw, "question:"); ok && rest != "" {
		return Trigger{Kind: QuestionAsked, Raw: raw, Question: rest}
	}

	if rest, ok := cutPrefixFold(raw, "resolved:"); ok && rest != "" {
		t := Trigger{Kind: QuestionResolved, Raw: raw, Resolution: rest}
		// "resolved: <id>: <text>" names a question; the bare form resolves
		// the oldest pending one.
		if id, res, found := strings.Cut(rest, ":"); found && !strings.Contains(strings.TrimSpace(id), " ") {
			t.QuestionID = strings.ToUpper(strings.TrimSpace(id))
			t.Resolution = strings.TrimSpace(res)
		}
		return t
	}

	if rest, ok := cutPrefixFold(raw, "goal:"); ok && rest != "" {
		return Trigger{Kind: GoalUpdate, Raw: raw, GoalAction: GoalAdd, GoalText: rest}
	}
	if rest, ok := cutPrefixFold(raw, "done:"); ok && rest != "" {
		if n, err := strconv.Atoi(rest); err == nil {
			return Trigger{Kind: GoalUpdate, Raw: raw, GoalAction: GoalDone, GoalPosition: n}
		}
		return Trigger{Kind: Unknown, Raw: raw}
	}
	if rest, ok := cutPrefixFold(raw, "log:"); ok && rest != "" {
		return Trigger{Kind: GoalUpdate, Raw: raw, GoalAction: GoalLog, GoalText: rest}
	}
	if rest, ok := cutPrefixFold(raw, "phase:"); ok && rest != "" {
		return Trigger{Kind: GoalUpdate, Raw: raw, GoalAction: GoalPhase, Phase: strings.ToLower(rest)}
	}

	if strings.HasSuffix(strings.TrimSpace(raw), "?") {
		return Trigger{Kind: QuestionAsked, Raw: raw, Question: strings.TrimSpace(raw)}
	}

	return Trigger{Kind: Unknown, Raw: raw}
}

// normalize lowercases, trims whitespace, and drops a trailing period or
// exclamation mark for whole-phrase matching.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".!")
	return strings.TrimSpace(s)
}

// cutPrefixFold strips prefix from s case-insensitively, returning the
// remainder with the user's original casing.
func cutPrefixFold(s, prefix string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(s[len(prefix):]), true
}

// indexFold finds the first case-insensitive occurrence of sub in s.
func indexFold(s, sub string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(sub))
}

func topicKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
