// Package trigger classifies free-text utterances into the fixed trigger
// set the session controller understands. Classification is best-effort
// keyword matching; anything ambiguous comes back as Unknown and the
// controller treats it as a no-op.
package trigger

// Kind is the classified intent of an utterance.
type Kind string

const (
	SessionStart            Kind = "session_start"
	SessionEnd              Kind = "session_end"
	GoalUpdate              Kind = "goal_update"
	ConsentGrant            Kind = "consent_grant"
	DecisionApproval        Kind = "decision_approval"
	ConceptExplained        Kind = "concept_explained"
	ConceptDifficultySignal Kind = "concept_difficulty_signal"
	QuestionAsked           Kind = "question_asked"
	QuestionResolved        Kind = "question_resolved"
	StatusQuery             Kind = "status_query"
	Unknown                 Kind = "unknown"
)

// Mutating reports whether this kind writes memory content and therefore
// must pass the permission gate. Session bookkeeping and difficulty
// signals are exempt.
func (k Kind) Mutating() bool {
	switch k {
	case DecisionApproval, ConceptExplained, QuestionAsked, QuestionResolved:
		return true
	}
	return false
}

// Signal is a concept-difficulty signal extracted from an utterance.
type Signal string

const (
	SignalNone               Signal = ""
	SignalDontUnderstand     Signal = "dont_understand"
	SignalExplainedCorrectly Signal = "explained_correctly"
	SignalAppliedCorrectly   Signal = "applied_correctly"
	SignalRepeatedFailure    Signal = "repeated_failure"
)

// GoalAction distinguishes the bookkeeping updates grouped under GoalUpdate.
type GoalAction string

const (
	GoalAdd   GoalAction = "add"
	GoalDone  GoalAction = "done"
	GoalLog   GoalAction = "log"
	GoalPhase GoalAction = "phase"
)

// Trigger is a classified utterance with the fields the matched pattern
// extracted. Only the fields relevant to Kind are populated.
type Trigger struct {
	Kind Kind
	Raw  string

	// Concept triggers
	Topic   string
	Content string
	Signal  Signal

	// Decision approval
	Description string
	Rationale   string

	// Questions
	Question   string
	QuestionID string
	Resolution string

	// Goal/log bookkeeping
	GoalAction   GoalAction
	GoalText     string
	GoalPosition int
	Phase        string
}

// Classifier maps free text to a Trigger. Implementations are swappable;
// the default is keyword matching but nothing in the controller depends
// on how classification happens.
type Classifier interface {
	Classify(utterance string) Trigger
}
