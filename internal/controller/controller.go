// Package controller routes classified triggers to the memory store,
// permission gate, and concept tracker. One utterance is fully applied
// before the next is accepted.
package controller

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lazypower/recall/internal/gate"
	"github.com/lazypower/recall/internal/store"
	"github.com/lazypower/recall/internal/tracker"
	"github.com/lazypower/recall/internal/trigger"
)

// Effect describes what a handled trigger did.
type Effect string

const (
	EffectSessionUpdated  Effect = "session_updated"
	EffectSessionArchived Effect = "session_archived"
	EffectRecordCreated   Effect = "record_created"
	EffectRecordUpdated   Effect = "record_updated"
	EffectDenied          Effect = "denied"
	EffectNoOp            Effect = "noop"
)

// Result is the outcome of one handled utterance: the effect, a
// human-readable message, and on session start or status query a
// read-only digest.
type Result struct {
	Effect  Effect
	Message string
	Digest  *Digest
}

// Controller owns the active session and applies triggers against it.
type Controller struct {
	mu         sync.Mutex
	db         *store.DB
	gate       *gate.Gate
	tracker    *tracker.Tracker
	classifier trigger.Classifier
}

// New creates a Controller. A nil classifier gets the default keyword one.
func New(db *store.DB, classifier trigger.Classifier) *Controller {
	if classifier == nil {
		classifier = trigger.NewKeywordClassifier()
	}
	return &Controller{
		db:         db,
		gate:       gate.New(),
		tracker:    tracker.New(db),
		classifier: classifier,
	}
}

// Handle classifies and applies one utterance. Interactions are strictly
// sequential; a second caller blocks until the first is done. Unrecognized
// input is a no-op, never an error — the error return is reserved for
// store failures, which abort only the current operation.
func (c *Controller) Handle(utterance string) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.classifier.Classify(utterance)

	res, err := c.apply(t)
	// The consent token ages one turn per interaction regardless of outcome.
	c.gate.Tick()
	return res, err
}

func (c *Controller) apply(t trigger.Trigger) (Result, error) {
	switch t.Kind {
	case trigger.ConsentGrant:
		c.gate.Grant()
		return Result{Effect: EffectNoOp, Message: "Noted. The next memory write is authorized."}, nil

	case trigger.SessionStart:
		return c.handleStart()

	case trigger.SessionEnd:
		return c.handleEnd()

	case trigger.GoalUpdate:
		return c.handleGoalUpdate(t)

	case trigger.ConceptDifficultySignal:
		return c.handleDifficultySignal(t)

	case trigger.StatusQuery:
		digest, err := c.BuildDigest()
		if err != nil {
			return Result{}, err
		}
		return Result{Effect: EffectNoOp, Message: digest.Render(), Digest: digest}, nil

	case trigger.DecisionApproval, trigger.ConceptExplained, trigger.QuestionAsked, trigger.QuestionResolved:
		if err := c.gate.Authorize(t.Kind); err != nil {
			return Result{Effect: EffectDenied, Message: err.Error()}, nil
		}
		return c.applyMutation(t)

	default:
		return Result{
			Effect:  EffectNoOp,
			Message: "I didn't catch that as something to remember. Try \"goal: ...\", \"question: ...\", or \"status\".",
		}, nil
	}
}

func (c *Controller) handleStart() (Result, error) {
	active, err := c.db.ActiveSession()
	if err != nil {
		return Result{}, err
	}

	created := false
	if active == nil {
		phase := store.PhaseInitial
		if st, err := c.db.GetStatus(); err != nil {
			return Result{}, err
		} else if st != nil {
			phase = st.Phase
		}
		if active, err = c.db.CreateSession(phase); err != nil {
			return Result{}, err
		}
		created = true
	}

	digest, err := c.BuildDigest()
	if err != nil {
		return Result{}, err
	}

	msg := fmt.Sprintf("Resuming session in phase %s.", active.Phase)
	if created {
		msg = fmt.Sprintf("Started a new session in phase %s.", active.Phase)
	}
	return Result{
		Effect:  EffectSessionUpdated,
		Message: msg + "\n" + digest.Render(),
		Digest:  digest,
	}, nil
}

func (c *Controller) handleEnd() (Result, error) {
	active, err := c.db.ActiveSession()
	if err != nil {
		return Result{}, err
	}
	if active == nil {
		return Result{Effect: EffectNoOp, Message: "No active session to wrap up."}, nil
	}

	goals, err := c.db.Goals(active.ID)
	if err != nil {
		return Result{}, err
	}
	entries, err := c.db.LogEntries(active.ID)
	if err != nil {
		return Result{}, err
	}
	open, err := c.db.OpenQuestions()
	if err != nil {
		return Result{}, err
	}

	var unfinished []store.Goal
	doneCount := 0
	for _, g := range goals {
		if g.Done {
			doneCount++
		} else {
			unfinished = append(unfinished, g)
		}
	}

	blockers := make([]string, 0, len(open))
	for _, q := range open {
		blockers = append(blockers, q.Text)
	}

	nextAction := ""
	if len(unfinished) > 0 {
		nextAction = unfinished[0].Text
	}

	// Status first, then the atomic archive+recreate. A crash between the
	// two leaves the status slightly ahead but the session intact.
	if err := c.db.PutStatus(store.Status{
		Phase:         active.Phase,
		LastSessionAt: time.Now().UnixMilli(),
		NextAction:    nextAction,
		Blockers:      blockers,
	}); err != nil {
		return Result{}, err
	}

	summary := summarize(entries, doneCount, len(goals))
	fresh, err := c.db.ArchiveSession(active.ID, summary, unfinished)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Effect: EffectSessionArchived,
		Message: fmt.Sprintf("Session archived (%s). New session ready in phase %s with %d carried goal(s).",
			summary, fresh.Phase, len(unfinished)),
	}, nil
}

func (c *Controller) handleGoalUpdate(t trigger.Trigger) (Result, error) {
	active, err := c.ensureActive()
	if err != nil {
		return Result{}, err
	}

	switch t.GoalAction {
	case trigger.GoalAdd:
		if _, err := c.db.AddGoal(active.ID, t.GoalText); err != nil {
			return Result{}, err
		}
		if err := c.db.AppendLog(active.ID, "goal added: "+t.GoalText); err != nil {
			return Result{}, err
		}
		return Result{Effect: EffectSessionUpdated, Message: "Goal added: " + t.GoalText}, nil

	case trigger.GoalDone:
		if err := c.db.SetGoalDone(active.ID, t.GoalPosition, true); err != nil {
			return Result{Effect: EffectNoOp, Message: err.Error()}, nil
		}
		if err := c.db.AppendLog(active.ID, fmt.Sprintf("goal %d completed", t.GoalPosition)); err != nil {
			return Result{}, err
		}
		return Result{Effect: EffectSessionUpdated, Message: fmt.Sprintf("Goal %d marked done.", t.GoalPosition)}, nil

	case trigger.GoalLog:
		if err := c.db.AppendLog(active.ID, t.GoalText); err != nil {
			return Result{}, err
		}
		return Result{Effect: EffectSessionUpdated, Message: "Logged."}, nil

	case trigger.GoalPhase:
		if err := c.db.SetPhase(active.ID, t.Phase); err != nil {
			if errors.Is(err, store.ErrInvalidTransition) {
				return Result{Effect: EffectNoOp, Message: "Phase change rejected: " + err.Error()}, nil
			}
			return Result{}, err
		}
		if err := c.db.AppendLog(active.ID, "phase advanced to "+t.Phase); err != nil {
			return Result{}, err
		}
		return Result{Effect: EffectSessionUpdated, Message: "Phase is now " + t.Phase + "."}, nil
	}

	return Result{Effect: EffectNoOp, Message: "Nothing to update."}, nil
}

func (c *Controller) handleDifficultySignal(t trigger.Trigger) (Result, error) {
	concept, changed, err := c.tracker.Apply(t.Topic, t.Signal)
	if err != nil {
		return Result{}, err
	}
	if !changed {
		return Result{
			Effect:  EffectNoOp,
			Message: fmt.Sprintf("%q stays at %s.", concept.ID, concept.Difficulty),
		}, nil
	}

	// A regression also files the topic back into the revision pile.
	if t.Signal == trigger.SignalRepeatedFailure {
		if err := c.tracker.Recategorize(concept.ID, store.CategoryRevision); err != nil {
			return Result{}, err
		}
	}

	c.logIfActive(fmt.Sprintf("concept %q moved to %s", concept.ID, concept.Difficulty))
	return Result{
		Effect:  EffectRecordUpdated,
		Message: fmt.Sprintf("%q is now %s.", concept.ID, concept.Difficulty),
	}, nil
}

func (c *Controller) applyMutation(t trigger.Trigger) (Result, error) {
	switch t.Kind {
	case trigger.DecisionApproval:
		d, err := c.db.AddDecision(c.db.NewID(), t.Description, t.Rationale)
		if err != nil {
			return Result{}, err
		}
		c.logIfActive("decision recorded: " + d.Description)
		return Result{Effect: EffectRecordCreated, Message: "Decision recorded: " + d.Description}, nil

	case trigger.ConceptExplained:
		existing, err := c.db.GetConcept(t.Topic)
		if err != nil {
			return Result{}, err
		}
		concept := store.Concept{
			ID:         t.Topic,
			Category:   store.CategoryCore,
			Difficulty: store.DifficultyUnreviewed,
			Content:    t.Content,
		}
		effect := EffectRecordCreated
		if existing != nil {
			concept.Category = existing.Category
			concept.Difficulty = existing.Difficulty
			effect = EffectRecordUpdated
		}
		if _, err := c.db.PutConcept(concept); err != nil {
			return Result{}, err
		}
		c.logIfActive("concept explained: " + t.Topic)
		return Result{Effect: effect, Message: "Concept saved: " + t.Topic}, nil

	case trigger.QuestionAsked:
		q, err := c.db.AddQuestion(c.db.NewID(), t.Question)
		if err != nil {
			return Result{}, err
		}
		c.logIfActive("question raised: " + q.Text)
		return Result{Effect: EffectRecordCreated, Message: "Question noted: " + q.Text}, nil

	case trigger.QuestionResolved:
		id := t.QuestionID
		if id == "" {
			open, err := c.db.OpenQuestions()
			if err != nil {
				return Result{}, err
			}
			if len(open) == 0 {
				return Result{Effect: EffectNoOp, Message: "No open questions to resolve."}, nil
			}
			id = open[0].ID
		}
		if err := c.db.ResolveQuestion(id, t.Resolution); err != nil {
			if errors.Is(err, store.ErrInvalidTransition) {
				return Result{Effect: EffectNoOp, Message: "Cannot resolve: " + err.Error()}, nil
			}
			return Result{}, err
		}
		c.logIfActive("question resolved: " + id)
		return Result{Effect: EffectRecordUpdated, Message: "Question resolved."}, nil
	}

	return Result{Effect: EffectNoOp, Message: "Nothing to apply."}, nil
}

// ensureActive returns the active session, creating one (phase seeded from
// the status singleton) if the store has none.
func (c *Controller) ensureActive() (*store.Session, error) {
	active, err := c.db.ActiveSession()
	if err != nil {
		return nil, err
	}
	if active != nil {
		return active, nil
	}
	phase := store.PhaseInitial
	if st, err := c.db.GetStatus(); err != nil {
		return nil, err
	} else if st != nil {
		phase = st.Phase
	}
	return c.db.CreateSession(phase)
}

// logIfActive appends a bookkeeping line to the active session's log.
// Content records stand on their own; losing the log line is acceptable.
func (c *Controller) logIfActive(entry string) {
	active, err := c.db.ActiveSession()
	if err != nil || active == nil {
		return
	}
	c.db.AppendLog(active.ID, entry)
}

func summarize(entries []store.LogEntry, done, total int) string {
	parts := []string{
		fmt.Sprintf("%d log entries", len(entries)),
		fmt.Sprintf("%d/%d goals done", done, total),
	}
	return strings.Join(parts, ", ")
}
