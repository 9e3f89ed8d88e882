// Package tracker implements the per-concept difficulty state machine.
// The tracker never judges comprehension itself; the caller passes in the
// already-assessed signal and the tracker only decides whether the
// transition is defined.
package tracker

import (
	"fmt"
	"time"

	"github.com/lazypower/recall/internal/store"
	"github.com/lazypower/recall/internal/trigger"
)

// Tracker applies difficulty signals to concept records in the store.
type Tracker struct {
	db *store.DB
}

// New returns a Tracker backed by the given store.
func New(db *store.DB) *Tracker {
	return &Tracker{db: db}
}

// Next returns the difficulty state reached from current via signal, and
// whether the transition is defined. Undefined combinations are no-ops.
func Next(current string, signal trigger.Signal) (string, bool) {
	switch signal {
	case trigger.SignalDontUnderstand:
		if current == store.DifficultyUnreviewed {
			return store.DifficultyRevision, true
		}
	case trigger.SignalExplainedCorrectly:
		if current == store.DifficultyUnreviewed || current == store.DifficultyRevision {
			return store.DifficultyUnderstood, true
		}
	case trigger.SignalAppliedCorrectly:
		if current == store.DifficultyUnderstood {
			return store.DifficultyMastered, true
		}
	case trigger.SignalRepeatedFailure:
		if current == store.DifficultyMastered {
			return store.DifficultyRevision, true
		}
	}
	return current, false
}

// Apply applies a difficulty signal to the named concept. If the concept
// does not exist yet it is created first, in the default category with an
// empty payload, so a "I don't understand X" lands as difficulty revision
// even before X was ever explained. Returns the concept after the signal
// and whether the signal changed anything.
func (t *Tracker) Apply(topic string, signal trigger.Signal) (*store.Concept, bool, error) {
	c, err := t.db.GetConcept(topic)
	if err != nil {
		return nil, false, fmt.Errorf("apply signal: %w", err)
	}
	if c == nil {
		created, err := t.db.PutConcept(store.Concept{
			ID:         topic,
			Category:   store.CategoryCore,
			Difficulty: store.DifficultyUnreviewed,
		})
		if err != nil {
			return nil, false, fmt.Errorf("apply signal: %w", err)
		}
		c = created
	}

	next, ok := Next(c.Difficulty, signal)
	if !ok {
		return c, false, nil
	}
	if err := t.db.SetConceptDifficulty(c.ID, next); err != nil {
		return nil, false, fmt.Errorf("apply signal: %w", err)
	}
	c.Difficulty = next
	c.LastUpdated = time.Now().UnixMilli()
	return c, true, nil
}

// Recategorize moves a concept to another category, leaving difficulty
// untouched. Used when a topic is pulled into the revision pile.
func (t *Tracker) Recategorize(topic, category string) error {
	if err := t.db.SetConceptCategory(topic, category); err != nil {
		return fmt.Errorf("recategorize: %w", err)
	}
	return nil
}
