package controller

import (
	"fmt"
	"strings"
	"time"

	"github.com/lazypower/recall/internal/store"
)

// Digest is the read-only snapshot surfaced on session start and status
// queries: where the project stands, what is unanswered, and which
// concepts need revisiting. Building it mutates nothing.
type Digest struct {
	Status           *store.Status
	OpenQuestions    []store.Question
	RevisionConcepts []store.Concept
}

// BuildDigest assembles a digest from the store.
func (c *Controller) BuildDigest() (*Digest, error) {
	status, err := c.db.GetStatus()
	if err != nil {
		return nil, fmt.Errorf("build digest: %w", err)
	}
	questions, err := c.db.OpenQuestions()
	if err != nil {
		return nil, fmt.Errorf("build digest: %w", err)
	}
	concepts, err := c.db.ListConceptsByDifficulty(store.DifficultyRevision)
	if err != nil {
		return nil, fmt.Errorf("build digest: %w", err)
	}
	return &Digest{
		Status:           status,
		OpenQuestions:    questions,
		RevisionConcepts: concepts,
	}, nil
}

// Render formats the digest as plain text for the user.
func (d *Digest) Render() string {
	var b strings.Builder

	if d.Status == nil {
		b.WriteString("No status recorded yet.\n")
	} else {
		fmt.Fprintf(&b, "Phase: %s\n", d.Status.Phase)
		if d.Status.LastSessionAt > 0 {
			fmt.Fprintf(&b, "Last session: %s\n", time.UnixMilli(d.Status.LastSessionAt).Format("2006-01-02 15:04"))
		}
		if d.Status.NextAction != "" {
			fmt.Fprintf(&b, "Next: %s\n", d.Status.NextAction)
		}
		for _, blocker := range d.Status.Blockers {
			fmt.Fprintf(&b, "Blocked on: %s\n", blocker)
		}
	}

	if len(d.OpenQuestions) > 0 {
		b.WriteString("Open questions:\n")
		for _, q := range d.OpenQuestions {
			fmt.Fprintf(&b, "  - %s\n", q.Text)
		}
	}
	if len(d.RevisionConcepts) > 0 {
		b.WriteString("Needs revision:\n")
		for _, c := range d.RevisionConcepts {
			fmt.Fprintf(&b, "  - %s\n", c.ID)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
