// Package gate enforces explicit consent before any memory content is
// written. Consent is a typed, one-shot token: granted by one utterance,
// consumed by exactly one mutation, and discarded if not used on the very
// next turn. A stale "yes" never authorizes an unrelated later write.
package gate

import (
	"errors"
	"fmt"

	"github.com/lazypower/recall/internal/trigger"
)

// ErrPermissionDenied is returned when a content-mutating trigger arrives
// without a live consent token.
var ErrPermissionDenied = errors.New("permission denied")

// ConsentToken is a single-use authorization artifact.
type ConsentToken struct {
	seq int
}

// Gate holds at most one pending consent token. It has no persistent
// state; tokens live for one turn.
type Gate struct {
	pending *ConsentToken
	age     int
	seq     int
}

// New returns an empty gate with no pending consent.
func New() *Gate {
	return &Gate{}
}

// Grant registers a fresh consent token, replacing any pending one.
func (g *Gate) Grant() ConsentToken {
	g.seq++
	g.pending = &ConsentToken{seq: g.seq}
	g.age = 0
	return *g.pending
}

// Authorize checks whether the given trigger kind may mutate memory.
// Non-mutating kinds always pass. Mutating kinds consume the pending
// token; without one the gate denies and the store must stay untouched.
func (g *Gate) Authorize(kind trigger.Kind) error {
	if !kind.Mutating() {
		return nil
	}
	if g.pending == nil {
		return fmt.Errorf("%s requires explicit consent (say \"save this\" or \"yes\" first): %w", kind, ErrPermissionDenied)
	}
	g.pending = nil
	return nil
}

// Tick advances the gate by one turn. A token that survives a full turn
// without being consumed is stale and gets dropped. Call once per
// interaction, after the trigger is handled.
func (g *Gate) Tick() {
	if g.pending == nil {
		return
	}
	g.age++
	if g.age > 1 {
		g.pending = nil
		g.age = 0
	}
}

// Pending reports whether an unconsumed consent token is held.
func (g *Gate) Pending() bool {
	return g.pending != nil
}
