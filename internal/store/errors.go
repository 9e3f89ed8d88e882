package store

import "errors"

// ErrInvalidTransition is returned when a write would violate a record's
// lifecycle: overwriting an append-only decision, re-resolving a question,
// or moving a session phase backwards.
var ErrInvalidTransition = errors.New("invalid transition")
