package harness

import (
	"github.com/roach88/cauldron/internal/engine"
	"github.com/roach88/cauldron/internal/event"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool

	// Trace contains every event the engine published, in bus order.
	Trace []event.Event

	// Spoken lists the narration clips started, in order.
	Spoken []string

	// Removed lists the objects the engine disposed of, in order.
	Removed []string

	// Final is the engine state after the last step.
	Final engine.Snapshot

	// Fingerprint is the XXH3 fingerprint of Trace.
	Fingerprint string

	// SessionID is set when the run was journalled.
	SessionID string

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []event.Event{},
		Spoken: []string{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
