package harness

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/cauldron/internal/engine"
	"github.com/roach88/cauldron/internal/event"
)

// stateTolerance is the slack allowed when comparing float snapshot fields.
const stateTolerance = 1e-6

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string        // Assertion type for categorization
	Expected string        // Human-readable expected outcome
	Actual   string        // Human-readable actual outcome
	Trace    []event.Event // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", ev)
		}
	}

	return buf.String()
}

// snapshotFields names the final_state keys and how to read them.
var snapshotFields = map[string]func(engine.Snapshot) any{
	"tick":            func(s engine.Snapshot) any { return s.Tick },
	"active":          func(s engine.Snapshot) any { return s.Active },
	"angle":           func(s engine.Snapshot) any { return s.Angle },
	"cw":              func(s engine.Snapshot) any { return s.CW },
	"ccw":             func(s engine.Snapshot) any { return s.CCW },
	"next_checkpoint": func(s engine.Snapshot) any { return s.NextCheckpoint },
	"checkpoints":     func(s engine.Snapshot) any { return s.Checkpoints },
	"added":           func(s engine.Snapshot) any { return s.Added },
	"required":        func(s engine.Snapshot) any { return s.Required },
	"finished":        func(s engine.Snapshot) any { return s.Finished },
}

// matches reports whether e satisfies the event filter of a.
func (a Assertion) matches(e event.Event) bool {
	if e.Kind.String() != a.Event {
		return false
	}
	if a.Checkpoint != nil && *a.Checkpoint != e.Checkpoint {
		return false
	}
	if a.Ingredient != "" && a.Ingredient != e.Ingredient {
		return false
	}
	if a.Object != "" && a.Object != e.Object {
		return false
	}
	if a.Reason != "" && a.Reason != e.Reason {
		return false
	}
	return true
}

func (a Assertion) describe() string {
	parts := []string{a.Event}
	if a.Checkpoint != nil {
		parts = append(parts, fmt.Sprintf("checkpoint=%d", *a.Checkpoint))
	}
	if a.Ingredient != "" {
		parts = append(parts, "ingredient="+a.Ingredient)
	}
	if a.Object != "" {
		parts = append(parts, "object="+a.Object)
	}
	if a.Reason != "" {
		parts = append(parts, "reason="+a.Reason)
	}
	return strings.Join(parts, " ")
}

// assertTraceContains checks that some event matches the assertion's filter.
func assertTraceContains(trace []event.Event, assertion Assertion) error {
	if slices.ContainsFunc(trace, assertion.matches) {
		return nil
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: assertion.describe(),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the listed kinds appear as a subsequence of
// the trace. Intervening events are allowed; a kind may be listed more
// than once.
func assertTraceOrder(trace []event.Event, assertion Assertion) error {
	next := 0
	for _, e := range trace {
		if next < len(assertion.Events) && e.Kind.String() == assertion.Events[next] {
			next++
		}
	}

	if next < len(assertion.Events) {
		return &AssertionError{
			Type:     AssertTraceOrder,
			Expected: fmt.Sprintf("events in order: %v", assertion.Events),
			Actual:   fmt.Sprintf("matched %d of %d, missing %s", next, len(assertion.Events), assertion.Events[next]),
			Trace:    trace,
		}
	}

	return nil
}

// assertTraceCount checks that the event kind appears exactly Count times.
func assertTraceCount(trace []event.Event, assertion Assertion) error {
	count := 0
	for _, e := range trace {
		if assertion.matches(e) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.describe()),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks the engine snapshot with subset semantics: only
// keys in Expect are compared. Floats compare within stateTolerance.
func assertFinalState(snap engine.Snapshot, assertion Assertion) error {
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		read, ok := snapshotFields[key]
		if !ok {
			return fmt.Errorf("final_state: unknown field %q", key)
		}
		expected, actual := assertion.Expect[key], read(snap)
		if !stateValuesEqual(expected, actual) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q = %v (type %T)", key, expected, expected),
				Actual:   fmt.Sprintf("field %q = %v (type %T)", key, actual, actual),
			}
		}
	}

	return nil
}

// assertSpoken checks the exact clip sequence narration started.
func assertSpoken(spoken []string, assertion Assertion) error {
	want := assertion.Clips
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(spoken, want) {
		return &AssertionError{
			Type:     AssertSpoken,
			Expected: fmt.Sprintf("clips %v", want),
			Actual:   fmt.Sprintf("clips %v", spoken),
		}
	}
	return nil
}

// stateValuesEqual compares a YAML-decoded expectation with a snapshot
// field. YAML gives int or float64 for numbers; snapshot fields are int,
// uint64, float64 or bool.
func stateValuesEqual(expected, actual any) bool {
	if b, ok := actual.(bool); ok {
		exp, ok := expected.(bool)
		return ok && exp == b
	}

	exp, ok := toFloat(expected)
	if !ok {
		return false
	}
	switch a := actual.(type) {
	case float64:
		return math.Abs(a-exp) <= stateTolerance
	case int:
		return exp == float64(a)
	case uint64:
		return exp == float64(a)
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.Final, assertion)
		case AssertSpoken:
			err = assertSpoken(result.Spoken, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
