package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
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
			fmt.Fprintf(&buf, "  [%d] %s", ev.Seq, ev.Op)
			if ev.Item != "" {
				fmt.Fprintf(&buf, "(%s)", ev.Item)
			}
			fmt.Fprintf(&buf, " -> %s", ev.Outcome)
			if ev.Error != "" {
				fmt.Fprintf(&buf, ": %s", ev.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against the result and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertFinalItems:
		return assertFinalItems(result, a)
	case AssertFinalState:
		return assertFinalState(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// matches reports whether ev has op and, when given, outcome and item.
func matches(ev TraceEvent, op, outcome, item string) bool {
	if ev.Op != op {
		return false
	}
	if outcome != "" && ev.Outcome != outcome {
		return false
	}
	return item == "" || ev.Item == item
}

func describe(op, outcome, item string) string {
	s := op
	if item != "" {
		s += "(" + item + ")"
	}
	if outcome != "" {
		s += " -> " + outcome
	}
	return s
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if matches(ev, a.Op, a.Outcome, a.Item) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a.Op, a.Outcome, a.Item),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the sequence entries match events in order.
// Other events may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for i, entry := range a.Sequence {
		op, outcome, _ := strings.Cut(entry, ":")

		found := false
		for pos < len(trace) {
			ev := trace[pos]
			pos++
			if matches(ev, op, outcome, "") {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Sequence),
				Actual:   fmt.Sprintf("no %s after %v", entry, a.Sequence[:i]),
				Trace:    trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if matches(ev, a.Op, a.Outcome, a.Item) {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, describe(a.Op, a.Outcome, a.Item)),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalItems(result *Result, a Assertion) error {
	want := a.Items
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(result.Items, want) {
		return &AssertionError{
			Type:     AssertFinalItems,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", result.Items),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertFinalState(result *Result, a Assertion) error {
	if result.State != a.State {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: a.State,
			Actual:   result.State,
		}
	}
	return nil
}
