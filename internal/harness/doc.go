// Package harness runs YAML scenarios against the scripted test doubles.
//
// A scenario builds one testsink.Sink (kind consumer) or one
// teststream.Stream (kind producer), issues its actions in order, and
// records one trace event per action.
//
// # Scenario Format
//
//	name: consumer_shared_script
//	description: "What this scenario validates"
//	kind: consumer
//	shared_script: true
//	steps: [limited(2), would_block, limited(1)]
//	actions:
//	  - op: ready
//	    expect: ready
//	  - op: accept
//	    item: a
//	  - op: accept
//	    item: c
//	    expect: violation
//	    error: GRANT_EXCEEDED
//	assertions:
//	  - type: final_items
//	    items: [a]
//
// Producer scenarios add a data list and use the next op. Both kinds
// accept wake, set_steps and release.
//
// # Assertion Types
//
//   - trace_contains: an event with op (and outcome, item) exists
//   - trace_order: events match the sequence entries in order
//   - trace_count: exactly count events match
//   - final_items: items delivered to the consumer, or pulled
//   - final_state: the lifecycle state after the last action
//
// # Deterministic Testing
//
// Sequence numbers come from testutil.DeterministicClock and every run
// starts from a fresh harness, so a scenario always yields the same trace.
// RunWithGolden compares that trace to testdata/golden/{name}.golden.
package harness
