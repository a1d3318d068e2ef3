package harness

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pollscript/pkg/poll"
)

func TestRun_ConsumerGrant(t *testing.T) {
	scenario := &Scenario{
		Name:        "grant",
		Description: "two items fit the grant, the third does not",
		Kind:        KindConsumer,
		Steps:       []string{"limited(2)"},
		Actions: []Action{
			{Op: OpReady, Expect: OutcomeReady},
			{Op: OpAccept, Item: "a", Expect: OutcomeOK},
			{Op: OpAccept, Item: "b", Expect: OutcomeOK},
			{Op: OpAccept, Item: "c", Expect: OutcomeViolation, Error: "GRANT_EXCEEDED"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"a", "b"}, result.Items)
	assert.Equal(t, "idle", result.State)
	require.Len(t, result.Trace, 4)

	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, "c", result.Trace[3].Item)
	assert.Contains(t, result.Trace[3].Error, "GRANT_EXCEEDED")
}

func TestRun_ExpectMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "mismatch",
		Description: "the block is not a ready",
		Kind:        KindConsumer,
		Steps:       []string{"would_block"},
		Actions: []Action{
			{Op: OpReady, Expect: OutcomeReady},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected ready, got pending")
	assert.Equal(t, "awaiting_wake", result.State)
}

func TestRun_ErrorSubstringMismatch(t *testing.T) {
	scenario := &Scenario{
		Name:        "substring",
		Description: "the injected error has a different name",
		Kind:        KindProducer,
		Steps:       []string{"err(E1)"},
		Data:        []string{"x"},
		Actions: []Action{
			{Op: OpNext, Expect: OutcomeError, Error: "E2"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `expected error containing "E2"`)
}

func TestRun_ReleasedSinkRejectsCalls(t *testing.T) {
	scenario := &Scenario{
		Name:        "released",
		Description: "a released sink is closed",
		Kind:        KindConsumer,
		Steps:       []string{"unlimited"},
		Actions: []Action{
			{Op: OpRelease, Expect: OutcomeOK},
			{Op: OpReady, Expect: OutcomeViolation, Error: "CLOSED"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "closed", result.State)
}

func TestClassify(t *testing.T) {
	closed := poll.NewProtocolError(poll.CodeClosed, poll.OpFlush, "collector is closed")

	assert.Equal(t, OutcomeViolation, classify(closed))
	assert.Equal(t, OutcomeError, classify(&poll.InnerError{Op: poll.OpFlush, Err: closed}))
	assert.Equal(t, OutcomeError, classify(&poll.ScriptedError{Op: poll.OpNext, Err: errors.New("E1")}))
	assert.Equal(t, OutcomeError, classify(errors.New("plain")))
}

func TestRun_ProducerWakeAndSetSteps(t *testing.T) {
	scenario := &Scenario{
		Name:        "producer_set_steps",
		Description: "replacing the script drops the parked block",
		Kind:        KindProducer,
		Steps:       []string{"would_block"},
		Data:        []string{"x", "y"},
		Actions: []Action{
			{Op: OpNext, Expect: OutcomePending},
			{Op: OpSetSteps, Steps: []string{"limited(2)"}},
			{Op: OpWake, Expect: OutcomeIdle},
			{Op: OpNext, Expect: OutcomeReady},
			{Op: OpNext, Expect: OutcomeReady},
			{Op: OpNext, Expect: OutcomeEnd},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"x", "y"}, result.Items)
	assert.Equal(t, "exhausted", result.State)
	assert.Equal(t, OutcomeOK, result.Trace[1].Outcome)
}

func TestRun_ProducerRelease(t *testing.T) {
	scenario := &Scenario{
		Name:        "producer_release",
		Description: "a released stream ends",
		Kind:        KindProducer,
		Data:        []string{"x", "y"},
		Actions: []Action{
			{Op: OpNext, Expect: OutcomeReady},
			{Op: OpRelease, Expect: OutcomeOK},
			{Op: OpNext, Expect: OutcomeEnd},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{"x"}, result.Items)
	assert.Equal(t, "closed", result.State)
}

func TestRun_AssertionFailuresReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "assertions",
		Description: "assertions see the finished run",
		Kind:        KindProducer,
		Data:        []string{"x"},
		Actions:     []Action{{Op: OpNext}},
		Assertions: []Assertion{
			{Type: AssertFinalItems, Items: []string{"y"}},
			{Type: AssertFinalState, State: "exhausted"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "assertions[0]")
	assert.Contains(t, result.Errors[1], "assertions[1]")
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("../../testdata/scenarios/consumer_per_operation.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Items, second.Items)
}

func TestRun_InvalidSteps(t *testing.T) {
	scenario := &Scenario{
		Name:    "bad",
		Kind:    KindConsumer,
		Steps:   []string{"sometimes"},
		Actions: []Action{{Op: OpReady}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "steps[0]")
}

func TestRun_InvalidSetSteps(t *testing.T) {
	scenario := &Scenario{
		Name:    "bad_set_steps",
		Kind:    KindProducer,
		Actions: []Action{{Op: OpSetSteps, Steps: []string{"limited(-1)"}}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "actions[0]")
}

func TestRun_UnknownKind(t *testing.T) {
	_, err := Run(&Scenario{Name: "x", Kind: "pipe", Actions: []Action{{Op: OpNext}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown kind "pipe"`)
}

func TestRun_LogsActions(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	scenario := &Scenario{
		Name:    "logged",
		Kind:    KindConsumer,
		Steps:   []string{"limited(1)"},
		Actions: []Action{{Op: OpReady}},
	}

	_, err := Run(scenario, WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "action completed")
	assert.Contains(t, out, "scenario=logged")
	assert.Contains(t, out, "step=limited(1)")
}

func TestRun_DemoScenarios(t *testing.T) {
	for _, name := range []string{
		"consumer_shared_script",
		"consumer_per_operation",
		"consumer_strict",
		"producer_recoverable",
		"producer_fatal",
		"producer_cycle",
	} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario("../../testdata/scenarios/" + name + ".yaml")
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
