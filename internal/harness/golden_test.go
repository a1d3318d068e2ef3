package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// To regenerate: go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_ConsumerSharedScript(t *testing.T) {
	scenario, err := LoadScenario("../../testdata/scenarios/consumer_shared_script.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithGolden_ProducerRecoverable(t *testing.T) {
	scenario, err := LoadScenario("../../testdata/scenarios/producer_recoverable.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestSnapshot_Canonical(t *testing.T) {
	r := NewResult()
	r.Scenario = "snap"
	r.Kind = KindProducer
	r.AddEvent(TraceEvent{Seq: 1, Op: OpNext, Item: "x", Outcome: OutcomeReady})
	r.AddEvent(TraceEvent{Seq: 2, Op: OpNext, Outcome: OutcomeEnd})
	r.Items = []string{"x"}
	r.State = "exhausted"

	data, err := Snapshot(r)
	require.NoError(t, err)

	want := `{"items":["x"],"kind":"producer","scenario_name":"snap","state":"exhausted",` +
		`"trace":[{"item":"x","op":"next","outcome":"ready","seq":1},{"op":"next","outcome":"end","seq":2}]}`
	assert.Equal(t, want, string(data))
}

func TestSnapshot_NilItems(t *testing.T) {
	r := &Result{Scenario: "empty", Kind: KindConsumer, State: "idle"}

	data, err := Snapshot(r)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[],"kind":"consumer","scenario_name":"empty","state":"idle","trace":[]}`, string(data))
}
