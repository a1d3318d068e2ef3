package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_Consumer(t *testing.T) {
	s, err := LoadScenario("../../testdata/scenarios/consumer_shared_script.yaml")
	require.NoError(t, err)

	assert.Equal(t, "consumer_shared_script", s.Name)
	assert.Equal(t, KindConsumer, s.Kind)
	assert.True(t, s.SharedScript)
	assert.Equal(t, []string{"limited(2)", "would_block", "limited(1)"}, s.Steps)
	require.Len(t, s.Actions, 11)
	assert.Equal(t, Action{Op: OpAccept, Item: "c", Expect: OutcomeViolation, Error: "GRANT_EXCEEDED"}, s.Actions[3])
	require.Len(t, s.Assertions, 4)
	assert.Equal(t, []string{"ready:ready", "accept:violation", "ready:pending", "wake:woke", "ready:ready"}, s.Assertions[0].Sequence)
}

func TestLoadScenario_PerOperationSteps(t *testing.T) {
	s, err := LoadScenario("../../testdata/scenarios/consumer_per_operation.yaml")
	require.NoError(t, err)

	assert.False(t, s.SharedScript)
	assert.Equal(t, []string{"would_block", "err(disk_full)"}, s.FlushSteps)
	assert.Equal(t, []string{"limited(1)"}, s.CloseSteps)
}

func TestLoadScenario_Producer(t *testing.T) {
	s, err := LoadScenario("../../testdata/scenarios/producer_fatal.yaml")
	require.NoError(t, err)

	assert.Equal(t, KindProducer, s.Kind)
	assert.True(t, s.FatalErrors)
	assert.Equal(t, []string{"x", "y", "z"}, s.Data)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario("does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "malformed yaml",
			yaml:    "name: [unclosed",
			wantErr: "failed to parse YAML",
		},
		{
			name: "unknown field",
			yaml: `name: x
description: d
kind: consumer
flow_token: abc
actions: [{op: ready}]`,
			wantErr: "flow_token",
		},
		{
			name: "missing name",
			yaml: `description: d
kind: consumer
actions: [{op: ready}]`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			yaml: `name: x
kind: consumer
actions: [{op: ready}]`,
			wantErr: "description is required",
		},
		{
			name: "missing kind",
			yaml: `name: x
description: d
actions: [{op: ready}]`,
			wantErr: "kind is required",
		},
		{
			name: "unknown kind",
			yaml: `name: x
description: d
kind: pipe
actions: [{op: ready}]`,
			wantErr: `unknown kind "pipe"`,
		},
		{
			name: "unknown policy",
			yaml: `name: x
description: d
kind: consumer
policy: sometimes
actions: [{op: ready}]`,
			wantErr: `unknown policy "sometimes"`,
		},
		{
			name: "bad step",
			yaml: `name: x
description: d
kind: consumer
steps: [limited(two)]
actions: [{op: ready}]`,
			wantErr: "steps[0]",
		},
		{
			name: "bad flush step",
			yaml: `name: x
description: d
kind: consumer
flush_steps: [maybe]
actions: [{op: ready}]`,
			wantErr: "flush_steps[0]",
		},
		{
			name: "bad close step",
			yaml: `name: x
description: d
kind: consumer
close_steps: [unlimited, maybe]
actions: [{op: ready}]`,
			wantErr: "close_steps[1]",
		},
		{
			name: "no actions",
			yaml: `name: x
description: d
kind: consumer`,
			wantErr: "actions list is required",
		},
		{
			name: "producer op on consumer",
			yaml: `name: x
description: d
kind: consumer
actions: [{op: next}]`,
			wantErr: `op "next" is not valid here`,
		},
		{
			name: "consumer op on producer",
			yaml: `name: x
description: d
kind: producer
actions: [{op: accept, item: a}]`,
			wantErr: `op "accept" is not valid here`,
		},
		{
			name: "accept without item",
			yaml: `name: x
description: d
kind: consumer
actions: [{op: accept}]`,
			wantErr: "item is required for accept",
		},
		{
			name: "unknown expect",
			yaml: `name: x
description: d
kind: consumer
actions: [{op: ready, expect: maybe}]`,
			wantErr: `unknown expect "maybe"`,
		},
		{
			name: "steps on non set_steps action",
			yaml: `name: x
description: d
kind: consumer
actions: [{op: ready, steps: [unlimited]}]`,
			wantErr: "steps is only valid for set_steps",
		},
		{
			name: "fatal errors on consumer",
			yaml: `name: x
description: d
kind: consumer
fatal_errors: true
actions: [{op: ready}]`,
			wantErr: "fatal_errors applies to producer",
		},
		{
			name: "data on consumer",
			yaml: `name: x
description: d
kind: consumer
data: [a]
actions: [{op: ready}]`,
			wantErr: "data applies to producer",
		},
		{
			name: "shared script on producer",
			yaml: `name: x
description: d
kind: producer
shared_script: true
actions: [{op: next}]`,
			wantErr: "apply to consumer scenarios only",
		},
		{
			name: "unknown assertion",
			yaml: `name: x
description: d
kind: consumer
actions: [{op: ready}]
assertions: [{type: final_table}]`,
			wantErr: `unknown assertion type "final_table"`,
		},
		{
			name: "trace_order without sequence",
			yaml: `name: x
description: d
kind: consumer
actions: [{op: ready}]
assertions: [{type: trace_order}]`,
			wantErr: "sequence is required",
		},
		{
			name: "final_state without state",
			yaml: `name: x
description: d
kind: consumer
actions: [{op: ready}]
assertions: [{type: final_state}]`,
			wantErr: "state is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(`name: minimal
description: one readiness check
kind: consumer
actions:
  - op: ready
`))
	require.NoError(t, err)

	assert.Empty(t, s.Steps)
	assert.Nil(t, s.FlushSteps)
	assert.Nil(t, s.CloseSteps)
	assert.Equal(t, "", s.Policy)
}

func TestLoadScenario_FromFile(t *testing.T) {
	path := writeScenario(t, `name: set_steps
description: replace the script mid-run
kind: producer
data: [x]
actions:
  - op: set_steps
    steps: [limited(1)]
  - op: next
    expect: ready
assertions:
  - type: trace_count
    op: next
    count: 1
`)

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"limited(1)"}, s.Actions[0].Steps)
	assert.Equal(t, 1, s.Assertions[0].Count)
}
