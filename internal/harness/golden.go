package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/pollscript/internal/canon"
)

// TraceSnapshot is the golden-file form of a run.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Kind         string       `json:"kind"`
	Trace        []TraceEvent `json:"trace"`
	Items        []string     `json:"items"`
	State        string       `json:"state"`
}

// toCanonicalMap converts the snapshot into values canon.Marshal accepts.
// Empty item and error fields are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":     ev.Seq,
			"op":      ev.Op,
			"outcome": ev.Outcome,
		}
		if ev.Item != "" {
			m["item"] = ev.Item
		}
		if ev.Error != "" {
			m["error"] = ev.Error
		}
		trace[i] = m
	}

	items := s.Items
	if items == nil {
		items = []string{}
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"kind":          s.Kind,
		"trace":         trace,
		"items":         items,
		"state":         s.State,
	}
}

// Snapshot returns the canonical JSON golden form of result.
func Snapshot(result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		ScenarioName: result.Scenario,
		Kind:         result.Kind,
		Trace:        result.Trace,
		Items:        result.Items,
		State:        result.State,
	}
	return canon.Marshal(snap.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...RunOption) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against the named golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
