package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/pollscript/pkg/script"
)

// Scenario kinds.
const (
	KindConsumer = "consumer"
	KindProducer = "producer"
)

// Action ops.
const (
	OpReady    = "ready"
	OpAccept   = "accept"
	OpFlush    = "flush"
	OpClose    = "close"
	OpNext     = "next"
	OpWake     = "wake"
	OpSetSteps = "set_steps"
	OpRelease  = "release"
)

// Action outcomes, as recorded in the trace and matched by expect.
const (
	OutcomeReady     = "ready"
	OutcomePending   = "pending"
	OutcomeEnd       = "end"
	OutcomeError     = "error"
	OutcomeViolation = "violation"
	OutcomeOK        = "ok"
	OutcomeWoke      = "woke"
	OutcomeIdle      = "idle"
)

var (
	consumerOps = []string{OpReady, OpAccept, OpFlush, OpClose, OpWake, OpSetSteps, OpRelease}
	producerOps = []string{OpNext, OpWake, OpSetSteps, OpRelease}
	outcomes    = []string{
		OutcomeReady, OutcomePending, OutcomeEnd, OutcomeError,
		OutcomeViolation, OutcomeOK, OutcomeWoke, OutcomeIdle,
	}
)

// Scenario drives one scripted harness through a list of actions and
// checks the resulting trace.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Kind selects the harness: "consumer" or "producer".
	Kind string `yaml:"kind"`

	// Policy is the script exhaustion policy. Empty means delegate.
	Policy string `yaml:"policy,omitempty"`

	// SharedScript makes flush and close consume the send script
	// (consumer only).
	SharedScript bool `yaml:"shared_script,omitempty"`

	// FatalErrors makes Err steps terminal (producer only).
	FatalErrors bool `yaml:"fatal_errors,omitempty"`

	// Steps is the main script in text form, e.g. "limited(2)".
	Steps []string `yaml:"steps"`

	// FlushSteps and CloseSteps script flush and close in per-operation
	// mode. Absent means the operation delegates.
	FlushSteps []string `yaml:"flush_steps,omitempty"`
	CloseSteps []string `yaml:"close_steps,omitempty"`

	// Data is the producer's data sequence.
	Data []string `yaml:"data,omitempty"`

	// Actions are executed in order; each one adds a trace event.
	Actions []Action `yaml:"actions"`

	// Assertions are evaluated against the finished trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Action is one driver call.
type Action struct {
	// Op is the call to make.
	Op string `yaml:"op"`

	// Item is the value offered by accept.
	Item string `yaml:"item,omitempty"`

	// Expect is the outcome the call must produce. Empty skips the check.
	Expect string `yaml:"expect,omitempty"`

	// Error, if set, must be a substring of the returned error.
	Error string `yaml:"error,omitempty"`

	// Steps replaces the main script (set_steps only).
	Steps []string `yaml:"steps,omitempty"`
}

// Assertion validates the trace or the final harness state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event with op (and outcome/item if given) exists
	// - "trace_order": events matching sequence appear in order
	// - "trace_count": exactly count events match op (and outcome)
	// - "final_items": the items that reached the consumer, or were pulled
	// - "final_state": the harness lifecycle state at the end
	Type string `yaml:"type"`

	Op      string `yaml:"op,omitempty"`
	Outcome string `yaml:"outcome,omitempty"`
	Item    string `yaml:"item,omitempty"`
	Count   int    `yaml:"count,omitempty"`

	// Sequence entries are "op" or "op:outcome".
	Sequence []string `yaml:"sequence,omitempty"`

	Items []string `yaml:"items,omitempty"`
	State string   `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalItems    = "final_items"
	AssertFinalState    = "final_state"
)

// LoadScenario reads, parses and validates a scenario YAML file. Unknown
// fields are rejected, the scenario is checked structurally and then
// against the CUE schema.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	if err := ValidateSchema(data); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	var ops []string
	switch s.Kind {
	case KindConsumer:
		ops = consumerOps
		if s.FatalErrors {
			return fmt.Errorf("fatal_errors applies to producer scenarios only")
		}
		if len(s.Data) > 0 {
			return fmt.Errorf("data applies to producer scenarios only")
		}
	case KindProducer:
		ops = producerOps
		if s.SharedScript || s.FlushSteps != nil || s.CloseSteps != nil {
			return fmt.Errorf("shared_script, flush_steps and close_steps apply to consumer scenarios only")
		}
	case "":
		return fmt.Errorf("kind is required")
	default:
		return fmt.Errorf("unknown kind %q (want consumer or producer)", s.Kind)
	}

	if _, err := script.ParsePolicy(s.Policy); err != nil {
		return err
	}
	if _, err := script.ParseSteps(s.Steps); err != nil {
		return err
	}
	if _, err := script.ParseStepField("flush_steps", s.FlushSteps); err != nil {
		return err
	}
	if _, err := script.ParseStepField("close_steps", s.CloseSteps); err != nil {
		return err
	}

	if len(s.Actions) == 0 {
		return fmt.Errorf("actions list is required and must be non-empty")
	}
	for i, a := range s.Actions {
		if err := validateAction(i, ops, &a); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateAction(index int, ops []string, a *Action) error {
	if a.Op == "" {
		return fmt.Errorf("actions[%d]: op is required", index)
	}
	if !slices.Contains(ops, a.Op) {
		return fmt.Errorf("actions[%d]: op %q is not valid here (want one of %v)", index, a.Op, ops)
	}
	if a.Op == OpAccept && a.Item == "" {
		return fmt.Errorf("actions[%d]: item is required for accept", index)
	}
	if a.Expect != "" && !slices.Contains(outcomes, a.Expect) {
		return fmt.Errorf("actions[%d]: unknown expect %q", index, a.Expect)
	}
	if a.Op == OpSetSteps {
		if _, err := script.ParseSteps(a.Steps); err != nil {
			return fmt.Errorf("actions[%d]: %w", index, err)
		}
	} else if len(a.Steps) > 0 {
		return fmt.Errorf("actions[%d]: steps is only valid for set_steps", index)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Sequence) == 0 {
			return fmt.Errorf("assertions[%d]: sequence is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Op == "" {
			return fmt.Errorf("assertions[%d]: op is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalItems:
		// An empty list asserts that nothing was delivered.
	case AssertFinalState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
