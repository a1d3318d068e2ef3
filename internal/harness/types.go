package harness

// TraceEvent records one driver call and what it produced.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Op      string `json:"op"`
	Item    string `json:"item,omitempty"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Scenario and Kind identify what was run.
	Scenario string `json:"scenario"`
	Kind     string `json:"kind"`

	// Trace contains one event per action, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expect and assertion failures.
	Errors []string `json:"errors,omitempty"`

	// Items are the items accepted by the wrapped consumer, or the items
	// pulled from the producer.
	Items []string `json:"items"`

	// State is the harness lifecycle state after the last action.
	State string `json:"state"`
}

// NewResult creates a passing result with no events.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Items:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends an event to the trace.
func (r *Result) AddEvent(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
