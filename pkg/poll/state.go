package poll

// State is the lifecycle state of a scripted harness.
//
//	Idle -> AwaitingWake      on a not-ready outcome
//	AwaitingWake -> Idle      only through an explicit Wake
//	Idle -> Errored | Failed  on an injected error (Failed in fatal mode)
//	Idle | Errored -> Exhausted  when the data sequence is empty
//	any -> Closed             on a completed close or Release
type State uint8

const (
	Idle State = iota
	AwaitingWake
	Errored
	Failed
	Exhausted
	Closed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingWake:
		return "awaiting_wake"
	case Errored:
		return "errored"
	case Failed:
		return "failed"
	case Exhausted:
		return "exhausted"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further progress is possible.
func (s State) Terminal() bool {
	return s == Failed || s == Exhausted || s == Closed
}
