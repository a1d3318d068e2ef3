package script

import "github.com/roach88/pollscript/pkg/poll"

// Wake records that a not-ready outcome was returned. While parked, the
// owning harness keeps answering Pending; only Release, called by the test
// driver, lets the next poll change the outcome. Nothing fires on its own.
type Wake struct {
	parked *Script
	op     poll.Op
}

// Park marks the blocking step at the cursor of s as pending.
func (w *Wake) Park(s *Script, op poll.Op) {
	w.parked = s
	w.op = op
}

// Pending reports whether a not-ready outcome awaits an explicit wake.
func (w *Wake) Pending() bool {
	return w.parked != nil
}

// ParkedOn reports whether the token is parked on s.
func (w *Wake) ParkedOn(s *Script) bool {
	return w.parked != nil && w.parked == s
}

// Op returns the operation that parked the token.
func (w *Wake) Op() poll.Op {
	return w.op
}

// Release consumes the blocking step that parked the token and clears it.
// It returns false if nothing was parked.
func (w *Wake) Release() bool {
	if w.parked == nil {
		return false
	}
	w.parked.Advance()
	w.parked = nil
	w.op = ""
	return true
}

// Clear drops the token without touching the script.
func (w *Wake) Clear() {
	w.parked = nil
	w.op = ""
}
