// Package poll defines the non-blocking push/pull contract shared by every
// scripted test double in this module.
//
// A Consumer accepts items under a readiness protocol: PollReady must report
// Ready before Accept is called, PollFlush drives buffered items out, and
// PollClose finalizes the consumer. A Producer yields items one at a time
// through PollNext.
//
// Every call returns immediately. "Not ready yet" is represented by the
// Pending status and never by blocking the caller:
//
//	st, err := c.PollReady()
//	switch {
//	case err != nil:
//	    // failed
//	case st == poll.Pending:
//	    // come back later
//	default:
//	    err = c.Accept(item)
//	}
//
// # Errors
//
// Failures are classified by type so callers can decide whether to retry:
//
//   - ScriptedError: a failure injected by a script step
//   - InnerError: a failure passed through from a wrapped resource
//   - ProtocolError: misuse of the protocol (matches ErrProtocolViolation)
//
// # Reference resources
//
// Collector and Slice are minimal in-memory implementations of the two
// contracts, intended to be wrapped by the scripted harnesses in
// pkg/testsink and pkg/teststream.
package poll
