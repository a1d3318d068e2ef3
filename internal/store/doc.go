// Package store persists scenario runs and their traces in SQLite.
//
// Tables:
//   - runs: one row per scenario execution (pass/fail, errors)
//   - events: the ordered trace of each run
//
// Ordering uses the logical seq of each event and the insertion order of
// runs, never wall-clock time, so reading a run back yields exactly the
// trace that was recorded.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
