// Package report defines the result model recorded by the reporting backend.
//
// This package contains type definitions and tree helpers only. All other
// internal packages import report; report imports nothing internal.
//
// Key invariants:
//   - Steps are created fail-open: Stage=running, Status=failed (see NewStep)
//   - Only the step engine promotes a step to passed
//   - Parameter order is significant and preserved end to end
//   - All JSON tags use snake_case
package report
