// Package store provides SQLite-backed storage for finished test cases.
//
// A Store is the writer end of the reporting lifecycle: once a test case is
// stopped, its whole step tree is written in one transaction. Written test
// cases are immutable; writing the same ID again is a no-op.
//
// # Layout
//
//   - test_cases: one row per test case, seq records write order
//   - steps: flattened tree, parent_id NULL at the top level
//   - parameters, labels, links: ordered by position
//   - attachments: on a step, or on the test case when step_id is NULL
//
// Reads rebuild the tree with siblings in their original order.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
