// Package harness runs scripted step scenarios end to end.
//
// A scenario drives the Stepper through a fresh lifecycle backed by an
// in-memory store, then asserts on the tree read back from that store.
// IDs and timestamps are deterministic, so outlines can be compared with
// golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: replace_top_level
//	description: "A new Step closes the previous chain"
//	vocabulary: en
//	ops:
//	  - step: { name: "Step 1. Open", params: { url: /login } }
//	  - step: { name: "check title" }
//	  - fail: true
//	  - step: { name: "Step 2. Submit" }
//	  - step: { name: last }
//	assertions:
//	  - type: step_status
//	    path: ["Step 1. Open"]
//	    status: passed
//	    stage: finished
//	  - type: step_count
//	    count: 2
//
// Each op has exactly one of: step, param, fail, pass, attach, diff,
// rename, initialize, stop. The test case is stopped and written after the
// last op unless a stop op already did. An op may declare expect_error
// (no_test_case, no_step, no_tms_key or any) when it must fail.
//
// Record runs the ops of a scenario on a caller-built lifecycle instead,
// with real IDs and clock, and skips the assertions.
//
// # Assertions
//
//   - step_status: status and/or stage of the step at path
//   - step_count: number of children at path (top level when empty)
//   - step_params: parameters of the step at path, in order
//   - attachment_json: gjson path into a JSON attachment
//   - attachment_contains: substring of an attachment body
//   - test_case: name, status or stage of the test case
//   - link: the test case links to url
package harness
