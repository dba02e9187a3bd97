// Package lifecycle is the reporting backend the step engine drives.
//
// A Lifecycle owns the result trees of the test cases it runs and a cursor:
// the innermost open step, or the test case itself when no step is open.
// Callers never keep their own copy of the tree or the cursor; they query
// it (CurrentTestCase, CurrentTestCaseOrStep) and mutate it through
// StartStep, UpdateStep, StopStep and AddAttachment.
//
// # Isolation
//
// Use one Lifecycle per concurrently running test (goroutine). Lifecycles
// can share a Writer: finished test cases are handed to it on WriteTestCase
// and the writer partitions storage by test case ID.
//
// # Missing context
//
// Every operation that needs an active test case or step fails with
// ErrNoTestCase or ErrNoStep instead of silently doing nothing.
package lifecycle
