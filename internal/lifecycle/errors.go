package lifecycle

import "errors"

var (
	// ErrNoTestCase is returned when an operation needs a running test case.
	ErrNoTestCase = errors.New("no test case is running")

	// ErrNoStep is returned when an operation needs an open step but the
	// cursor is at the test case.
	ErrNoStep = errors.New("no step is running")

	// ErrUnknownID is returned when a test case or step ID is not known to
	// the lifecycle, or a step to stop is not open.
	ErrUnknownID = errors.New("unknown id")

	// ErrTestCaseRunning is returned when starting a test case while another
	// one is running on the same lifecycle.
	ErrTestCaseRunning = errors.New("a test case is already running")
)

// IsMissingContext reports whether err means the caller acted outside an
// active test case or step.
func IsMissingContext(err error) bool {
	return errors.Is(err, ErrNoTestCase) || errors.Is(err, ErrNoStep)
}
