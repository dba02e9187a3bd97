package report

import "time"

// Status is the outcome of a test case or step.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusBroken  Status = "broken"
	StatusSkipped Status = "skipped"
)

// Stage is the lifecycle position of a test case or step.
type Stage string

const (
	StageScheduled Stage = "scheduled"
	StageRunning   Stage = "running"
	StageFinished  Stage = "finished"
)

// Parameter is a named, stringified step or test parameter.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Label is a name/value pair attached to a test case (owner, suite, tag, ...).
type Label struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Link references an external resource such as a test management case.
type Link struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"` // "tms", "issue", or empty
}

// Attachment is a blob attached to a step or test case.
type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MimeType  string `json:"mime_type"`
	Extension string `json:"extension"`
	Content   []byte `json:"content,omitempty"`
}

// StepResult is a single reportable unit of work.
// Steps nest: Steps holds the direct children in start order.
type StepResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Status      Status        `json:"status"`
	Stage       Stage         `json:"stage"`
	Parameters  []Parameter   `json:"parameters"`
	Steps       []*StepResult `json:"steps"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	Start       time.Time     `json:"start"`
	Stop        time.Time     `json:"stop,omitempty"`
}

// TestResult is the root of a step tree: one per test execution.
type TestResult struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	FullName    string        `json:"full_name,omitempty"`
	Status      Status        `json:"status"`
	Stage       Stage         `json:"stage"`
	Labels      []Label       `json:"labels"`
	Links       []Link        `json:"links"`
	Steps       []*StepResult `json:"steps"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	Start       time.Time     `json:"start"`
	Stop        time.Time     `json:"stop,omitempty"`
}

// NewStep creates a running step whose status defaults to failed.
// A step left open when the test ends is therefore reported as failed.
func NewStep(name string, params []Parameter) *StepResult {
	if params == nil {
		params = []Parameter{}
	}
	return &StepResult{
		Name:       name,
		Status:     StatusFailed,
		Stage:      StageRunning,
		Parameters: params,
		Steps:      []*StepResult{},
	}
}

// NewTestResult creates a scheduled test case with empty collections.
func NewTestResult(id, name string) *TestResult {
	return &TestResult{
		ID:     id,
		Name:   name,
		Stage:  StageScheduled,
		Labels: []Label{},
		Links:  []Link{},
		Steps:  []*StepResult{},
	}
}
