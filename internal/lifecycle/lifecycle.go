package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/roach88/stepwise/internal/gen"
	"github.com/roach88/stepwise/internal/report"
)

// Writer persists finished test cases.
// Implemented by store.Store.
type Writer interface {
	WriteTestCase(ctx context.Context, tc *report.TestResult) error
}

// Clock stamps start and stop times.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Lifecycle holds running test cases, their step trees and the cursor.
//
// Thread-safety: all methods are safe for concurrent use, but a Lifecycle
// models a single execution context. Update callbacks run with the internal
// lock held and must not call back into the Lifecycle.
type Lifecycle struct {
	mu     sync.Mutex
	ids    gen.IDGenerator
	clock  Clock
	writer Writer
	logger *slog.Logger

	cases map[string]*report.TestResult
	steps map[string]*report.StepResult

	// cursor[0] is the running test case, the rest are open steps,
	// innermost last.
	cursor []string
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithIDGenerator sets the generator used for test case and attachment IDs.
// Default: gen.UUIDGenerator.
func WithIDGenerator(ids gen.IDGenerator) Option {
	return func(l *Lifecycle) {
		l.ids = ids
	}
}

// WithClock sets the clock used for start/stop stamps. Default: wall clock.
func WithClock(c Clock) Option {
	return func(l *Lifecycle) {
		l.clock = c
	}
}

// WithWriter sets where WriteTestCase sends finished test cases.
// Without a writer, WriteTestCase only releases the tree.
func WithWriter(w Writer) Option {
	return func(l *Lifecycle) {
		l.writer = w
	}
}

// WithLogger sets the structured logger. Default: discard.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Lifecycle) {
		l.logger = logger
	}
}

// New creates an empty Lifecycle.
func New(opts ...Option) *Lifecycle {
	l := &Lifecycle{
		ids:    gen.UUIDGenerator{},
		clock:  systemClock{},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		cases:  make(map[string]*report.TestResult),
		steps:  make(map[string]*report.StepResult),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// GenerateID returns a fresh identifier from the lifecycle's generator.
func (l *Lifecycle) GenerateID() string {
	return l.ids.Generate()
}

// ScheduleTestCase registers a test case without starting it.
func (l *Lifecycle) ScheduleTestCase(tc *report.TestResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if tc.ID == "" {
		tc.ID = l.ids.Generate()
	}
	if _, ok := l.cases[tc.ID]; ok {
		return fmt.Errorf("schedule test case %s: already scheduled", tc.ID)
	}
	tc.Stage = report.StageScheduled
	l.cases[tc.ID] = tc
	return nil
}

// StartTestCase marks a scheduled test case running and makes it the cursor.
func (l *Lifecycle) StartTestCase(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tc, ok := l.cases[id]
	if !ok {
		return fmt.Errorf("start test case: %w: %s", ErrUnknownID, id)
	}
	if len(l.cursor) > 0 {
		return fmt.Errorf("start test case %s: %w: %s", id, ErrTestCaseRunning, l.cursor[0])
	}

	tc.Stage = report.StageRunning
	tc.Start = l.clock.Now()
	l.cursor = []string{id}

	l.logger.Debug("test case started", "test_case", id, "name", tc.Name)
	return nil
}

// Begin schedules and starts a new test case, returning its ID.
func (l *Lifecycle) Begin(name string) (string, error) {
	tc := report.NewTestResult("", name)
	if err := l.ScheduleTestCase(tc); err != nil {
		return "", err
	}
	if err := l.StartTestCase(tc.ID); err != nil {
		return "", err
	}
	return tc.ID, nil
}

// StopTestCase finishes a test case. Open steps are left as they are, so
// they keep their fail-open status. If no status was set, the test case
// passes only when every top-level step passed.
func (l *Lifecycle) StopTestCase(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tc, ok := l.cases[id]
	if !ok {
		return fmt.Errorf("stop test case: %w: %s", ErrUnknownID, id)
	}

	tc.Stage = report.StageFinished
	tc.Stop = l.clock.Now()
	if tc.Status == "" {
		tc.Status = deriveStatus(tc)
	}
	if len(l.cursor) > 0 && l.cursor[0] == id {
		l.cursor = nil
	}

	l.logger.Debug("test case stopped", "test_case", id, "status", tc.Status)
	return nil
}

func deriveStatus(tc *report.TestResult) report.Status {
	for _, s := range tc.Steps {
		if s.Status != report.StatusPassed {
			return report.StatusFailed
		}
	}
	return report.StatusPassed
}

// WriteTestCase hands a test case to the writer and forgets it.
func (l *Lifecycle) WriteTestCase(ctx context.Context, id string) error {
	l.mu.Lock()
	tc, ok := l.cases[id]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("write test case: %w: %s", ErrUnknownID, id)
	}
	delete(l.cases, id)
	tc.Walk(func(s *report.StepResult, _ int) bool {
		delete(l.steps, s.ID)
		return true
	})
	if len(l.cursor) > 0 && l.cursor[0] == id {
		l.cursor = nil
	}
	l.mu.Unlock()

	if l.writer == nil {
		return nil
	}
	if err := l.writer.WriteTestCase(ctx, tc); err != nil {
		return fmt.Errorf("write test case %s: %w", id, err)
	}
	l.logger.Debug("test case written", "test_case", id)
	return nil
}

// CurrentTestCase returns the ID of the running test case.
func (l *Lifecycle) CurrentTestCase() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.cursor) == 0 {
		return "", ErrNoTestCase
	}
	return l.cursor[0], nil
}

// CurrentTestCaseOrStep returns the cursor: the innermost open step, or the
// test case when no step is open.
func (l *Lifecycle) CurrentTestCaseOrStep() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.cursor) == 0 {
		return "", ErrNoTestCase
	}
	return l.cursor[len(l.cursor)-1], nil
}

// StartStep adds step as the last child of parentID (a test case or a step)
// under the given id, and moves the cursor to it.
func (l *Lifecycle) StartStep(parentID, id string, step *report.StepResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.cursor) == 0 {
		return fmt.Errorf("start step %q: %w", step.Name, ErrNoTestCase)
	}
	if _, dup := l.steps[id]; dup {
		return fmt.Errorf("start step %q: id %s already used", step.Name, id)
	}

	step.ID = id
	step.Start = l.clock.Now()

	if tc, ok := l.cases[parentID]; ok {
		tc.Steps = append(tc.Steps, step)
	} else if parent, ok := l.steps[parentID]; ok {
		parent.Steps = append(parent.Steps, step)
	} else {
		return fmt.Errorf("start step %q: parent %w: %s", step.Name, ErrUnknownID, parentID)
	}

	l.steps[id] = step
	l.cursor = append(l.cursor, id)

	l.logger.Debug("step started", "test_case", l.cursor[0], "parent", parentID, "step", id, "name", step.Name)
	return nil
}

// UpdateStep applies fn to the innermost open step.
func (l *Lifecycle) UpdateStep(fn func(*report.StepResult)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	step, err := l.currentStep()
	if err != nil {
		return err
	}
	fn(step)
	return nil
}

// UpdateStepByID applies fn to a known step, open or not.
func (l *Lifecycle) UpdateStepByID(id string, fn func(*report.StepResult)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	step, ok := l.steps[id]
	if !ok {
		return fmt.Errorf("update step: %w: %s", ErrUnknownID, id)
	}
	fn(step)
	return nil
}

// UpdateTestCase applies fn to the running test case.
// It is also the read path for the test case tree.
func (l *Lifecycle) UpdateTestCase(fn func(*report.TestResult)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.cursor) == 0 {
		return ErrNoTestCase
	}
	fn(l.cases[l.cursor[0]])
	return nil
}

// StopStep stamps the step's stop time and takes it off the cursor, which
// moves to the entry below it (its parent when steps are stopped innermost
// first). Steps that were opened above it are dropped from the cursor but
// keep their running/failed state.
func (l *Lifecycle) StopStep(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.cursor) == 0 {
		return fmt.Errorf("stop step %s: %w", id, ErrNoTestCase)
	}
	idx := slices.Index(l.cursor, id)
	if idx < 1 {
		return fmt.Errorf("stop step: %w: %s is not an open step", ErrUnknownID, id)
	}

	l.steps[id].Stop = l.clock.Now()
	if dropped := len(l.cursor) - idx - 1; dropped > 0 {
		l.logger.Warn("stopping step below open steps",
			"step", id,
			"left_open", dropped,
		)
	}
	l.cursor = l.cursor[:idx]

	l.logger.Debug("step stopped", "test_case", l.cursor[0], "step", id, "cursor", l.cursor[len(l.cursor)-1])
	return nil
}

// AddAttachment attaches content to the cursor: the innermost open step or,
// if none is open, the test case.
func (l *Lifecycle) AddAttachment(name, mimeType string, content []byte, ext string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.cursor) == 0 {
		return fmt.Errorf("add attachment %q: %w", name, ErrNoTestCase)
	}

	att := report.Attachment{
		ID:        l.ids.Generate(),
		Name:      name,
		MimeType:  mimeType,
		Extension: ext,
		Content:   content,
	}

	if step, err := l.currentStep(); err == nil {
		step.Attachments = append(step.Attachments, att)
	} else {
		tc := l.cases[l.cursor[0]]
		tc.Attachments = append(tc.Attachments, att)
	}

	l.logger.Debug("attachment added", "test_case", l.cursor[0], "name", name, "mime_type", mimeType, "size", len(content))
	return nil
}

// Snapshot returns the tree of a test case the lifecycle still holds.
// The returned value is shared; callers must not mutate it.
func (l *Lifecycle) Snapshot(id string) (*report.TestResult, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tc, ok := l.cases[id]
	return tc, ok
}

// currentStep returns the innermost open step. Caller holds l.mu.
func (l *Lifecycle) currentStep() (*report.StepResult, error) {
	if len(l.cursor) == 0 {
		return nil, ErrNoTestCase
	}
	if len(l.cursor) == 1 {
		return nil, ErrNoStep
	}
	return l.steps[l.cursor[len(l.cursor)-1]], nil
}
