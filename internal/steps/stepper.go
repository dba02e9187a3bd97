package steps

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/stepwise/internal/htmldiff"
	"github.com/roach88/stepwise/internal/jsoncodec"
	"github.com/roach88/stepwise/internal/report"
)

// ErrNoTopLevelStep is returned when the running test case has no steps yet.
var ErrNoTopLevelStep = errors.New("test case has no steps")

// Backend is the reporting lifecycle the Stepper drives. It owns the tree
// and the cursor; the Stepper only reads and mutates through it.
//
// *lifecycle.Lifecycle implements Backend.
type Backend interface {
	// CurrentTestCase returns the running test case ID.
	CurrentTestCase() (string, error)
	// CurrentTestCaseOrStep returns the innermost open step ID, or the
	// test case ID when no step is open.
	CurrentTestCaseOrStep() (string, error)
	// GenerateID returns a fresh unique ID.
	GenerateID() string
	// StartStep appends step to parentID's children and opens it.
	StartStep(parentID, id string, step *report.StepResult) error
	// UpdateStep mutates the innermost open step. It fails if no step is
	// open.
	UpdateStep(fn func(*report.StepResult)) error
	// UpdateTestCase mutates the running test case.
	UpdateTestCase(fn func(*report.TestResult)) error
	// StopStep closes the step and moves the cursor below it.
	StopStep(id string) error
	// AddAttachment attaches content at the cursor.
	AddAttachment(name, mimeType string, content []byte, ext string) error
}

// Stepper turns a flat sequence of step names into a step tree.
type Stepper struct {
	backend Backend
	vocab   Vocabulary
	codec   *jsoncodec.Codec
	diff    *htmldiff.Renderer
	tms     TMS
	logger  *slog.Logger
}

// Option configures a Stepper.
type Option func(*Stepper)

// WithVocabulary sets the classification words.
func WithVocabulary(v Vocabulary) Option {
	return func(s *Stepper) {
		s.vocab = v
	}
}

// WithCodec sets the codec attachments are serialized with.
func WithCodec(c *jsoncodec.Codec) Option {
	return func(s *Stepper) {
		s.codec = c
	}
}

// WithDiffRenderer sets the renderer used by AttachDiff. Without it a
// renderer is built from the codec and the vocabulary's diff label.
func WithDiffRenderer(r *htmldiff.Renderer) Option {
	return func(s *Stepper) {
		s.diff = r
	}
}

// WithTMS sets the test management key prefix and link pattern.
func WithTMS(t TMS) Option {
	return func(s *Stepper) {
		s.tms = t
	}
}

// WithLogger sets the logger. Decisions are logged at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stepper) {
		s.logger = logger
	}
}

// New creates a Stepper bound to backend.
func New(backend Backend, opts ...Option) *Stepper {
	s := &Stepper{
		backend: backend,
		vocab:   English,
		tms:     TMS{Prefix: DefaultTMSPrefix},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if s.codec == nil {
		s.codec = jsoncodec.New()
	}
	if s.diff == nil {
		s.diff = htmldiff.New(s.codec, htmldiff.WithLabel(s.vocab.DiffLabel))
	}
	return s
}

// Vocabulary returns the classification words in use.
func (s *Stepper) Vocabulary() Vocabulary {
	return s.vocab
}

// Step records a step named name with params.
func (s *Stepper) Step(name string, params ...Param) error {
	return s.StepWith(name, NewParams(params...))
}

// StepWith records a step named name. Where the step lands depends on
// Classify(name) and the open steps; see the package documentation.
func (s *Stepper) StepWith(name string, params *Params) error {
	testCase, err := s.backend.CurrentTestCase()
	if err != nil {
		return fmt.Errorf("step %q: %w", name, err)
	}

	kind := s.vocab.Classify(name)
	s.logger.Debug("step requested", "name", name, "kind", kind.String())

	switch kind {
	case CloseIfAllPassed:
		err = s.closeIfAllPassed(testCase)
	case ReplaceTopLevel:
		err = s.replaceTopLevel(testCase, name, params)
	case NestUnconditional:
		err = s.nestUnconditional(name, params)
	default:
		err = s.nestOrReplaceOne(testCase, name, params)
	}
	if err != nil {
		return fmt.Errorf("step %q: %w", name, err)
	}
	return nil
}

func (s *Stepper) closeIfAllPassed(testCase string) error {
	allPassed := false
	if err := s.backend.UpdateStep(func(st *report.StepResult) {
		allPassed = st.AllChildrenPassed()
	}); err != nil {
		return err
	}
	if !allPassed {
		s.logger.Debug("steps left open, a child did not pass")
		return nil
	}
	return s.unwind(testCase)
}

func (s *Stepper) replaceTopLevel(testCase, name string, params *Params) error {
	running, err := s.IsStepAlreadyRun()
	if err != nil {
		return err
	}
	if running {
		if err := s.unwind(testCase); err != nil {
			return err
		}
	}
	return s.start(testCase, name, params)
}

func (s *Stepper) nestUnconditional(name string, params *Params) error {
	cursor, err := s.backend.CurrentTestCaseOrStep()
	if err != nil {
		return err
	}
	return s.start(cursor, name, params)
}

func (s *Stepper) nestOrReplaceOne(testCase, name string, params *Params) error {
	cursor, err := s.backend.CurrentTestCaseOrStep()
	if err != nil {
		return err
	}

	if cursor != testCase {
		sub, err := s.IsSubStepAlreadyRun()
		if err != nil {
			return err
		}
		if sub {
			if err := s.pass(cursor); err != nil {
				return err
			}
			if cursor, err = s.backend.CurrentTestCaseOrStep(); err != nil {
				return err
			}
		}
	}

	return s.start(cursor, name, params)
}

// unwind passes and stops open steps innermost first until the cursor is
// back at the test case.
func (s *Stepper) unwind(testCase string) error {
	prev := ""
	for {
		cursor, err := s.backend.CurrentTestCaseOrStep()
		if err != nil {
			return err
		}
		if cursor == testCase {
			return nil
		}
		if cursor == prev {
			return fmt.Errorf("cursor stuck at step %s after stop", cursor)
		}
		if err := s.pass(cursor); err != nil {
			return err
		}
		prev = cursor
	}
}

// pass marks the current step passed and finished, then stops it.
func (s *Stepper) pass(id string) error {
	if err := s.backend.UpdateStep(func(st *report.StepResult) {
		st.Status = report.StatusPassed
		st.Stage = report.StageFinished
	}); err != nil {
		return err
	}
	if err := s.backend.StopStep(id); err != nil {
		return err
	}
	s.logger.Debug("step passed", "step", id)
	return nil
}

func (s *Stepper) start(parent, name string, params *Params) error {
	id := s.backend.GenerateID()
	return s.backend.StartStep(parent, id, report.NewStep(name, params.Parameters()))
}

// AddParam appends params to the current step, after any it already has.
func (s *Stepper) AddParam(params ...Param) error {
	extra := NewParams(params...).Parameters()
	if err := s.backend.UpdateStep(func(st *report.StepResult) {
		st.Parameters = append(st.Parameters, extra...)
	}); err != nil {
		return fmt.Errorf("add param: %w", err)
	}
	return nil
}

// IsStepAlreadyRun reports whether the last top-level step is running and
// carries the step or preparation marker.
func (s *Stepper) IsStepAlreadyRun() (bool, error) {
	running := false
	err := s.backend.UpdateTestCase(func(tc *report.TestResult) {
		last := tc.LastStep()
		if last == nil || last.Stage != report.StageRunning {
			return
		}
		running = s.vocab.IsStepName(last.Name) || s.vocab.IsPreparationName(last.Name)
	})
	if err != nil {
		return false, err
	}
	return running, nil
}

// IsSubStepAlreadyRun reports whether the current step lacks the step
// marker, i.e. is a sub-step. It fails when no step is open.
func (s *Stepper) IsSubStepAlreadyRun() (bool, error) {
	sub := false
	if err := s.backend.UpdateStep(func(st *report.StepResult) {
		sub = !s.vocab.IsStepName(st.Name)
	}); err != nil {
		return false, err
	}
	return sub, nil
}

// CurrentStepName returns the name of the last top-level step.
func (s *Stepper) CurrentStepName() (string, error) {
	name := ""
	found := false
	if err := s.backend.UpdateTestCase(func(tc *report.TestResult) {
		if last := tc.LastStep(); last != nil {
			name, found = last.Name, true
		}
	}); err != nil {
		return "", err
	}
	if !found {
		return "", ErrNoTopLevelStep
	}
	return name, nil
}

// CurrentSubStepName returns the name of the innermost open step.
func (s *Stepper) CurrentSubStepName() (string, error) {
	name := ""
	if err := s.backend.UpdateStep(func(st *report.StepResult) {
		name = st.Name
	}); err != nil {
		return "", err
	}
	return name, nil
}
