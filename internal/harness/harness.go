package harness

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/stepwise/internal/htmldiff"
	"github.com/roach88/stepwise/internal/jsoncodec"
	"github.com/roach88/stepwise/internal/lifecycle"
	"github.com/roach88/stepwise/internal/logging"
	"github.com/roach88/stepwise/internal/report"
	"github.com/roach88/stepwise/internal/steps"
	"github.com/roach88/stepwise/internal/store"
	"github.com/roach88/stepwise/internal/testutil"
)

// Expected error names for Op.ExpectError.
const (
	errAny        = "any"
	errNoTestCase = "no_test_case"
	errNoStep     = "no_step"
	errNoTMSKey   = "no_tms_key"
)

// Harness executes the ops of one scenario.
type Harness struct {
	lifecycle *lifecycle.Lifecycle
	stepper   *steps.Stepper
	testCase  string
	stopped   bool
	logger    *slog.Logger
}

// Option configures Run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes lifecycle and stepper logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with sequential IDs and
// a deterministic clock, so the stored tree is identical across runs.
//
// Execution flow:
// 1. Create fresh in-memory database and lifecycle
// 2. Start the test case
// 3. Execute ops through the Stepper
// 4. Stop and write the test case (unless an op already did)
// 5. Read the tree back and evaluate assertions
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: logging.Discard()}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	vocab, err := steps.VocabularyByName(scenario.Vocabulary)
	if err != nil {
		return nil, err
	}

	lc := lifecycle.New(
		lifecycle.WithIDGenerator(testutil.NewSequentialIDGenerator(scenario.IDPrefix)),
		lifecycle.WithClock(testutil.NewDeterministicClock()),
		lifecycle.WithWriter(st),
		lifecycle.WithLogger(cfg.logger),
	)

	codec := jsoncodec.New(jsoncodec.WithLocation(time.UTC))
	stepper := steps.New(lc,
		steps.WithVocabulary(vocab),
		steps.WithCodec(codec),
		steps.WithDiffRenderer(htmldiff.New(codec, htmldiff.WithLabel(vocab.DiffLabel))),
		steps.WithTMS(steps.TMS{Prefix: steps.DefaultTMSPrefix, Pattern: scenario.TMSPattern}),
		steps.WithLogger(cfg.logger),
	)

	ctx := context.Background()
	tcID, result, err := Record(ctx, scenario, lc, stepper, cfg.logger)
	if err != nil {
		return nil, err
	}

	tc, err := st.ReadTestCase(ctx, tcID)
	if err != nil {
		return nil, fmt.Errorf("failed to read test case: %w", err)
	}
	result.TestCase = tc

	actx := &AssertionContext{Codec: codec}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// Record starts the scenario's test case on lc, executes its ops through
// stepper and stops the test case unless an op already did, which hands it
// to lc's writer. Assertions are not evaluated; expected errors that did
// not occur are recorded on the returned Result.
func Record(ctx context.Context, scenario *Scenario, lc *lifecycle.Lifecycle, stepper *steps.Stepper, logger *slog.Logger) (string, *Result, error) {
	name := scenario.TestCase
	if name == "" {
		name = scenario.Name
	}
	tcID, err := lc.Begin(name)
	if err != nil {
		return "", nil, fmt.Errorf("failed to start test case: %w", err)
	}

	h := &Harness{
		lifecycle: lc,
		stepper:   stepper,
		testCase:  tcID,
		logger:    logger,
	}

	result := NewResult()
	if err := h.executeOps(ctx, scenario.Ops, result); err != nil {
		return tcID, nil, fmt.Errorf("failed to execute ops: %w", err)
	}
	if !h.stopped {
		if err := h.stop(ctx); err != nil {
			return tcID, nil, err
		}
	}
	return tcID, result, nil
}

// executeOps runs every op in order. An op that fails without declaring
// expect_error aborts the run; an expected error that does not occur is
// recorded on result.
func (h *Harness) executeOps(ctx context.Context, ops []Op, result *Result) error {
	for i, op := range ops {
		err := h.execute(ctx, op)
		name, _ := op.kind()

		if op.ExpectError == "" {
			if err != nil {
				return fmt.Errorf("ops[%d] %s: %w", i, name, err)
			}
			h.logger.Debug("op completed", "op", i, "kind", name)
			continue
		}

		if !matchesExpected(err, op.ExpectError) {
			result.AddError(fmt.Sprintf("ops[%d] %s: expected error %s, got %v", i, name, op.ExpectError, err))
		}
	}
	return nil
}

func (h *Harness) execute(ctx context.Context, op Op) error {
	switch {
	case op.Step != nil:
		return h.stepper.Step(op.Step.Name, op.Step.Params...)
	case op.Param != nil:
		return h.stepper.AddParam(op.Param...)
	case op.Fail:
		return h.closeCurrent(report.StatusFailed)
	case op.Pass:
		return h.closeCurrent(report.StatusPassed)
	case op.Attach != nil:
		typ, err := steps.ParseType(op.Attach.Type)
		if err != nil {
			return err
		}
		return h.stepper.Attach(steps.Attachment{Name: op.Attach.Name, Value: op.Attach.Value, Type: typ})
	case op.Diff != nil:
		return h.stepper.AttachDiff(op.Diff.Expected, op.Diff.Actual)
	case op.Rename != "":
		return h.stepper.SetTestName(op.Rename)
	case op.Initialize:
		return h.stepper.InitializeTest()
	case op.Stop:
		return h.stop(ctx)
	}
	return errors.New("empty op")
}

// closeCurrent finishes the cursor step with status, as test code does
// when an assertion inside a step fails or succeeds.
func (h *Harness) closeCurrent(status report.Status) error {
	id, err := h.lifecycle.CurrentTestCaseOrStep()
	if err != nil {
		return err
	}
	if err := h.lifecycle.UpdateStep(func(s *report.StepResult) {
		s.Status = status
		s.Stage = report.StageFinished
	}); err != nil {
		return err
	}
	return h.lifecycle.StopStep(id)
}

func (h *Harness) stop(ctx context.Context) error {
	if err := h.lifecycle.StopTestCase(h.testCase); err != nil {
		return err
	}
	if err := h.lifecycle.WriteTestCase(ctx, h.testCase); err != nil {
		return err
	}
	h.stopped = true
	return nil
}

func matchesExpected(err error, name string) bool {
	if err == nil {
		return false
	}
	switch name {
	case errNoTestCase:
		return errors.Is(err, lifecycle.ErrNoTestCase)
	case errNoStep:
		return errors.Is(err, lifecycle.ErrNoStep)
	case errNoTMSKey:
		return errors.Is(err, steps.ErrNoTMSKey)
	default:
		return true
	}
}
