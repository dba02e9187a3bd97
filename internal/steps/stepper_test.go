package steps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stepwise/internal/lifecycle"
	"github.com/roach88/stepwise/internal/report"
	"github.com/roach88/stepwise/internal/testutil"
)

// newTestStepper starts a test case on a fresh lifecycle with sequential
// IDs and a deterministic clock. The test case ID is "id-1".
func newTestStepper(t *testing.T, opts ...Option) (*Stepper, *lifecycle.Lifecycle, string) {
	t.Helper()
	l := lifecycle.New(
		lifecycle.WithIDGenerator(testutil.NewSequentialIDGenerator("id")),
		lifecycle.WithClock(testutil.NewDeterministicClock()),
	)
	id, err := l.Begin("test")
	require.NoError(t, err)
	return New(l, opts...), l, id
}

func snapshot(t *testing.T, l *lifecycle.Lifecycle, id string) *report.TestResult {
	t.Helper()
	tc, ok := l.Snapshot(id)
	require.True(t, ok)
	return tc
}

func cursor(t *testing.T, l *lifecycle.Lifecycle) string {
	t.Helper()
	id, err := l.CurrentTestCaseOrStep()
	require.NoError(t, err)
	return id
}

func assertState(t *testing.T, s *report.StepResult, status report.Status, stage report.Stage) {
	t.Helper()
	require.NotNil(t, s)
	assert.Equal(t, status, s.Status, "status of %q", s.Name)
	assert.Equal(t, stage, s.Stage, "stage of %q", s.Name)
}

// closeCurrent stops the cursor step the way a test body would, with an
// explicit final status.
func closeCurrent(t *testing.T, l *lifecycle.Lifecycle, status report.Status) {
	t.Helper()
	id := cursor(t, l)
	require.NoError(t, l.UpdateStep(func(s *report.StepResult) {
		s.Status = status
		s.Stage = report.StageFinished
	}))
	require.NoError(t, l.StopStep(id))
}

func TestStep_FirstStepNestsUnderTestCase(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("send request", P("url", "/users")))

	tc := snapshot(t, l, tcID)
	require.Len(t, tc.Steps, 1)
	step := tc.Steps[0]
	assert.Equal(t, "send request", step.Name)
	assert.Equal(t, "id-2", step.ID)
	assert.Equal(t, []report.Parameter{{Name: "url", Value: "/users"}}, step.Parameters)
	assertState(t, step, report.StatusFailed, report.StageRunning)
	assert.Equal(t, step.ID, cursor(t, l))
}

func TestStep_FailOpen(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("Step 1. Login"))
	require.NoError(t, s.Step("check form"))
	require.NoError(t, s.Step("preparation user"))

	tc := snapshot(t, l, tcID)
	tc.Walk(func(step *report.StepResult, _ int) bool {
		assertState(t, step, report.StatusFailed, report.StageRunning)
		return true
	})
	assert.Equal(t, 3, countSteps(tc))
}

func TestStep_DuplicateParams(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("x", P("a", 1), P("b", 2), P("a", 3)))

	step := snapshot(t, l, tcID).Steps[0]
	assert.Equal(t, []report.Parameter{
		{Name: "a", Value: "3"},
		{Name: "b", Value: "2"},
	}, step.Parameters)
}

func TestStep_LastIsNoOpWhenAChildFailed(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("Step 1"))
	require.NoError(t, s.Step("check parent"))
	require.NoError(t, s.Step("check ok"))
	closeCurrent(t, l, report.StatusPassed)
	require.NoError(t, s.Step("check bad"))
	closeCurrent(t, l, report.StatusFailed)

	parent := snapshot(t, l, tcID).StepByPath("Step 1", "check parent")
	before := cursor(t, l)
	require.Equal(t, parent.ID, before)

	require.NoError(t, s.Step("last"))

	assert.Equal(t, before, cursor(t, l))
	tc := snapshot(t, l, tcID)
	assertState(t, tc.StepByPath("Step 1"), report.StatusFailed, report.StageRunning)
	assertState(t, parent, report.StatusFailed, report.StageRunning)
	assertState(t, parent.Child("check ok"), report.StatusPassed, report.StageFinished)
	assertState(t, parent.Child("check bad"), report.StatusFailed, report.StageFinished)
}

func TestStep_LastClosesChainWhenAllChildrenPassed(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("Step 1"))
	require.NoError(t, s.Step("check parent"))
	require.NoError(t, s.Step("check a"))
	closeCurrent(t, l, report.StatusPassed)
	require.NoError(t, s.Step("check b"))
	closeCurrent(t, l, report.StatusPassed)

	require.NoError(t, s.Step("last"))

	assert.Equal(t, tcID, cursor(t, l))
	tc := snapshot(t, l, tcID)
	top := tc.StepByPath("Step 1")
	parent := tc.StepByPath("Step 1", "check parent")
	assertState(t, top, report.StatusPassed, report.StageFinished)
	assertState(t, parent, report.StatusPassed, report.StageFinished)
	assert.True(t, parent.Stop.Before(top.Stop), "inner step closes first")
}

func TestStep_LastWithoutOpenStep(t *testing.T) {
	s, _, _ := newTestStepper(t)

	err := s.Step("last")
	require.Error(t, err)
	assert.ErrorIs(t, err, lifecycle.ErrNoStep)
}

func TestStep_TopLevelReplacement(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("Step 1"))
	require.NoError(t, s.Step("open page"))
	require.NoError(t, s.Step("check title"))
	require.NoError(t, s.Step("Step 2"))

	tc := snapshot(t, l, tcID)
	require.Len(t, tc.Steps, 2)
	assertState(t, tc.StepByPath("Step 1"), report.StatusPassed, report.StageFinished)
	assertState(t, tc.StepByPath("Step 1", "open page"), report.StatusPassed, report.StageFinished)
	assertState(t, tc.StepByPath("Step 1", "open page", "check title"), report.StatusPassed, report.StageFinished)

	second := tc.Steps[1]
	assert.Equal(t, "Step 2", second.Name)
	assertState(t, second, report.StatusFailed, report.StageRunning)
	assert.Equal(t, second.ID, cursor(t, l))
}

func TestStep_PreparationCountsAsTopLevel(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("Preparation data"))
	require.NoError(t, s.Step("Step 1"))

	tc := snapshot(t, l, tcID)
	require.Len(t, tc.Steps, 2)
	assertState(t, tc.Steps[0], report.StatusPassed, report.StageFinished)
	assert.Equal(t, tc.Steps[1].ID, cursor(t, l))
}

func TestStep_TopLevelWithoutRunningMarkerDoesNotUnwind(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("open page"))
	require.NoError(t, s.Step("Step 1"))

	tc := snapshot(t, l, tcID)
	require.Len(t, tc.Steps, 2)
	assertState(t, tc.Steps[0], report.StatusFailed, report.StageRunning)
	assert.Equal(t, "Step 1", tc.Steps[1].Name)
}

func TestStep_SubStepChainingWithoutTopLevel(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("x"))
	require.NoError(t, s.Step("y"))
	require.NoError(t, s.Step("z"))

	tc := snapshot(t, l, tcID)
	require.Len(t, tc.Steps, 3)
	assertState(t, tc.Steps[0], report.StatusPassed, report.StageFinished)
	assertState(t, tc.Steps[1], report.StatusPassed, report.StageFinished)
	assertState(t, tc.Steps[2], report.StatusFailed, report.StageRunning)
	assert.Equal(t, tc.Steps[2].ID, cursor(t, l))
}

func TestStep_SubStepChainingUnderTopLevel(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("Step 1"))
	require.NoError(t, s.Step("x"))
	require.NoError(t, s.Step("y"))

	tc := snapshot(t, l, tcID)
	require.Len(t, tc.Steps, 1)
	top := tc.Steps[0]
	require.Len(t, top.Steps, 2)
	assertState(t, top, report.StatusFailed, report.StageRunning)
	assertState(t, top.Child("x"), report.StatusPassed, report.StageFinished)
	assertState(t, top.Child("y"), report.StatusFailed, report.StageRunning)
}

func TestStep_DefaultNestsUnderStepMarkedName(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("run Step 1"))
	require.NoError(t, s.Step("y"))

	tc := snapshot(t, l, tcID)
	require.Len(t, tc.Steps, 1)
	assert.NotNil(t, tc.StepByPath("run Step 1", "y"))
}

func TestStep_ReadsCursorEveryCall(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("Step 1"))
	require.NoError(t, s.Step("check a"))
	closeCurrent(t, l, report.StatusPassed)
	closeCurrent(t, l, report.StatusPassed)

	require.NoError(t, s.Step("y"))

	tc := snapshot(t, l, tcID)
	require.Len(t, tc.Steps, 2, "y starts under the test case once everything was closed elsewhere")
	assert.Equal(t, "y", tc.Steps[1].Name)
}

func TestStep_NoTestCase(t *testing.T) {
	s := New(lifecycle.New())

	err := s.Step("Step 1")
	assert.ErrorIs(t, err, lifecycle.ErrNoTestCase)
	assert.True(t, lifecycle.IsMissingContext(err))
}

func TestStep_RussianVocabulary(t *testing.T) {
	s, l, tcID := newTestStepper(t, WithVocabulary(Russian))

	require.NoError(t, s.Step("Шаг 1. Авторизация"))
	require.NoError(t, s.Step("Проверка формы"))
	require.NoError(t, s.Step("Шаг 2. Выход"))

	tc := snapshot(t, l, tcID)
	require.Len(t, tc.Steps, 2)
	assertState(t, tc.StepByPath("Шаг 1. Авторизация", "Проверка формы"), report.StatusPassed, report.StageFinished)
}

func TestAddParam(t *testing.T) {
	s, l, tcID := newTestStepper(t)

	require.NoError(t, s.Step("x", P("a", 1)))
	require.NoError(t, s.AddParam(P("b", 2), P("b", 3)))

	assert.Equal(t, []report.Parameter{
		{Name: "a", Value: "1"},
		{Name: "b", Value: "3"},
	}, snapshot(t, l, tcID).Steps[0].Parameters)
}

func TestAddParam_NoStep(t *testing.T) {
	s, _, _ := newTestStepper(t)
	assert.ErrorIs(t, s.AddParam(P("a", 1)), lifecycle.ErrNoStep)
}

func TestIsStepAlreadyRun(t *testing.T) {
	s, _, _ := newTestStepper(t)

	running, err := s.IsStepAlreadyRun()
	require.NoError(t, err)
	assert.False(t, running)

	require.NoError(t, s.Step("Step 1"))
	running, err = s.IsStepAlreadyRun()
	require.NoError(t, err)
	assert.True(t, running)
}

func TestIsSubStepAlreadyRun(t *testing.T) {
	s, _, _ := newTestStepper(t)

	_, err := s.IsSubStepAlreadyRun()
	assert.ErrorIs(t, err, lifecycle.ErrNoStep)

	require.NoError(t, s.Step("Step 1"))
	sub, err := s.IsSubStepAlreadyRun()
	require.NoError(t, err)
	assert.False(t, sub)

	require.NoError(t, s.Step("check a"))
	sub, err = s.IsSubStepAlreadyRun()
	require.NoError(t, err)
	assert.True(t, sub)
}

func TestCurrentStepNames(t *testing.T) {
	s, _, _ := newTestStepper(t)

	_, err := s.CurrentStepName()
	assert.ErrorIs(t, err, ErrNoTopLevelStep)
	_, err = s.CurrentSubStepName()
	assert.ErrorIs(t, err, lifecycle.ErrNoStep)

	require.NoError(t, s.Step("Step 1"))
	require.NoError(t, s.Step("check a"))

	name, err := s.CurrentStepName()
	require.NoError(t, err)
	assert.Equal(t, "Step 1", name)

	name, err = s.CurrentSubStepName()
	require.NoError(t, err)
	assert.Equal(t, "check a", name)
}

func countSteps(tc *report.TestResult) int {
	n := 0
	tc.Walk(func(*report.StepResult, int) bool {
		n++
		return true
	})
	return n
}
