package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/stepwise/internal/report"
)

func TestWriteTestCase_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	want := createTestTree("tc1")

	if err := s.WriteTestCase(ctx, want); err != nil {
		t.Fatalf("WriteTestCase() failed: %v", err)
	}

	got, err := s.ReadTestCase(ctx, "tc1")
	if err != nil {
		t.Fatalf("ReadTestCase() failed: %v", err)
	}

	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteTestCase_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestTree("tc1")
	if err := s.WriteTestCase(ctx, first); err != nil {
		t.Fatalf("first WriteTestCase() failed: %v", err)
	}

	second := createTestTree("tc1")
	second.Name = "renamed"
	if err := s.WriteTestCase(ctx, second); err != nil {
		t.Fatalf("second WriteTestCase() failed: %v", err)
	}

	got, err := s.ReadTestCase(ctx, "tc1")
	if err != nil {
		t.Fatalf("ReadTestCase() failed: %v", err)
	}
	if got.Name != first.Name {
		t.Errorf("Name = %q, want first write %q", got.Name, first.Name)
	}

	var steps int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM steps WHERE test_case_id = 'tc1'").Scan(&steps); err != nil {
		t.Fatal(err)
	}
	if steps != 5 {
		t.Errorf("steps = %d, want 5", steps)
	}
}

func TestWriteTestCase_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tc := createTestTree("tc1")
	// Duplicate step ID violates the primary key halfway through the tree.
	tc.Steps[1].ID = tc.Steps[0].ID

	if err := s.WriteTestCase(ctx, tc); err == nil {
		t.Fatal("expected error for duplicate step id")
	}

	if _, err := s.ReadTestCase(ctx, "tc1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadTestCase() error = %v, want ErrNotFound after rollback", err)
	}
}

func TestWriteTestCase_OpenTimesAreNull(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tc := report.NewTestResult("tc1", "never started")
	if err := s.WriteTestCase(ctx, tc); err != nil {
		t.Fatalf("WriteTestCase() failed: %v", err)
	}

	var start, stop any
	if err := s.db.QueryRow("SELECT start_ns, stop_ns FROM test_cases WHERE id = 'tc1'").Scan(&start, &stop); err != nil {
		t.Fatal(err)
	}
	if start != nil || stop != nil {
		t.Errorf("start_ns, stop_ns = %v, %v, want NULL", start, stop)
	}

	got, err := s.ReadTestCase(ctx, "tc1")
	if err != nil {
		t.Fatalf("ReadTestCase() failed: %v", err)
	}
	if !got.Start.IsZero() || !got.Stop.IsZero() {
		t.Errorf("times = %v, %v, want zero", got.Start, got.Stop)
	}
}

func TestReadTestCase_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadTestCase(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadTestCase() error = %v, want ErrNotFound", err)
	}
}

func TestReadTestCase_SiblingOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	tc := report.NewTestResult("tc1", "order")
	// IDs sort opposite to insertion order.
	for _, id := range []string{"z", "m", "a"} {
		st := step(id, "step "+id, report.StatusPassed, report.StageFinished, 1, 2)
		tc.Steps = append(tc.Steps, st)
	}
	tc.Steps[0].Steps = []*report.StepResult{
		step("y", "child y", report.StatusPassed, report.StageFinished, 1, 2),
		step("b", "child b", report.StatusPassed, report.StageFinished, 1, 2),
	}

	if err := s.WriteTestCase(ctx, tc); err != nil {
		t.Fatalf("WriteTestCase() failed: %v", err)
	}
	got, err := s.ReadTestCase(ctx, "tc1")
	if err != nil {
		t.Fatalf("ReadTestCase() failed: %v", err)
	}

	var names []string
	got.Walk(func(st *report.StepResult, _ int) bool {
		names = append(names, st.Name)
		return true
	})
	want := []string{"step z", "child y", "child b", "step m", "step a"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestListTestCases(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListTestCases(ctx)
	if err != nil {
		t.Fatalf("ListTestCases() failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListTestCases() on empty store = %#v, want empty slice", empty)
	}

	for _, id := range []string{"tc-b", "tc-a"} {
		if err := s.WriteTestCase(ctx, createTestTree(id)); err != nil {
			t.Fatalf("WriteTestCase(%s) failed: %v", id, err)
		}
	}

	got, err := s.ListTestCases(ctx)
	if err != nil {
		t.Fatalf("ListTestCases() failed: %v", err)
	}

	want := []Summary{
		{ID: "tc-b", Name: "FIND-T01: login", Status: report.StatusFailed, Stage: report.StageFinished, Steps: 5, Start: at(0), Stop: at(20)},
		{ID: "tc-a", Name: "FIND-T01: login", Status: report.StatusFailed, Stage: report.StageFinished, Steps: 5, Start: at(0), Stop: at(20)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("summaries mismatch (-want +got):\n%s", diff)
	}
}
