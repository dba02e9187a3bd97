package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/stepwise/internal/report"
)

// ErrNotFound is returned when no test case with the requested ID exists.
var ErrNotFound = errors.New("test case not found")

// Summary is one row of ListTestCases.
type Summary struct {
	ID     string
	Name   string
	Status report.Status
	Stage  report.Stage
	Steps  int
	Start  time.Time
	Stop   time.Time
}

// ListTestCases returns every stored test case in write order.
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListTestCases(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.status, t.stage, t.start_ns, t.stop_ns,
		       (SELECT COUNT(*) FROM steps st WHERE st.test_case_id = t.id)
		FROM test_cases t
		ORDER BY t.seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query test cases: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			sum           Summary
			status, stage string
			start, stop   sql.NullInt64
		)
		if err := rows.Scan(&sum.ID, &sum.Name, &status, &stage, &start, &stop, &sum.Steps); err != nil {
			return nil, fmt.Errorf("scan test case: %w", err)
		}
		sum.Status = report.Status(status)
		sum.Stage = report.Stage(stage)
		sum.Start = fromNanos(start)
		sum.Stop = fromNanos(stop)
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test cases: %w", err)
	}
	return out, nil
}

// ReadTestCase rebuilds the stored tree of test case id.
// Returns ErrNotFound if it was never written.
func (s *Store) ReadTestCase(ctx context.Context, id string) (*report.TestResult, error) {
	var (
		status, stage string
		start, stop   sql.NullInt64
	)
	tc := report.NewTestResult(id, "")
	err := s.db.QueryRowContext(ctx, `
		SELECT name, full_name, status, stage, start_ns, stop_ns
		FROM test_cases
		WHERE id = ?
	`, id).Scan(&tc.Name, &tc.FullName, &status, &stage, &start, &stop)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read test case %s: %w", id, err)
	}
	tc.Status = report.Status(status)
	tc.Stage = report.Stage(stage)
	tc.Start = fromNanos(start)
	tc.Stop = fromNanos(stop)

	if tc.Labels, err = s.readLabels(ctx, id); err != nil {
		return nil, err
	}
	if tc.Links, err = s.readLinks(ctx, id); err != nil {
		return nil, err
	}

	steps, err := s.readSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.readParameters(ctx, id, steps.byID); err != nil {
		return nil, err
	}
	if err := s.readAttachments(ctx, tc, steps.byID); err != nil {
		return nil, err
	}
	tc.Steps = steps.roots

	return tc, nil
}

type stepIndex struct {
	roots []*report.StepResult
	byID  map[string]*report.StepResult
}

func (s *Store) readSteps(ctx context.Context, testCase string) (stepIndex, error) {
	// Rows are indexed before linking, so group order is irrelevant;
	// siblings arrive in position order.
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, parent_id, name, status, stage, start_ns, stop_ns
		FROM steps
		WHERE test_case_id = ?
		ORDER BY parent_id ASC, position ASC
	`, testCase)
	if err != nil {
		return stepIndex{}, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	type row struct {
		step   *report.StepResult
		parent sql.NullString
	}
	var all []row
	idx := stepIndex{
		roots: []*report.StepResult{},
		byID:  map[string]*report.StepResult{},
	}

	for rows.Next() {
		var (
			r             row
			status, stage string
			start, stop   sql.NullInt64
		)
		st := report.NewStep("", nil)
		if err := rows.Scan(&st.ID, &r.parent, &st.Name, &status, &stage, &start, &stop); err != nil {
			return stepIndex{}, fmt.Errorf("scan step: %w", err)
		}
		st.Status = report.Status(status)
		st.Stage = report.Stage(stage)
		st.Start = fromNanos(start)
		st.Stop = fromNanos(stop)
		r.step = st
		all = append(all, r)
		idx.byID[st.ID] = st
	}
	if err := rows.Err(); err != nil {
		return stepIndex{}, fmt.Errorf("iterate steps: %w", err)
	}

	for _, r := range all {
		if !r.parent.Valid {
			idx.roots = append(idx.roots, r.step)
			continue
		}
		parent, ok := idx.byID[r.parent.String]
		if !ok {
			return stepIndex{}, fmt.Errorf("step %s: parent %s missing", r.step.ID, r.parent.String)
		}
		parent.Steps = append(parent.Steps, r.step)
	}
	return idx, nil
}

func (s *Store) readParameters(ctx context.Context, testCase string, steps map[string]*report.StepResult) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step_id, name, value
		FROM parameters
		WHERE test_case_id = ?
		ORDER BY step_id ASC, position ASC
	`, testCase)
	if err != nil {
		return fmt.Errorf("query parameters: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var stepID string
		var p report.Parameter
		if err := rows.Scan(&stepID, &p.Name, &p.Value); err != nil {
			return fmt.Errorf("scan parameter: %w", err)
		}
		st, ok := steps[stepID]
		if !ok {
			return fmt.Errorf("parameter %q: step %s missing", p.Name, stepID)
		}
		st.Parameters = append(st.Parameters, p)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate parameters: %w", err)
	}
	return nil
}

func (s *Store) readAttachments(ctx context.Context, tc *report.TestResult, steps map[string]*report.StepResult) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, step_id, name, mime_type, extension, content
		FROM attachments
		WHERE test_case_id = ?
		ORDER BY step_id ASC, position ASC
	`, tc.ID)
	if err != nil {
		return fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a    report.Attachment
			step sql.NullString
		)
		if err := rows.Scan(&a.ID, &step, &a.Name, &a.MimeType, &a.Extension, &a.Content); err != nil {
			return fmt.Errorf("scan attachment: %w", err)
		}
		if !step.Valid {
			tc.Attachments = append(tc.Attachments, a)
			continue
		}
		st, ok := steps[step.String]
		if !ok {
			return fmt.Errorf("attachment %q: step %s missing", a.Name, step.String)
		}
		st.Attachments = append(st.Attachments, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate attachments: %w", err)
	}
	return nil
}

func (s *Store) readLabels(ctx context.Context, testCase string) ([]report.Label, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, value FROM labels
		WHERE test_case_id = ?
		ORDER BY position ASC
	`, testCase)
	if err != nil {
		return nil, fmt.Errorf("query labels: %w", err)
	}
	defer rows.Close()

	labels := []report.Label{}
	for rows.Next() {
		var l report.Label
		if err := rows.Scan(&l.Name, &l.Value); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		labels = append(labels, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate labels: %w", err)
	}
	return labels, nil
}

func (s *Store) readLinks(ctx context.Context, testCase string) ([]report.Link, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, url, type FROM links
		WHERE test_case_id = ?
		ORDER BY position ASC
	`, testCase)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	links := []report.Link{}
	for rows.Next() {
		var l report.Link
		if err := rows.Scan(&l.Name, &l.URL, &l.Type); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}
