package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/stepwise/internal/report"
)

// WriteTestCase stores tc and its whole step tree in one transaction.
// It implements lifecycle.Writer.
//
// Uses ON CONFLICT(id) DO NOTHING for idempotency: a test case that was
// already written is left untouched and nil is returned.
func (s *Store) WriteTestCase(ctx context.Context, tc *report.TestResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write test case %s: begin: %w", tc.ID, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO test_cases (id, name, full_name, status, stage, start_ns, stop_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		tc.ID,
		tc.Name,
		tc.FullName,
		string(tc.Status),
		string(tc.Stage),
		nanos(tc.Start),
		nanos(tc.Stop),
	)
	if err != nil {
		return fmt.Errorf("write test case %s: %w", tc.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write test case %s: %w", tc.ID, err)
	}
	if n == 0 {
		return nil
	}

	w := &treeWriter{ctx: ctx, tx: tx, testCase: tc.ID}
	if err := w.labels(tc.Labels); err != nil {
		return err
	}
	if err := w.links(tc.Links); err != nil {
		return err
	}
	if err := w.attachments(nil, tc.Attachments); err != nil {
		return err
	}
	if err := w.steps(nil, tc.Steps); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write test case %s: commit: %w", tc.ID, err)
	}
	return nil
}

// treeWriter writes the children of one test case inside a transaction.
type treeWriter struct {
	ctx      context.Context
	tx       *sql.Tx
	testCase string
}

func (w *treeWriter) steps(parent *string, steps []*report.StepResult) error {
	for pos, st := range steps {
		_, err := w.tx.ExecContext(w.ctx, `
			INSERT INTO steps
			(test_case_id, id, parent_id, position, name, status, stage, start_ns, stop_ns)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			w.testCase,
			st.ID,
			parent,
			pos,
			st.Name,
			string(st.Status),
			string(st.Stage),
			nanos(st.Start),
			nanos(st.Stop),
		)
		if err != nil {
			return fmt.Errorf("write step %s: %w", st.ID, err)
		}

		for i, p := range st.Parameters {
			if _, err := w.tx.ExecContext(w.ctx, `
				INSERT INTO parameters (test_case_id, step_id, position, name, value)
				VALUES (?, ?, ?, ?, ?)
			`, w.testCase, st.ID, i, p.Name, p.Value); err != nil {
				return fmt.Errorf("write parameter %q of step %s: %w", p.Name, st.ID, err)
			}
		}

		id := st.ID
		if err := w.attachments(&id, st.Attachments); err != nil {
			return err
		}
		if err := w.steps(&id, st.Steps); err != nil {
			return err
		}
	}
	return nil
}

func (w *treeWriter) attachments(step *string, atts []report.Attachment) error {
	for pos, a := range atts {
		content := a.Content
		if content == nil {
			content = []byte{}
		}
		if _, err := w.tx.ExecContext(w.ctx, `
			INSERT INTO attachments
			(test_case_id, id, step_id, position, name, mime_type, extension, content)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, w.testCase, a.ID, step, pos, a.Name, a.MimeType, a.Extension, content); err != nil {
			return fmt.Errorf("write attachment %q: %w", a.Name, err)
		}
	}
	return nil
}

func (w *treeWriter) labels(labels []report.Label) error {
	for pos, l := range labels {
		if _, err := w.tx.ExecContext(w.ctx, `
			INSERT INTO labels (test_case_id, position, name, value)
			VALUES (?, ?, ?, ?)
		`, w.testCase, pos, l.Name, l.Value); err != nil {
			return fmt.Errorf("write label %q: %w", l.Name, err)
		}
	}
	return nil
}

func (w *treeWriter) links(links []report.Link) error {
	for pos, l := range links {
		if _, err := w.tx.ExecContext(w.ctx, `
			INSERT INTO links (test_case_id, position, name, url, type)
			VALUES (?, ?, ?, ?, ?)
		`, w.testCase, pos, l.Name, l.URL, l.Type); err != nil {
			return fmt.Errorf("write link %q: %w", l.URL, err)
		}
	}
	return nil
}

// nanos maps the zero time to NULL.
func nanos(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func fromNanos(n sql.NullInt64) time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(0, n.Int64).UTC()
}
