package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/stepwise/internal/report"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var base = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return base.Add(time.Duration(sec) * time.Second)
}

// createTestTree builds a finished test case:
//
//	Step 1 (passed)
//	  open page (passed, 1 param, 1 attachment)
//	  check title (passed)
//	Step 2 (failed, running)
//	  send request (failed, running, 2 params)
func createTestTree(id string) *report.TestResult {
	tc := report.NewTestResult(id, "FIND-T01: login")
	tc.FullName = "LoginTest.login"
	tc.Status = report.StatusFailed
	tc.Stage = report.StageFinished
	tc.Start = at(0)
	tc.Stop = at(20)
	tc.Labels = []report.Label{{Name: "suite", Value: "auth"}, {Name: "owner", Value: "qa"}}
	tc.Links = []report.Link{{Name: "FIND-T01", URL: "https://tms.example.com/FIND-T01", Type: "tms"}}
	tc.Attachments = []report.Attachment{{ID: id + "-a0", Name: "log", MimeType: "text/plain", Extension: ".json", Content: []byte("started")}}

	open := step(id+"-s2", "open page", report.StatusPassed, report.StageFinished, 2, 3)
	open.Parameters = []report.Parameter{{Name: "url", Value: "/login"}}
	open.Attachments = []report.Attachment{{ID: id + "-a1", Name: "actual", MimeType: "text/html", Extension: ".html", Content: []byte("<html></html>")}}
	check := step(id+"-s3", "check title", report.StatusPassed, report.StageFinished, 4, 5)

	first := step(id+"-s1", "Step 1", report.StatusPassed, report.StageFinished, 1, 6)
	first.Steps = []*report.StepResult{open, check}

	send := step(id+"-s5", "send request", report.StatusFailed, report.StageRunning, 8, 0)
	send.Parameters = []report.Parameter{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}}

	second := step(id+"-s4", "Step 2", report.StatusFailed, report.StageRunning, 7, 0)
	second.Steps = []*report.StepResult{send}

	tc.Steps = []*report.StepResult{first, second}
	return tc
}

func step(id, name string, status report.Status, stage report.Stage, start, stop int) *report.StepResult {
	s := report.NewStep(name, nil)
	s.ID = id
	s.Status = status
	s.Stage = stage
	s.Start = at(start)
	if stop > 0 {
		s.Stop = at(stop)
	}
	return s
}
