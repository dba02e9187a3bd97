package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/stepwise/internal/report"
)

// RunWithGolden executes a scenario and compares the outline of the stored
// tree against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass; the outline is compared
// even when assertions failed.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result.TestCase)
	return result, nil
}

// AssertGolden compares the outline of tc against the golden file
// testdata/golden/{name}.golden.
func AssertGolden(t *testing.T, name string, tc *report.TestResult) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(tc.Outline()))
}
