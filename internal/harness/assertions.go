package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/stepwise/internal/jsoncodec"
	"github.com/roach88/stepwise/internal/report"
	"github.com/roach88/stepwise/internal/steps"
)

// AssertionError is returned when an assertion fails.
// It includes the stored tree to help debug the failure.
type AssertionError struct {
	Type     string             // Assertion type for categorization
	Expected string             // Human-readable expected outcome
	Actual   string             // Human-readable actual outcome
	TestCase *report.TestResult // Full tree for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.TestCase != nil {
		fmt.Fprintf(&buf, "\nTest case:\n")
		_ = e.TestCase.WriteOutline(&buf)
	}

	return buf.String()
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Codec *jsoncodec.Codec
}

func pathString(path []string) string {
	return strings.Join(path, " > ")
}

// assertStepStatus checks the status and stage of the step at a path.
func assertStepStatus(tc *report.TestResult, a Assertion) error {
	st := tc.StepByPath(a.Path...)
	if st == nil {
		return &AssertionError{
			Type:     AssertStepStatus,
			Expected: fmt.Sprintf("step %s", pathString(a.Path)),
			Actual:   "not found",
			TestCase: tc,
		}
	}

	if (a.Status != "" && string(st.Status) != a.Status) || (a.Stage != "" && string(st.Stage) != a.Stage) {
		return &AssertionError{
			Type:     AssertStepStatus,
			Expected: fmt.Sprintf("%s is %s/%s", pathString(a.Path), orAny(a.Status), orAny(a.Stage)),
			Actual:   fmt.Sprintf("%s/%s", st.Status, st.Stage),
			TestCase: tc,
		}
	}
	return nil
}

func orAny(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

// assertStepCount checks the number of direct children at a path.
// An empty path counts top-level steps.
func assertStepCount(tc *report.TestResult, a Assertion) error {
	children := tc.Steps
	where := "top level"
	if len(a.Path) > 0 {
		st := tc.StepByPath(a.Path...)
		if st == nil {
			return &AssertionError{
				Type:     AssertStepCount,
				Expected: fmt.Sprintf("step %s", pathString(a.Path)),
				Actual:   "not found",
				TestCase: tc,
			}
		}
		children = st.Steps
		where = pathString(a.Path)
	}

	if len(children) != a.Count {
		return &AssertionError{
			Type:     AssertStepCount,
			Expected: fmt.Sprintf("%d steps under %s", a.Count, where),
			Actual:   fmt.Sprintf("%d steps", len(children)),
			TestCase: tc,
		}
	}
	return nil
}

// assertStepParams checks a step's parameters, in order, after the same
// merge and stringification steps apply.
func assertStepParams(tc *report.TestResult, a Assertion) error {
	st := tc.StepByPath(a.Path...)
	if st == nil {
		return &AssertionError{
			Type:     AssertStepParams,
			Expected: fmt.Sprintf("step %s", pathString(a.Path)),
			Actual:   "not found",
			TestCase: tc,
		}
	}

	want := steps.NewParams(a.Params...).Parameters()
	if !paramsEqual(want, st.Parameters) {
		return &AssertionError{
			Type:     AssertStepParams,
			Expected: formatParams(want),
			Actual:   formatParams(st.Parameters),
			TestCase: tc,
		}
	}
	return nil
}

func paramsEqual(a, b []report.Parameter) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatParams(params []report.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + "=" + p.Value
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// findAttachment returns the first attachment named name, searching the
// test case and then its steps depth-first.
func findAttachment(tc *report.TestResult, name string) (report.Attachment, bool) {
	for _, att := range tc.Attachments {
		if att.Name == name {
			return att, true
		}
	}
	var found report.Attachment
	ok := false
	tc.Walk(func(s *report.StepResult, _ int) bool {
		for _, att := range s.Attachments {
			if att.Name == name {
				found, ok = att, true
				return false
			}
		}
		return true
	})
	return found, ok
}

// assertAttachmentJSON reads a gjson path from a JSON attachment.
func assertAttachmentJSON(tc *report.TestResult, codec *jsoncodec.Codec, a Assertion) error {
	att, ok := findAttachment(tc, a.Name)
	if !ok {
		return &AssertionError{
			Type:     AssertAttachmentJSON,
			Expected: fmt.Sprintf("attachment %q", a.Name),
			Actual:   "not found",
			TestCase: tc,
		}
	}

	got, exists := codec.Get(att.Content, a.JSONPath)
	if !exists || got != a.Expect {
		actual := "path not found"
		if exists {
			actual = fmt.Sprintf("%q", got)
		}
		return &AssertionError{
			Type:     AssertAttachmentJSON,
			Expected: fmt.Sprintf("%s at %s in %q", a.Expect, a.JSONPath, a.Name),
			Actual:   actual,
			TestCase: tc,
		}
	}
	return nil
}

// assertAttachmentContains checks for a substring in an attachment body.
func assertAttachmentContains(tc *report.TestResult, a Assertion) error {
	att, ok := findAttachment(tc, a.Name)
	if !ok {
		return &AssertionError{
			Type:     AssertAttachmentContains,
			Expected: fmt.Sprintf("attachment %q", a.Name),
			Actual:   "not found",
			TestCase: tc,
		}
	}
	if !strings.Contains(string(att.Content), a.Text) {
		return &AssertionError{
			Type:     AssertAttachmentContains,
			Expected: fmt.Sprintf("%q contains %q", a.Name, a.Text),
			Actual:   string(att.Content),
			TestCase: tc,
		}
	}
	return nil
}

// assertTestCase checks the test case's name and state.
func assertTestCase(tc *report.TestResult, a Assertion) error {
	if (a.Name != "" && tc.Name != a.Name) ||
		(a.Status != "" && string(tc.Status) != a.Status) ||
		(a.Stage != "" && string(tc.Stage) != a.Stage) {
		return &AssertionError{
			Type:     AssertTestCase,
			Expected: fmt.Sprintf("%s [%s/%s]", orAny(a.Name), orAny(a.Status), orAny(a.Stage)),
			Actual:   fmt.Sprintf("%s [%s/%s]", tc.Name, tc.Status, tc.Stage),
			TestCase: tc,
		}
	}
	return nil
}

// assertLink checks that the test case links to URL.
func assertLink(tc *report.TestResult, a Assertion) error {
	for _, l := range tc.Links {
		if l.URL == a.URL {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertLink,
		Expected: fmt.Sprintf("link to %s", a.URL),
		Actual:   fmt.Sprintf("%d links", len(tc.Links)),
		TestCase: tc,
	}
}

// EvaluateAssertions runs all assertions against the stored test case.
// Returns the failure messages; empty means all passed.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	if result.TestCase == nil {
		return []string{"no test case to assert on"}
	}
	tc := result.TestCase

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertStepStatus:
			err = assertStepStatus(tc, assertion)
		case AssertStepCount:
			err = assertStepCount(tc, assertion)
		case AssertStepParams:
			err = assertStepParams(tc, assertion)
		case AssertAttachmentJSON:
			if actx == nil || actx.Codec == nil {
				err = fmt.Errorf("assertion[%d]: attachment_json requires a codec", i)
			} else {
				err = assertAttachmentJSON(tc, actx.Codec, assertion)
			}
		case AssertAttachmentContains:
			err = assertAttachmentContains(tc, assertion)
		case AssertTestCase:
			err = assertTestCase(tc, assertion)
		case AssertLink:
			err = assertLink(tc, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
