package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stepwise/internal/steps"
)

// Scenario is a scripted test execution: a sequence of step operations
// against a fresh lifecycle, followed by assertions on the stored tree.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Vocabulary selects the classification words: "en" (default) or "ru".
	Vocabulary string `yaml:"vocabulary,omitempty"`

	// TestCase is the name the test case starts with. Defaults to Name.
	TestCase string `yaml:"test_case,omitempty"`

	// IDPrefix prefixes the sequential IDs. Defaults to "id".
	IDPrefix string `yaml:"id_prefix,omitempty"`

	// TMSPattern enables the initialize op.
	TMSPattern string `yaml:"tms_pattern,omitempty"`

	// Ops run in order through the Stepper.
	Ops []Op `yaml:"ops"`

	// Assertions validate the stored test case.
	Assertions []Assertion `yaml:"assertions"`
}

// Op is one operation. Exactly one of the operation fields is set.
type Op struct {
	// Step records a step.
	Step *StepOp `yaml:"step,omitempty"`

	// Param adds parameters to the current step.
	Param Params `yaml:"param,omitempty"`

	// Fail closes the current step as failed, the way a failing check
	// inside a test body would.
	Fail bool `yaml:"fail,omitempty"`

	// Pass closes the current step as passed.
	Pass bool `yaml:"pass,omitempty"`

	// Attach attaches a value at the cursor.
	Attach *AttachOp `yaml:"attach,omitempty"`

	// Diff attaches an HTML diff at the cursor.
	Diff *DiffOp `yaml:"diff,omitempty"`

	// Rename sets the test case name.
	Rename string `yaml:"rename,omitempty"`

	// Initialize normalizes the test name and adds its tms link.
	Initialize bool `yaml:"initialize,omitempty"`

	// Stop stops the test case and writes it to the store.
	Stop bool `yaml:"stop,omitempty"`

	// ExpectError names the error the op must fail with:
	// no_test_case, no_step, no_tms_key, or any for any error.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// StepOp is the argument of a step op.
type StepOp struct {
	Name   string `yaml:"name"`
	Params Params `yaml:"params,omitempty"`
}

// AttachOp is the argument of an attach op.
type AttachOp struct {
	Name  string `yaml:"name"`
	Value any    `yaml:"value"`
	Type  string `yaml:"type,omitempty"`
}

// DiffOp is the argument of a diff op. A missing side is nil.
type DiffOp struct {
	Expected any `yaml:"expected"`
	Actual   any `yaml:"actual"`
}

// Params is a YAML mapping decoded in document order. Repeated keys are
// kept so the step's own merge rule applies to them.
type Params []steps.Param

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: params must be a mapping", node.Line)
	}
	out := make(Params, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("line %d: param %q: %w", node.Content[i].Line, node.Content[i].Value, err)
		}
		out = append(out, steps.P(node.Content[i].Value, value))
	}
	*p = out
	return nil
}

func (o Op) kind() (string, int) {
	set := 0
	name := ""
	mark := func(ok bool, n string) {
		if ok {
			set++
			name = n
		}
	}
	mark(o.Step != nil, "step")
	mark(o.Param != nil, "param")
	mark(o.Fail, "fail")
	mark(o.Pass, "pass")
	mark(o.Attach != nil, "attach")
	mark(o.Diff != nil, "diff")
	mark(o.Rename != "", "rename")
	mark(o.Initialize, "initialize")
	mark(o.Stop, "stop")
	return name, set
}

// Assertion validates the stored test case.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Path is a chain of step names from the top level
	// (step_status, step_count, step_params). An empty path in
	// step_count means the top level.
	Path []string `yaml:"path,omitempty"`

	// Status and Stage are the expected state (step_status, test_case).
	Status string `yaml:"status,omitempty"`
	Stage  string `yaml:"stage,omitempty"`

	// Count is the expected number of children (step_count).
	Count int `yaml:"count,omitempty"`

	// Params are the expected parameters in order (step_params).
	Params Params `yaml:"params,omitempty"`

	// Name is the attachment name (attachment_*) or the expected test
	// case name (test_case).
	Name string `yaml:"name,omitempty"`

	// JSONPath is a gjson path into the attachment (attachment_json).
	JSONPath string `yaml:"json_path,omitempty"`

	// Expect is the expected value at JSONPath (attachment_json).
	Expect string `yaml:"expect,omitempty"`

	// Text must occur in the attachment (attachment_contains).
	Text string `yaml:"text,omitempty"`

	// URL is the expected link target (link).
	URL string `yaml:"url,omitempty"`
}

// Assertion type constants.
const (
	AssertStepStatus         = "step_status"
	AssertStepCount          = "step_count"
	AssertStepParams         = "step_params"
	AssertAttachmentJSON     = "attachment_json"
	AssertAttachmentContains = "attachment_contains"
	AssertTestCase           = "test_case"
	AssertLink               = "link"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, err := steps.VocabularyByName(s.Vocabulary); err != nil {
		return err
	}

	if len(s.Ops) == 0 {
		return fmt.Errorf("ops list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, op := range s.Ops {
		if err := validateOp(i, op); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateOp(index int, op Op) error {
	name, set := op.kind()
	switch {
	case set == 0:
		return fmt.Errorf("ops[%d]: no operation given", index)
	case set > 1:
		return fmt.Errorf("ops[%d]: exactly one operation allowed, got %d", index, set)
	}

	switch name {
	case "step":
		if op.Step.Name == "" {
			return fmt.Errorf("ops[%d]: step name is required", index)
		}
	case "attach":
		if op.Attach.Name == "" {
			return fmt.Errorf("ops[%d]: attach name is required", index)
		}
		if _, err := steps.ParseType(op.Attach.Type); err != nil {
			return fmt.Errorf("ops[%d]: %w", index, err)
		}
	}

	switch op.ExpectError {
	case "", errAny, errNoTestCase, errNoStep, errNoTMSKey:
	default:
		return fmt.Errorf("ops[%d]: unknown expect_error %q", index, op.ExpectError)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertStepStatus:
		if len(a.Path) == 0 {
			return fmt.Errorf("assertions[%d]: path is required for step_status", index)
		}
		if a.Status == "" && a.Stage == "" {
			return fmt.Errorf("assertions[%d]: status or stage is required for step_status", index)
		}
	case AssertStepCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for step_count", index)
		}
	case AssertStepParams:
		if len(a.Path) == 0 {
			return fmt.Errorf("assertions[%d]: path is required for step_params", index)
		}
	case AssertAttachmentJSON:
		if a.Name == "" || a.JSONPath == "" {
			return fmt.Errorf("assertions[%d]: name and json_path are required for attachment_json", index)
		}
	case AssertAttachmentContains:
		if a.Name == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: name and text are required for attachment_contains", index)
		}
	case AssertTestCase:
		if a.Name == "" && a.Status == "" && a.Stage == "" {
			return fmt.Errorf("assertions[%d]: name, status or stage is required for test_case", index)
		}
	case AssertLink:
		if a.URL == "" {
			return fmt.Errorf("assertions[%d]: url is required for link", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
