package steps

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/stepwise/internal/report"
)

// DefaultTMSPrefix marks the start of a test management key in a test name.
const DefaultTMSPrefix = "FIND-"

// LinkTypeTMS is the link type of test management links.
const LinkTypeTMS = "tms"

// ErrNoTMSKey is returned when a test name holds no test management key.
var ErrNoTMSKey = errors.New("test name has no tms key")

// TMS configures how test names map to test management links.
// A name like "suite FIND-T01: login" has the key "FIND-T01".
type TMS struct {
	Prefix  string
	Pattern string
}

// Key extracts the key from name: from the last Prefix up to the last ':'.
func (t TMS) Key(name string) (string, error) {
	start := strings.LastIndex(name, t.prefix())
	end := strings.LastIndex(name, ":")
	if start < 0 || end <= start {
		return "", fmt.Errorf("%w: %q", ErrNoTMSKey, name)
	}
	return name[start:end], nil
}

func (t TMS) prefix() string {
	if t.Prefix == "" {
		return DefaultTMSPrefix
	}
	return t.Prefix
}

// SetTestName renames the running test case.
func (s *Stepper) SetTestName(name string) error {
	if err := s.backend.UpdateTestCase(func(tc *report.TestResult) {
		tc.Name = name
	}); err != nil {
		return fmt.Errorf("set test name: %w", err)
	}
	return nil
}

// NormalizeTestName drops everything before the last key prefix in the test
// case name.
func (s *Stepper) NormalizeTestName() error {
	var cutErr error
	err := s.backend.UpdateTestCase(func(tc *report.TestResult) {
		i := strings.LastIndex(tc.Name, s.tms.prefix())
		if i < 0 {
			cutErr = fmt.Errorf("%w: %q", ErrNoTMSKey, tc.Name)
			return
		}
		tc.Name = tc.Name[i:]
	})
	if err == nil {
		err = cutErr
	}
	if err != nil {
		return fmt.Errorf("normalize test name: %w", err)
	}
	return nil
}

// SetTMSLink links the test case to its test management entry, unless an
// identical link is already present.
func (s *Stepper) SetTMSLink() error {
	if s.tms.Pattern == "" {
		return errors.New("set tms link: no link pattern configured")
	}

	var keyErr error
	err := s.backend.UpdateTestCase(func(tc *report.TestResult) {
		key, err := s.tms.Key(tc.Name)
		if err != nil {
			keyErr = err
			return
		}
		url := s.tms.Pattern + key
		if tc.HasLink(LinkTypeTMS, url) {
			return
		}
		tc.Links = append(tc.Links, report.Link{Name: key, URL: url, Type: LinkTypeTMS})
	})
	if err == nil {
		err = keyErr
	}
	if err != nil {
		return fmt.Errorf("set tms link: %w", err)
	}
	return nil
}

// InitializeTest normalizes the test name and adds its tms link.
func (s *Stepper) InitializeTest() error {
	if err := s.NormalizeTestName(); err != nil {
		return err
	}
	return s.SetTMSLink()
}
