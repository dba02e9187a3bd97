package report

// LastStep returns the last top-level step, or nil if none was started.
func (t *TestResult) LastStep() *StepResult {
	if len(t.Steps) == 0 {
		return nil
	}
	return t.Steps[len(t.Steps)-1]
}

// HasLink reports whether a link with the given type and URL is present.
func (t *TestResult) HasLink(linkType, url string) bool {
	for _, l := range t.Links {
		if l.Type == linkType && l.URL == url {
			return true
		}
	}
	return false
}

// FindStep searches the whole tree for the step with the given ID.
func (t *TestResult) FindStep(id string) *StepResult {
	var found *StepResult
	t.Walk(func(s *StepResult, _ int) bool {
		if s.ID == id {
			found = s
			return false
		}
		return true
	})
	return found
}

// Walk visits every step depth-first in start order.
// depth is 0 for top-level steps. Returning false stops the walk.
func (t *TestResult) Walk(fn func(s *StepResult, depth int) bool) {
	walkSteps(t.Steps, 0, fn)
}

func walkSteps(steps []*StepResult, depth int, fn func(*StepResult, int) bool) bool {
	for _, s := range steps {
		if !fn(s, depth) {
			return false
		}
		if !walkSteps(s.Steps, depth+1, fn) {
			return false
		}
	}
	return true
}

// AllChildrenPassed reports whether every direct child has status passed.
// A step without children trivially satisfies this.
func (s *StepResult) AllChildrenPassed() bool {
	for _, child := range s.Steps {
		if child.Status != StatusPassed {
			return false
		}
	}
	return true
}

// Child returns the first direct child with the given name, or nil.
func (s *StepResult) Child(name string) *StepResult {
	for _, child := range s.Steps {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// StepByPath resolves a path of step names from the test case root.
// The first matching name is taken at every level.
func (t *TestResult) StepByPath(path ...string) *StepResult {
	if len(path) == 0 {
		return nil
	}
	var cur *StepResult
	for _, s := range t.Steps {
		if s.Name == path[0] {
			cur = s
			break
		}
	}
	for _, name := range path[1:] {
		if cur == nil {
			return nil
		}
		cur = cur.Child(name)
	}
	return cur
}
