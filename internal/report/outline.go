package report

import (
	"fmt"
	"io"
	"strings"
)

// WriteOutline writes a plain-text rendering of the tree, two spaces of
// indent per level:
//
//	FIND-T01: login [failed/finished]
//	  link tms https://tms.example.com/case/FIND-T01
//	  Step 1 [passed/finished] {url=/login}
//	    @ actual (text/html, 120 bytes)
//	    check title [passed/finished]
//
// Attachments of a node come before its child steps.
func (t *TestResult) WriteOutline(w io.Writer) error {
	ow := &outlineWriter{w: w}
	ow.line(0, "%s [%s/%s]", t.Name, t.Status, t.Stage)
	for _, l := range t.Links {
		ow.line(1, "link %s %s", l.Type, l.URL)
	}
	ow.attachments(1, t.Attachments)
	for _, s := range t.Steps {
		ow.step(1, s)
	}
	return ow.err
}

// Outline is WriteOutline into a string.
func (t *TestResult) Outline() string {
	var b strings.Builder
	_ = t.WriteOutline(&b)
	return b.String()
}

type outlineWriter struct {
	w   io.Writer
	err error
}

func (o *outlineWriter) line(depth int, format string, args ...any) {
	if o.err != nil {
		return
	}
	_, o.err = fmt.Fprintf(o.w, strings.Repeat("  ", depth)+format+"\n", args...)
}

func (o *outlineWriter) step(depth int, s *StepResult) {
	o.line(depth, "%s [%s/%s]%s", s.Name, s.Status, s.Stage, formatParams(s.Parameters))
	o.attachments(depth+1, s.Attachments)
	for _, child := range s.Steps {
		o.step(depth+1, child)
	}
}

func (o *outlineWriter) attachments(depth int, atts []Attachment) {
	for _, a := range atts {
		o.line(depth, "@ %s (%s, %d bytes)", a.Name, a.MimeType, len(a.Content))
	}
}

func formatParams(params []Parameter) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + "=" + p.Value
	}
	return " {" + strings.Join(parts, ", ") + "}"
}
