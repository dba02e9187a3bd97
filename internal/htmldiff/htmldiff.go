// Package htmldiff renders an expected/actual pair of values as an HTML
// document in which mismatching lines of their pretty-printed JSON are
// highlighted.
//
// Consecutive mismatching lines form one run and are wrapped in a single
// red span, so a diff reads as contiguous blocks rather than striped lines.
package htmldiff

import (
	"reflect"
	"strings"

	"github.com/roach88/stepwise/internal/jsoncodec"
)

// NullPlaceholder stands in for the lines of a nil value.
const NullPlaceholder = "{null}"

// DefaultLabel is the attachment name used when none is configured.
const DefaultLabel = "actual"

const (
	openTag  = `<span style="color: red">`
	closeTag = `</span>`

	documentHead = "<html>\n" +
		"<head>\n" +
		"<meta http-equiv=\"Content-Type\" content=\"text/html; charset=utf-8\">\n" +
		"</head>\n" +
		"<body>\n" +
		"<pre>"
	documentTail = "</pre>\n" +
		"</body>\n" +
		"</html>"
)

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Renderer turns value pairs into diff documents.
type Renderer struct {
	codec           *jsoncodec.Codec
	label           string
	compareExpected bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLabel sets the attachment name reported by Label.
func WithLabel(label string) Option {
	return func(r *Renderer) {
		if label != "" {
			r.label = label
		}
	}
}

// WithCompareExpected makes the expected side come from the expected value.
// By default a non-nil expected value is represented by the serialization of
// the actual value, so a mismatch needs exactly one side to be nil.
func WithCompareExpected(on bool) Option {
	return func(r *Renderer) {
		r.compareExpected = on
	}
}

// New creates a Renderer that serializes values with codec.
func New(codec *jsoncodec.Codec, opts ...Option) *Renderer {
	r := &Renderer{
		codec: codec,
		label: DefaultLabel,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Label is the name the rendered document is attached under.
func (r *Renderer) Label() string {
	return r.label
}

// Lines returns the pretty-printed line sequences the diff compares.
//
// A nil side renders as NullPlaceholder. Unless compare-expected is on, a
// non-nil expected is replaced by the serialization of actual, so a nil
// actual there yields "null" against the placeholder.
func (r *Renderer) Lines(expected, actual any) (expectedLines, actualLines []string, err error) {
	actualLines, err = r.lines(actual)
	if err != nil {
		return nil, nil, err
	}

	switch {
	case isNil(expected):
		expectedLines = []string{NullPlaceholder}
	case r.compareExpected:
		expectedLines, err = r.lines(expected)
		if err != nil {
			return nil, nil, err
		}
	default:
		expectedLines, err = r.codec.PrettyLines(actual)
		if err != nil {
			return nil, nil, err
		}
	}

	return expectedLines, actualLines, nil
}

func (r *Renderer) lines(v any) ([]string, error) {
	if isNil(v) {
		return []string{NullPlaceholder}, nil
	}
	return r.codec.PrettyLines(v)
}

// Render builds the complete HTML document for expected and actual.
func (r *Renderer) Render(expected, actual any) (string, error) {
	expectedLines, actualLines, err := r.Lines(expected, actual)
	if err != nil {
		return "", err
	}
	return Document(Body(expectedLines, actualLines)), nil
}

// Document wraps a body produced by Body in a minimal HTML page with a
// preformatted block.
func Document(body string) string {
	return documentHead + body + documentTail
}

// Body walks actual line by line and compares each line with the expected
// line at the same index (the empty string past the end of expected).
//
// Every line is preceded by a line break. A run tag is written where that
// break would go: the opening tag before the first mismatching line of a
// run, the closing tag before the first matching line after it, and a
// final closing tag after the last line if a run is still open.
//
// Line text is HTML-escaped (&, < and >) before it is written, so the body
// differs from the raw input lines wherever they contain markup.
func Body(expected, actual []string) string {
	var b strings.Builder
	open := false

	for i, line := range actual {
		want := ""
		if i < len(expected) {
			want = expected[i]
		}

		match := line == want
		switch {
		case match && open:
			b.WriteString(closeTag)
			open = false
		case !match && !open:
			b.WriteString(openTag)
			open = true
		}

		b.WriteByte('\n')
		b.WriteString(escaper.Replace(line))
	}

	if open {
		b.WriteString(closeTag)
	}
	b.WriteByte('\n')

	return b.String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
