package steps

import (
	"fmt"
)

// Type is the content type of an attachment.
type Type int

const (
	// Text is plain text. It keeps the .json extension report viewers
	// expect for text bodies.
	Text Type = iota
	HTML
	JSON
)

// MimeType returns the MIME type recorded with the attachment.
func (t Type) MimeType() string {
	switch t {
	case HTML:
		return "text/html"
	case JSON:
		return "application/json"
	default:
		return "text/plain"
	}
}

// Extension returns the file extension recorded with the attachment.
func (t Type) Extension() string {
	if t == HTML {
		return ".html"
	}
	return ".json"
}

func (t Type) String() string {
	switch t {
	case HTML:
		return "html"
	case JSON:
		return "json"
	default:
		return "text"
	}
}

// ParseType maps "text", "html" or "json" to a Type. Empty means Text.
func ParseType(s string) (Type, error) {
	switch s {
	case "", "text":
		return Text, nil
	case "html":
		return HTML, nil
	case "json":
		return JSON, nil
	default:
		return Text, fmt.Errorf("unknown attachment type %q", s)
	}
}

// Attachment is a named value to attach at the cursor.
type Attachment struct {
	Name  string
	Value any
	Type  Type
}

// Attach attaches every attachment at the cursor in order. Strings and
// byte slices are stored as given; other values are serialized to JSON.
func (s *Stepper) Attach(attachments ...Attachment) error {
	for _, a := range attachments {
		content, err := s.content(a.Value)
		if err != nil {
			return fmt.Errorf("attach %q: %w", a.Name, err)
		}
		if err := s.backend.AddAttachment(a.Name, a.Type.MimeType(), content, a.Type.Extension()); err != nil {
			return fmt.Errorf("attach %q: %w", a.Name, err)
		}
	}
	return nil
}

func (s *Stepper) content(v any) ([]byte, error) {
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	default:
		return s.codec.Marshal(x)
	}
}

// AttachDiff renders expected against actual and attaches the HTML
// document under the renderer's label.
func (s *Stepper) AttachDiff(expected, actual any) error {
	doc, err := s.diff.Render(expected, actual)
	if err != nil {
		return fmt.Errorf("attach diff: %w", err)
	}
	return s.Attach(Attachment{Name: s.diff.Label(), Value: doc, Type: HTML})
}
