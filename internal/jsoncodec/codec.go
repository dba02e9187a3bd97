package jsoncodec

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// ErrInvalidStructure is returned when a value cannot be serialized or a
// text is not valid JSON.
var ErrInvalidStructure = errors.New("invalid json structure")

// Layouts used for timestamps and dates.
const (
	TimestampLayout      = "2006-01-02T15:04:05"
	shortTimestampLayout = "2006-01-02T15:04"
	DateLayout           = "2006-01-02"
)

var prettyOptions = &pretty.Options{
	Width:    80,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Codec converts values to and from JSON text.
//
// A Codec is safe for concurrent use once constructed.
type Codec struct {
	loc  *time.Location
	trim bool
	api  jsoniter.API
}

// Option configures a Codec.
type Option func(*Codec)

// WithLocation sets the zone timestamps are rendered in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(c *Codec) {
		if loc != nil {
			c.loc = loc
		}
	}
}

// WithTrimTimestamps controls whether trailing zeros of the fractional
// second are dropped. Defaults to true.
func WithTrimTimestamps(trim bool) Option {
	return func(c *Codec) {
		c.trim = trim
	}
}

// New creates a Codec.
func New(opts ...Option) *Codec {
	c := &Codec{
		loc:  time.Local,
		trim: true,
	}
	for _, opt := range opts {
		opt(c)
	}

	api := jsoniter.Config{
		EscapeHTML:             false,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	api.RegisterExtension(&scalarExtension{codec: c})
	c.api = api

	return c
}

// Location returns the zone timestamps are rendered in.
func (c *Codec) Location() *time.Location {
	return c.loc
}

// Marshal serializes v to compact JSON.
// Map keys are sorted; struct fields follow declaration order.
func (c *Codec) Marshal(v any) ([]byte, error) {
	data, err := c.api.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal %T: %w", ErrInvalidStructure, v, err)
	}
	return data, nil
}

// MarshalString is Marshal returning a string.
func (c *Codec) MarshalString(v any) (string, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Unmarshal parses JSON into v, applying the codec's scalar decoding.
func (c *Codec) Unmarshal(data []byte, v any) error {
	if err := c.api.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: unmarshal into %T: %w", ErrInvalidStructure, v, err)
	}
	return nil
}

// Compact validates data and strips all insignificant whitespace.
func (c *Codec) Compact(data []byte) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid json", ErrInvalidStructure)
	}
	return pretty.Ugly(data), nil
}

// Pretty validates data and returns its indented multi-line form,
// terminated by a newline.
func (c *Codec) Pretty(data []byte) ([]byte, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: not valid json", ErrInvalidStructure)
	}
	return pretty.PrettyOptions(data, prettyOptions), nil
}

// PrettyLines serializes v and returns the pretty form split into lines.
func (c *Codec) PrettyLines(v any) ([]string, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	compact, err := c.Compact(data)
	if err != nil {
		return nil, err
	}
	out, err := c.Pretty(compact)
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSuffix(string(out), "\n"), "\n"), nil
}

// Get looks up a gjson path in data. The second result is false when the
// path does not exist.
func (c *Codec) Get(data []byte, path string) (string, bool) {
	res := gjson.GetBytes(data, path)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// ReadFile reads and parses a JSON file into generic values.
func (c *Codec) ReadFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var v any
	if err := c.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}

// FormatTimestamp renders t as local date-time text in the codec's zone.
// Seconds are always present; a non-zero fraction is printed in groups of
// 3, 6 or 9 digits, with trailing zeros removed when trimming is on.
func (c *Codec) FormatTimestamp(t time.Time) string {
	t = t.In(c.loc)
	s := t.Format(TimestampLayout)

	ns := t.Nanosecond()
	if ns == 0 {
		return s
	}

	var frac string
	switch {
	case ns%1_000_000 == 0:
		frac = fmt.Sprintf("%03d", ns/1_000_000)
	case ns%1_000 == 0:
		frac = fmt.Sprintf("%06d", ns/1_000)
	default:
		frac = fmt.Sprintf("%09d", ns)
	}
	if c.trim {
		frac = strings.TrimRight(frac, "0")
	}
	return s + "." + frac
}

// ParseTimestamp reads local date-time text in the codec's zone.
// Minute precision ("2024-03-05T14:07") is accepted too.
func (c *Codec) ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, c.loc)
	if err == nil {
		return t, nil
	}
	if t, err2 := time.ParseInLocation(shortTimestampLayout, s, c.loc); err2 == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
}

// TimestampFromParts builds a timestamp from [year, month, day, hour, minute]
// with an optional trailing second, the array form some services emit.
func (c *Codec) TimestampFromParts(parts []int) (time.Time, error) {
	if len(parts) != 5 && len(parts) != 6 {
		return time.Time{}, fmt.Errorf("timestamp parts: want 5 or 6 values, got %d", len(parts))
	}
	sec := 0
	if len(parts) == 6 {
		sec = parts[5]
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], sec, 0, c.loc)
	if t.Month() != time.Month(parts[1]) || t.Day() != parts[2] {
		return time.Time{}, fmt.Errorf("timestamp parts: invalid date %v", parts)
	}
	return t, nil
}
