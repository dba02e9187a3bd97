package gen

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"
)

const (
	letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits  = "0123456789"
)

// TimestampLayout is the layout accepted by Timestamp bounds.
const TimestampLayout = "2006-01-02T15:04"

// Bool returns a random boolean.
func Bool() bool {
	return rand.IntN(2) == 1
}

// Int returns a random int in [lower, upper] (both inclusive).
func Int(lower, upper int) int {
	if upper < lower {
		lower, upper = upper, lower
	}
	return int(Int64(int64(lower), int64(upper)))
}

// Int64 returns a random int64 in [lower, upper] (both inclusive).
func Int64(lower, upper int64) int64 {
	if upper < lower {
		lower, upper = upper, lower
	}
	// The span is computed unsigned so bounds far apart cannot overflow.
	span := uint64(upper) - uint64(lower)
	if span == math.MaxUint64 {
		return int64(rand.Uint64())
	}
	return lower + int64(rand.Uint64N(span+1))
}

// Pick returns a random element of values. Panics on an empty list.
func Pick[T any](values ...T) T {
	if len(values) == 0 {
		panic("gen.Pick: no values")
	}
	return values[rand.IntN(len(values))]
}

// String returns a random string of the given length drawn from letters,
// digits, or both. With neither set the full printable ASCII range is used.
// Panics on a negative length.
func String(length int, useLetters, useDigits bool) string {
	if length < 0 {
		panic(fmt.Sprintf("gen.String: negative length %d", length))
	}

	var alphabet string
	switch {
	case useLetters && useDigits:
		alphabet = letters + digits
	case useLetters:
		alphabet = letters
	case useDigits:
		alphabet = digits
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		if alphabet == "" {
			b.WriteByte(byte(' ' + rand.IntN('~'-' '+1)))
			continue
		}
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return b.String()
}

// Timestamp returns a random instant between from and to, both formatted
// with TimestampLayout and read as UTC wall clock. An empty from means the
// Unix epoch, an empty to means now.
func Timestamp(from, to string) (time.Time, error) {
	lower := time.Unix(0, 0).UTC()
	upper := time.Now().UTC()

	if from != "" {
		t, err := time.Parse(TimestampLayout, from)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse lower bound: %w", err)
		}
		lower = t
	}
	if to != "" {
		t, err := time.Parse(TimestampLayout, to)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse upper bound: %w", err)
		}
		upper = t
	}

	ms := Int64(lower.UnixMilli(), upper.UnixMilli())
	return time.UnixMilli(ms).UTC(), nil
}
