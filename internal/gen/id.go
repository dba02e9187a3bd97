package gen

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces opaque identifiers for test cases, steps and attachments.
// Implemented by UUIDGenerator (production) and FixedGenerator (tests).
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random UUIDs rendered without dashes.
//
// Format: "550e8400e29b41d4a716446655440000" (32 characters)
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate creates a new random UUID and strips the dashes.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDGenerator) Generate() string {
	return strings.ReplaceAll(uuid.Must(uuid.NewRandom()).String(), "-", "")
}

// ID is a convenience wrapper around UUIDGenerator.
func ID() string {
	return UUIDGenerator{}.Generate()
}

// FixedGenerator returns predetermined IDs for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedGenerator("s1", "s2")
//	gen.Generate() // "s1"
//	gen.Generate() // "s2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined ID.
//
// Panics if all IDs have been consumed, so a test that starts more steps
// than it planned for fails loudly.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
