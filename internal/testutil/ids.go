package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator generates readable, predictable IDs: "<prefix>-1",
// "<prefix>-2", ...
//
// This keeps step trees and golden snapshots byte-identical across runs.
// Unlike gen.FixedGenerator it never runs out.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator with the given prefix.
// If prefix is empty, "id" is used.
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID in sequence.
//
// Implements gen.IDGenerator interface.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
