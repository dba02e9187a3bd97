package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDGenerator_Sequence(t *testing.T) {
	gen := NewSequentialIDGenerator("step")

	assert.Equal(t, "step-1", gen.Generate())
	assert.Equal(t, "step-2", gen.Generate())
	assert.Equal(t, "step-3", gen.Generate())
}

func TestSequentialIDGenerator_EmptyPrefixDefault(t *testing.T) {
	gen := NewSequentialIDGenerator("")
	assert.Equal(t, "id-1", gen.Generate())
}

func TestSequentialIDGenerator_ThreadSafeUnique(t *testing.T) {
	gen := NewSequentialIDGenerator("t")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				id := gen.Generate()
				mu.Lock()
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 1000)
}
