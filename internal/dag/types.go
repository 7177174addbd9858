package dag

import (
	"strings"
	"sync"

	graphlib "github.com/dominikbraun/graph"
)

// Graph is a directed dependency graph. All operations are concurrency-safe.
type Graph struct {
	// mutex protects g and index.
	mutex sync.RWMutex
	g     graphlib.Graph[string, string]
	// index records the insertion position of every node; it is the
	// tie-breaker that makes every result deterministic.
	index map[string]int
}

// CycleError is returned by DetectCycles. Each component lists its members in
// insertion order; components are ordered by their first member.
type CycleError struct {
	Components [][]string
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Components))
	for i, c := range e.Components {
		parts[i] = strings.Join(c, " -> ")
	}
	return "cycle detected involving nodes: " + strings.Join(parts, "; ")
}
