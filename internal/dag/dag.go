package dag

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"

	graphlib "github.com/dominikbraun/graph"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		g:     graphlib.New(graphlib.StringHash, graphlib.Directed()),
		index: make(map[string]int),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.index[id]; ok {
		return
	}
	// The only possible error is ErrVertexAlreadyExists, ruled out above.
	_ = g.g.AddVertex(id)
	g.index[id] = len(g.index)
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. An error is returned
// if either node does not exist or if the edge would create a self-reference.
// Adding an existing edge again is a no-op.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.index[fromID]; !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}
	if _, ok := g.index[toID]; !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	err := g.g.AddEdge(fromID, toID)
	if err != nil && !errors.Is(err, graphlib.ErrEdgeAlreadyExists) {
		return fmt.Errorf("adding edge %s -> %s: %w", fromID, toID, err)
	}
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.index)
}

// Nodes returns every node id in insertion order.
func (g *Graph) Nodes() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	out := make([]string, len(g.index))
	for id, i := range g.index {
		out[i] = id
	}
	return out
}

// Dependencies returns the ids the given node depends on, in insertion order.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if _, ok := g.index[id]; !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	preds, err := g.g.PredecessorMap()
	if err != nil {
		return nil, err
	}
	return g.ordered(preds[id]), nil
}

// Dependents returns the ids that depend on the given node, in insertion
// order.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if _, ok := g.index[id]; !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	adj, err := g.g.AdjacencyMap()
	if err != nil {
		return nil, err
	}
	return g.ordered(adj[id]), nil
}

// Cycles returns every strongly connected component with more than one
// member. Members are in insertion order and components are ordered by their
// first member. An acyclic graph yields nil.
func (g *Graph) Cycles() ([][]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	sccs, err := graphlib.StronglyConnectedComponents(g.g)
	if err != nil {
		return nil, fmt.Errorf("computing strongly connected components: %w", err)
	}

	var out [][]string
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		members := append([]string(nil), scc...)
		g.sortByIndex(members)
		out = append(out, members)
	}
	sort.Slice(out, func(i, j int) bool {
		return g.index[out[i][0]] < g.index[out[j][0]]
	})
	return out, nil
}

// DetectCycles checks the graph for any cycles. It returns a *CycleError
// listing every cycle found, or nil.
func (g *Graph) DetectCycles() error {
	cycles, err := g.Cycles()
	if err != nil {
		return err
	}
	if len(cycles) > 0 {
		return &CycleError{Components: cycles}
	}
	return nil
}

// Sort returns the nodes in a topological order. Whenever several nodes are
// ready, the one that sorts first by less goes next; a nil less means
// insertion order. A cyclic graph cannot be sorted.
func (g *Graph) Sort(less func(a, b string) bool) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	if less == nil {
		less = func(a, b string) bool { return g.index[a] < g.index[b] }
	}
	adj, err := g.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("sorting graph: %w", err)
	}
	preds, err := g.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("sorting graph: %w", err)
	}

	pending := make(map[string]int, len(preds))
	ready := &readyQueue{less: less}
	for id, in := range preds {
		pending[id] = len(in)
		if len(in) == 0 {
			ready.ids = append(ready.ids, id)
		}
	}
	heap.Init(ready)

	order := make([]string, 0, len(pending))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(string)
		order = append(order, id)
		for next := range adj[id] {
			pending[next]--
			if pending[next] == 0 {
				heap.Push(ready, next)
			}
		}
	}
	if len(order) != len(pending) {
		return nil, errors.New("sorting graph: graph contains a cycle")
	}
	return order, nil
}

// readyQueue is a min-heap of nodes whose dependencies are all placed.
type readyQueue struct {
	ids  []string
	less func(a, b string) bool
}

func (q *readyQueue) Len() int           { return len(q.ids) }
func (q *readyQueue) Less(i, j int) bool { return q.less(q.ids[i], q.ids[j]) }
func (q *readyQueue) Swap(i, j int)      { q.ids[i], q.ids[j] = q.ids[j], q.ids[i] }
func (q *readyQueue) Push(x any)         { q.ids = append(q.ids, x.(string)) }

func (q *readyQueue) Pop() any {
	last := q.ids[len(q.ids)-1]
	q.ids = q.ids[:len(q.ids)-1]
	return last
}

func (g *Graph) ordered(set map[string]graphlib.Edge[string]) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	g.sortByIndex(out)
	return out
}

func (g *Graph) sortByIndex(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return g.index[ids[i]] < g.index[ids[j]] })
}
