package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	g := New()
	require.NotNil(t, g)
	assert.Zero(t, g.Len())
	assert.Empty(t, g.Nodes())
}

func TestAddNode(t *testing.T) {
	t.Parallel()
	g := New()

	g.AddNode("a")
	assert.Equal(t, 1, g.Len())

	g.AddNode("a") // Test idempotency
	assert.Equal(t, 1, g.Len())

	g.AddNode("b")
	assert.Equal(t, []string{"a", "b"}, g.Nodes())
}

func TestAddEdge(t *testing.T) {
	t.Parallel()
	t.Run("success case", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("a", "b") // b depends on a
		require.NoError(t, err)

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("duplicate edge is a no-op", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("a", "b"))

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)
	})

	t.Run("error cases", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")

		_, err = g.Dependencies("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDependencies_InsertionOrder(t *testing.T) {
	t.Parallel()
	g := New()
	for _, id := range []string{"z", "y", "x", "target"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("x", "target"))
	require.NoError(t, g.AddEdge("z", "target"))
	require.NoError(t, g.AddEdge("y", "target"))

	deps, err := g.Dependencies("target")
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y", "x"}, deps)
}

func TestDetectCycles(t *testing.T) {
	t.Parallel()
	t.Run("empty graph has no cycles", func(t *testing.T) {
		t.Parallel()
		g := New()
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("graph with nodes but no edges has no cycles", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		g.AddNode("d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c")) // Transitive edge
		require.NoError(t, g.AddEdge("c", "d"))
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("simple direct cycle is detected", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a")) // Cycle
		err := g.DetectCycles()
		assert.Error(t, err)
		assert.ErrorContains(t, err, "cycle detected")

		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, [][]string{{"a", "b"}}, cycleErr.Components)
	})

	t.Run("longer cycle is detected", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		g.AddNode("d")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "d"))
		require.NoError(t, g.AddEdge("d", "a")) // Cycle back to the start
		err := g.DetectCycles()
		assert.Error(t, err)
		assert.ErrorContains(t, err, "cycle detected")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		t.Parallel()
		g := New()
		// Component 1 (valid)
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))

		// Component 2 (has a cycle)
		g.AddNode("x")
		g.AddNode("y")
		g.AddNode("z")
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("y", "z"))
		require.NoError(t, g.AddEdge("z", "y")) // Cycle

		cycles, err := g.Cycles()
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"y", "z"}}, cycles)
	})

	t.Run("separate cycles are reported separately", func(t *testing.T) {
		t.Parallel()
		g := New()
		for _, id := range []string{"p", "a", "q", "b"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("q", "p"))
		require.NoError(t, g.AddEdge("p", "q"))
		require.NoError(t, g.AddEdge("b", "a"))
		require.NoError(t, g.AddEdge("a", "b"))

		cycles, err := g.Cycles()
		require.NoError(t, err)
		assert.Equal(t, [][]string{{"p", "q"}, {"a", "b"}}, cycles)
	})
}

func TestSort(t *testing.T) {
	t.Parallel()
	t.Run("no edges keeps insertion order", func(t *testing.T) {
		t.Parallel()
		g := New()
		for _, id := range []string{"c", "a", "b"} {
			g.AddNode(id)
		}
		order, err := g.Sort(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "a", "b"}, order)
	})

	t.Run("dependencies come first", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("c", "a"))

		order, err := g.Sort(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "a"}, order)
	})

	t.Run("freed node goes before later unrelated nodes", func(t *testing.T) {
		t.Parallel()
		g := New()
		for _, id := range []string{"x", "y", "z", "w", "q"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("x", "y"))
		require.NoError(t, g.AddEdge("w", "q"))

		order, err := g.Sort(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"x", "y", "z", "w", "q"}, order)
	})

	t.Run("dependency pulls a later node forward only as far as needed", func(t *testing.T) {
		t.Parallel()
		g := New()
		for _, id := range []string{"a", "b", "c", "d"} {
			g.AddNode(id)
		}
		require.NoError(t, g.AddEdge("d", "b"))

		order, err := g.Sort(nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "c", "d", "b"}, order)
	})

	t.Run("custom tie-breaker", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		order, err := g.Sort(func(x, y string) bool { return x > y })
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "a"}, order)
	})

	t.Run("cyclic graph cannot be sorted", func(t *testing.T) {
		t.Parallel()
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "a"))
		_, err := g.Sort(nil)
		assert.Error(t, err)
	})

	t.Run("repeatable", func(t *testing.T) {
		t.Parallel()
		build := func() *Graph {
			g := New()
			for _, id := range []string{"e", "d", "c", "b", "a"} {
				g.AddNode(id)
			}
			require.NoError(t, g.AddEdge("a", "e"))
			require.NoError(t, g.AddEdge("b", "d"))
			return g
		}
		first, err := build().Sort(nil)
		require.NoError(t, err)
		for i := 0; i < 10; i++ {
			again, err := build().Sort(nil)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})
}
