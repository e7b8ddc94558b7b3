// SPDX-License-Identifier: MPL-2.0

// Package dag provides topological ordering and cycle detection over string
// keyed graphs. It orders modules by their declared load sequence.
package dag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dominikbraun/graph"
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle contains the nodes that take part in a cycle, in insertion order.
		Cycle []string
	}

	// Graph is a directed graph for topological sorting.
	// An edge from A to B means A must come before B.
	Graph struct {
		g graph.Graph[string, string]
		// index records insertion order; it is the tie-break for independent nodes.
		index map[string]int
		// selfLoops records nodes with an edge to themselves.
		selfLoops map[string]bool
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		g:         graph.New(graph.StringHash, graph.Directed()),
		index:     make(map[string]int),
		selfLoops: make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.index)
	// The only possible error is ErrVertexAlreadyExists, excluded above.
	_ = g.g.AddVertex(name)
}

// AddEdge adds a directed edge from -> to, meaning "from" must come before "to".
// Both nodes are implicitly added if they don't exist.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if from == to {
		g.selfLoops[from] = true
		return
	}
	if err := g.g.AddEdge(from, to); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
		// Both vertices exist, so no other error is expected.
		panic(fmt.Sprintf("dag: add edge %s -> %s: %v", from, to, err))
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.index)
}

// TopologicalSort returns an order in which every node follows its
// predecessors. Nodes without a mutual ordering constraint keep their
// insertion order. Returns *CycleError if the graph contains a cycle.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.index) == 0 {
		return nil, nil
	}
	if cycle := g.cycleNodes(); len(cycle) > 0 {
		return nil, &CycleError{Cycle: cycle}
	}

	order, err := graph.StableTopologicalSort(g.g, func(a, b string) bool {
		return g.index[a] < g.index[b]
	})
	if err != nil {
		return nil, fmt.Errorf("topological sort: %w", err)
	}
	return order, nil
}

// cycleNodes returns every node that belongs to a strongly connected
// component of more than one node, or that has a self loop.
func (g *Graph) cycleNodes() []string {
	inCycle := make(map[string]bool)
	for n := range g.selfLoops {
		inCycle[n] = true
	}

	components, err := graph.StronglyConnectedComponents(g.g)
	if err == nil {
		for _, component := range components {
			if len(component) < 2 {
				continue
			}
			for _, n := range component {
				inCycle[n] = true
			}
		}
	}

	if len(inCycle) == 0 {
		return nil
	}
	cycle := make([]string, len(g.index))
	count := 0
	for n, i := range g.index {
		if inCycle[n] {
			cycle[i] = n
			count++
		}
	}
	result := make([]string, 0, count)
	for _, n := range cycle {
		if n != "" {
			result = append(result, n)
		}
	}
	return result
}
