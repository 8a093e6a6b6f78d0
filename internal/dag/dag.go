// Package dag orders the vertices of a dependency graph.
//
// Vertices carry a declaration order that breaks ties, so the same graph
// always sorts the same way. Unlike an incremental DAG, edges that close a
// cycle are accepted when added and reported by TopologicalSort instead, which
// lets callers surface every structural problem from one place.
package dag

import (
	"cmp"
	"container/heap"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Vertex is a node in the graph.
type Vertex[T cmp.Ordered] struct {
	// ID identifies the vertex.
	ID T
	// Order is the declaration position used to break ties.
	Order int
	// DependsOn holds the vertices that must sort before this one.
	DependsOn map[T]struct{}
}

// Graph is a directed dependency graph. The zero value is not usable; call New.
type Graph[T cmp.Ordered] struct {
	Vertices map[T]*Vertex[T]
}

// New returns an empty graph.
func New[T cmp.Ordered]() *Graph[T] {
	return &Graph[T]{Vertices: make(map[T]*Vertex[T])}
}

// AddVertex adds a vertex with the given declaration order.
func (g *Graph[T]) AddVertex(id T, order int) error {
	if _, ok := g.Vertices[id]; ok {
		return fmt.Errorf("vertex %v already exists", id)
	}
	g.Vertices[id] = &Vertex[T]{ID: id, Order: order, DependsOn: make(map[T]struct{})}
	return nil
}

// AddDependencies records that id depends on every vertex in deps.
// A vertex may depend on itself; that is reported as a cycle when sorting.
func (g *Graph[T]) AddDependencies(id T, deps []T) error {
	v, ok := g.Vertices[id]
	if !ok {
		return fmt.Errorf("vertex %v not found", id)
	}
	for _, dep := range deps {
		if _, ok := g.Vertices[dep]; !ok {
			return fmt.Errorf("dependency %v of %v not found", dep, id)
		}
		v.DependsOn[dep] = struct{}{}
	}
	return nil
}

// TopologicalSort returns every vertex so that dependencies come first.
//
// Among the vertices whose dependencies are already sorted, the one with the
// lowest declaration order is always taken next. If vertices remain once no
// more can be taken, a *CycleError is returned.
func (g *Graph[T]) TopologicalSort() ([]T, error) {
	pending := make(map[T]int, len(g.Vertices))
	dependents := make(map[T][]T, len(g.Vertices))
	ready := &readyQueue[T]{g: g}
	for id, v := range g.Vertices {
		pending[id] = len(v.DependsOn)
		for dep := range v.DependsOn {
			dependents[dep] = append(dependents[dep], id)
		}
		if len(v.DependsOn) == 0 {
			ready.ids = append(ready.ids, id)
		}
	}
	heap.Init(ready)

	order := make([]T, 0, len(g.Vertices))
	for ready.Len() > 0 {
		id := heap.Pop(ready).(T) //nolint:errcheck // the queue only holds T
		order = append(order, id)
		for _, dependent := range dependents[id] {
			pending[dependent]--
			if pending[dependent] == 0 {
				heap.Push(ready, dependent)
			}
		}
	}

	if len(order) != len(g.Vertices) {
		return nil, &CycleError[T]{Cycle: g.findCycle(pending)}
	}
	return order, nil
}

// Levels groups the sorted vertices by depth. A vertex with no dependencies
// has depth 0; any other vertex sits one level below its deepest dependency.
// Vertices in the same level do not depend on each other and keep their
// sort order.
func (g *Graph[T]) Levels() ([][]T, error) {
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}
	depth := make(map[T]int, len(order))
	var levels [][]T
	for _, id := range order {
		level := 0
		for dep := range g.Vertices[id].DependsOn {
			level = max(level, depth[dep]+1)
		}
		depth[id] = level
		if level == len(levels) {
			levels = append(levels, nil)
		}
		levels[level] = append(levels[level], id)
	}
	return levels, nil
}

// readyQueue is a min-heap of vertices keyed by declaration order.
type readyQueue[T cmp.Ordered] struct {
	g   *Graph[T]
	ids []T
}

func (q *readyQueue[T]) Len() int           { return len(q.ids) }
func (q *readyQueue[T]) Less(i, j int) bool { return q.g.compare(q.ids[i], q.ids[j]) < 0 }
func (q *readyQueue[T]) Swap(i, j int)      { q.ids[i], q.ids[j] = q.ids[j], q.ids[i] }
func (q *readyQueue[T]) Push(x any)         { q.ids = append(q.ids, x.(T)) } //nolint:errcheck // the queue only holds T

func (q *readyQueue[T]) Pop() any {
	last := q.ids[len(q.ids)-1]
	q.ids = q.ids[:len(q.ids)-1]
	return last
}

// findCycle walks dependencies from the earliest unsorted vertex. Every
// unsorted vertex has an unsorted dependency, so the walk must revisit a
// vertex; the path from that vertex back to itself is a cycle.
func (g *Graph[T]) findCycle(pending map[T]int) []T {
	var remaining []T
	for id, n := range pending {
		if n > 0 {
			remaining = append(remaining, id)
		}
	}
	g.sortByOrder(remaining)

	seen := make(map[T]int)
	var path []T
	current := remaining[0]
	for {
		if at, ok := seen[current]; ok {
			return path[at:]
		}
		seen[current] = len(path)
		path = append(path, current)

		deps := make([]T, 0, len(g.Vertices[current].DependsOn))
		for dep := range g.Vertices[current].DependsOn {
			if pending[dep] > 0 {
				deps = append(deps, dep)
			}
		}
		g.sortByOrder(deps)
		current = deps[0]
	}
}

func (g *Graph[T]) sortByOrder(ids []T) {
	slices.SortFunc(ids, g.compare)
}

func (g *Graph[T]) compare(a, b T) int {
	if c := cmp.Compare(g.Vertices[a].Order, g.Vertices[b].Order); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

// CycleError reports vertices that form a dependency cycle.
type CycleError[T cmp.Ordered] struct {
	// Cycle lists the vertices on the cycle; each depends on the next, and
	// the last depends on the first.
	Cycle []T
}

func (e *CycleError[T]) Error() string {
	parts := make([]string, 0, len(e.Cycle)+1)
	for _, id := range e.Cycle {
		parts = append(parts, fmt.Sprint(id))
	}
	if len(e.Cycle) > 0 {
		parts = append(parts, fmt.Sprint(e.Cycle[0]))
	}
	return "graph contains a cycle: " + strings.Join(parts, " -> ")
}

// AsCycleError returns the *CycleError in err's chain, or nil.
func AsCycleError[T cmp.Ordered](err error) *CycleError[T] {
	var cycleErr *CycleError[T]
	if errors.As(err, &cycleErr) {
		return cycleErr
	}
	return nil
}
