// Package social maintains the derived user-connectivity graph. Edges are
// registered whenever an amplification chain links two users; the graph is
// an index rebuilt from the link forest, never authoritative data.
package social

import (
	"sort"
	"sync"
)

// Graph is an undirected user graph with thread-safe, idempotent edge
// registration.
type Graph struct {
	mu  sync.RWMutex
	adj map[string]map[string]struct{}
}

// NewGraph creates an empty Graph.
func NewGraph() *Graph {
	return &Graph{
		adj: make(map[string]map[string]struct{}),
	}
}

// Connect registers the undirected edge a-b. Self-edges are ignored and
// repeated registration is a no-op. It reports whether the edge was new.
func (g *Graph) Connect(a, b string) bool {
	if a == b || a == "" || b == "" {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.adj[a][b]; ok {
		return false
	}
	g.addEdge(a, b)
	g.addEdge(b, a)
	return true
}

func (g *Graph) addEdge(from, to string) {
	set, ok := g.adj[from]
	if !ok {
		set = make(map[string]struct{})
		g.adj[from] = set
	}
	set[to] = struct{}{}
}

// Connected reports whether a and b share a direct edge.
func (g *Graph) Connected(a, b string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.adj[a][b]
	return ok
}

// Neighbors returns a's direct connections, sorted.
func (g *Graph) Neighbors(a string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]string, 0, len(g.adj[a]))
	for id := range g.adj[a] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Reachable returns every user id transitively connected to start,
// breadth-first and sorted. The start node itself is excluded.
func (g *Graph) Reachable(start string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := map[string]struct{}{start: {}}
	queue := make([]string, 0, len(g.adj[start]))
	for id := range g.adj[start] {
		seen[id] = struct{}{}
		queue = append(queue, id)
	}

	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)
		for next := range g.adj[cur] {
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			queue = append(queue, next)
		}
	}
	sort.Strings(out)
	return out
}

// Reset drops all edges. Used when the graph is rebuilt from storage.
func (g *Graph) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.adj = make(map[string]map[string]struct{})
}
