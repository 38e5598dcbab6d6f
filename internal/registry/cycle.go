package registry

import (
	"fmt"
	"strings"
)

// CycleWarning reports a dependency cycle in the requires graph.
//
// The requires graph is assumed acyclic but never validated at authoring
// time, so a cycle is surfaced as a diagnostic rather than an error: the
// resolver's visited set guarantees termination either way, and the warning
// tells the spec author what to fix.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["whatsapp", "contacts", "whatsapp"]
	Message string   `json:"message"` // Human-readable description
}

// AnalyzeCycles performs static cycle analysis on the requires graph using
// Tarjan's strongly-connected-components algorithm. Each SCC with more than
// one service, or a service that requires itself, produces one warning. An
// acyclic registry returns an empty list.
func AnalyzeCycles(r *Registry) []CycleWarning {
	graph := make(map[string][]string, r.Len())
	for _, id := range r.ServiceIDs() {
		spec, _ := r.Service(id)
		edges := make([]string, 0, len(spec.Requires))
		for _, dep := range spec.Requires {
			if r.Known(dep) {
				edges = append(edges, dep)
			}
		}
		graph[id] = edges
	}

	warnings := []CycleWarning{}
	for _, scc := range tarjanSCC(graph, r.ServiceIDs()) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, sccToWarning(scc, graph))
		}
	}
	return warnings
}

func hasSelfLoop(node string, graph map[string][]string) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components. Nodes are visited in the
// given order so output is deterministic for a fixed registry.
func tarjanSCC(graph map[string][]string, nodes []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

func sccToWarning(scc []string, graph map[string][]string) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("service requires itself: %s -> %s", id, id),
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("dependency cycle detected: %s", strings.Join(path, " -> ")),
	}
}

// reconstructCyclePath walks edges within the SCC from its first node until
// the walk returns to the start.
func reconstructCyclePath(scc []string, graph map[string][]string) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
