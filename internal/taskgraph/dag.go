package taskgraph

import (
	"sort"
)

// DAG represents a directed graph of task names and their prerequisite edges.
type DAG struct {
	nodes    map[string]bool
	edges    map[string][]string // node -> list of nodes it depends on
	inDegree map[string]int      // node -> number of unfinished dependencies
}

// NewDAG creates a new empty DAG.
func NewDAG() *DAG {
	return &DAG{
		nodes:    make(map[string]bool),
		edges:    make(map[string][]string),
		inDegree: make(map[string]int),
	}
}

// AddNode adds a node to the DAG.
func (d *DAG) AddNode(id string) {
	if !d.nodes[id] {
		d.nodes[id] = true
		d.inDegree[id] = 0
	}
}

// AddEdge adds a dependency edge from 'from' to 'to' (from depends on to).
func (d *DAG) AddEdge(from, to string) {
	d.AddNode(from)
	d.AddNode(to)

	d.edges[from] = append(d.edges[from], to)
	d.inDegree[from]++
}

// TopologicalSort returns the nodes so that every node follows all of its
// dependencies. Among nodes that are ready at the same time the
// lexically smallest comes first, which makes the order deterministic.
// The second return value holds the nodes that could not be ordered
// because they sit on, or depend on, a cycle.
func (d *DAG) TopologicalSort() ([]string, []string) {
	inDegree := make(map[string]int, len(d.inDegree))
	for node, degree := range d.inDegree {
		inDegree[node] = degree
	}

	dependents := make(map[string][]string)
	for node, deps := range d.edges {
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], node)
		}
	}

	var ready []string
	for node, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, node)
		}
	}
	sort.Strings(ready)

	result := make([]string, 0, len(d.nodes))
	for len(ready) > 0 {
		current := ready[0]
		ready = ready[1:]
		result = append(result, current)

		released := false
		for _, node := range dependents[current] {
			inDegree[node]--
			if inDegree[node] == 0 {
				ready = append(ready, node)
				released = true
			}
		}
		if released {
			sort.Strings(ready)
		}
	}

	if len(result) == len(d.nodes) {
		return result, nil
	}

	var blocked []string
	for node, degree := range inDegree {
		if degree > 0 {
			blocked = append(blocked, node)
		}
	}
	sort.Strings(blocked)
	return nil, blocked
}
