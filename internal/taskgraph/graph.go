// Package taskgraph holds named build tasks and runs them in prerequisite
// order.
package taskgraph

import (
	"errors"
	"sort"
	"sync"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

// ErrEmptyName is returned when a task is registered without a name.
var ErrEmptyName = errors.New("task name must not be empty")

// Graph is a registry of tasks keyed by name. A Graph is built once at
// startup and then shared by the CLI and the watcher.
type Graph struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string // registration order

	maxParallel int
	lastReport  *Report
}

// New creates an empty graph with unbounded task parallelism.
func New() *Graph {
	return &Graph{
		tasks: make(map[string]*Task),
	}
}

// SetMaxParallel bounds the number of task actions running at once.
// 0 means unbounded and 1 runs prerequisites strictly one after another in
// declaration order.
func (g *Graph) SetMaxParallel(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n < 0 {
		n = 0
	}
	g.maxParallel = n
}

// Register adds a task. Registering a name twice returns a
// DuplicateTaskError and keeps the first registration.
func (g *Graph) Register(name string, prerequisites []string, action Action) error {
	return g.Add(Task{Name: name, Prerequisites: prerequisites, Action: action})
}

// Add is Register for a fully described task.
func (g *Graph) Add(t Task) error {
	if t.Name == "" {
		return ErrEmptyName
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.tasks[t.Name]; exists {
		return &aferrors.DuplicateTaskError{Name: t.Name}
	}

	t.Prerequisites = append([]string(nil), t.Prerequisites...)
	g.tasks[t.Name] = &t
	g.order = append(g.order, t.Name)
	return nil
}

// Has reports whether a task with the given name is registered.
func (g *Graph) Has(name string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.tasks[name]
	return ok
}

// Get returns a copy of the named task.
func (g *Graph) Get(name string) (Task, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	t, ok := g.tasks[name]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Tasks returns copies of all registered tasks sorted by name.
func (g *Graph) Tasks() []Task {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Task, 0, len(g.tasks))
	for _, t := range g.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Plan returns the prerequisite closure of name in execution order:
// prerequisites first, in declaration order, depth first. It fails with an
// UnknownTaskError or a CycleError without running anything.
func (g *Graph) Plan(name string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.plan(name)
}

func (g *Graph) plan(name string) ([]string, error) {
	if _, ok := g.tasks[name]; !ok {
		return nil, &aferrors.UnknownTaskError{Name: name}
	}

	var (
		result  []string
		done    = make(map[string]bool)
		onPath  = make(map[string]bool)
		path    []string
		resolve func(name string) error
	)

	resolve = func(name string) error {
		if done[name] {
			return nil
		}
		if onPath[name] {
			return &aferrors.CycleError{Path: cyclePath(path, name)}
		}

		onPath[name] = true
		path = append(path, name)

		for _, prereq := range g.tasks[name].Prerequisites {
			if _, ok := g.tasks[prereq]; !ok {
				return &aferrors.UnknownTaskError{Name: prereq, RequiredBy: name}
			}
			if err := resolve(prereq); err != nil {
				return err
			}
		}

		path = path[:len(path)-1]
		onPath[name] = false
		done[name] = true
		result = append(result, name)
		return nil
	}

	if err := resolve(name); err != nil {
		return nil, err
	}
	return result, nil
}

// cyclePath returns the part of path starting at name, closed by name.
func cyclePath(path []string, name string) []string {
	for i, p := range path {
		if p == name {
			cycle := append([]string(nil), path[i:]...)
			return append(cycle, name)
		}
	}
	return []string{name, name}
}

// Order returns every registered task in a deterministic topological order
// (Kahn's algorithm with a lexical tie-break).
func (g *Graph) Order() ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	dag := NewDAG()
	for _, name := range g.order {
		dag.AddNode(name)
		for _, prereq := range g.tasks[name].Prerequisites {
			if _, ok := g.tasks[prereq]; !ok {
				return nil, &aferrors.UnknownTaskError{Name: prereq, RequiredBy: name}
			}
			dag.AddEdge(name, prereq)
		}
	}

	sorted, blocked := dag.TopologicalSort()
	if len(blocked) == 0 {
		return sorted, nil
	}

	// A blocked node either sits on a cycle or depends on one; planning it
	// finds the cycle and reports its path.
	for _, name := range blocked {
		if _, err := g.plan(name); err != nil {
			return nil, err
		}
	}
	return nil, &aferrors.CycleError{Path: blocked}
}

// LastReport returns the report of the most recent Run, or nil.
func (g *Graph) LastReport() *Report {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.lastReport
}
