package taskgraph

import (
	"sync"
	"time"
)

// Status is the outcome of a task within a single run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Result records what happened to one task during a run.
type Result struct {
	Task      string
	Status    Status
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Error     error
}

// Report collects per-task results of one Run. It is safe for concurrent use.
type Report struct {
	Target    string
	StartTime time.Time
	Duration  time.Duration

	mu      sync.RWMutex
	plan    []string
	results map[string]*Result
}

func newReport(target string, plan []string) *Report {
	r := &Report{
		Target:    target,
		StartTime: time.Now(),
		plan:      plan,
		results:   make(map[string]*Result, len(plan)),
	}
	for _, name := range plan {
		r.results[name] = &Result{Task: name, Status: StatusPending}
	}
	return r
}

func (r *Report) start(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.results[name]
	res.Status = StatusRunning
	res.StartTime = time.Now()
}

func (r *Report) finish(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.results[name]
	res.EndTime = time.Now()
	res.Duration = res.EndTime.Sub(res.StartTime)
	res.Error = err
	if err != nil {
		res.Status = StatusFailed
	} else {
		res.Status = StatusSucceeded
	}
}

func (r *Report) skip(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := r.results[name]
	res.Status = StatusSkipped
	res.Error = err
}

func (r *Report) done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duration = time.Since(r.StartTime)
}

// Get returns a copy of the result of the named task.
func (r *Report) Get(name string) (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.results[name]
	if !ok {
		return Result{}, false
	}
	return *res, true
}

// Results returns copies of all results in plan order.
func (r *Report) Results() []Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Result, 0, len(r.plan))
	for _, name := range r.plan {
		out = append(out, *r.results[name])
	}
	return out
}

// Count returns how many tasks ended with the given status.
func (r *Report) Count(status Status) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, res := range r.results {
		if res.Status == status {
			n++
		}
	}
	return n
}

// Succeeded reports whether every planned task succeeded.
func (r *Report) Succeeded() bool {
	return r.Count(StatusSucceeded) == len(r.plan)
}
