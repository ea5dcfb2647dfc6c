package taskgraph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/logger"
)

// Run executes the named task after its prerequisites. See Execute.
func (g *Graph) Run(ctx context.Context, name string) error {
	_, err := g.Execute(ctx, name)
	return err
}

// Execute plans the named task and runs its prerequisite closure. Every
// task of the closure runs at most once. Independent prerequisites start
// concurrently, bounded by the graph's parallelism. When a task fails its
// dependents are skipped and the failure is returned as a TaskError naming
// the failed task; tasks already running are not cancelled.
//
// A planning error is returned before any action runs and yields a nil
// report.
func (g *Graph) Execute(ctx context.Context, name string) (*Report, error) {
	g.mu.RLock()
	plan, err := g.plan(name)
	if err != nil {
		g.mu.RUnlock()
		return nil, err
	}
	tasks := make(map[string]Task, len(plan))
	for _, n := range plan {
		tasks[n] = *g.tasks[n]
	}
	maxParallel := g.maxParallel
	g.mu.RUnlock()

	exec := &execution{
		tasks:      tasks,
		report:     newReport(name, plan),
		sequential: maxParallel == 1,
		runs:       make(map[string]*taskRun, len(plan)),
	}
	if maxParallel > 0 {
		exec.slots = semaphore.NewWeighted(int64(maxParallel))
	}

	logger.Op.WithFields(map[string]interface{}{
		"task":         name,
		"plan":         plan,
		"max_parallel": maxParallel,
	}).Debug("Planned run")

	err = exec.run(ctx, name)
	exec.report.done()

	g.mu.Lock()
	g.lastReport = exec.report
	g.mu.Unlock()

	return exec.report, err
}

type taskRun struct {
	done chan struct{}
	err  error
}

// execution is the per-Run state: the memo of started tasks and the report.
type execution struct {
	tasks      map[string]Task
	report     *Report
	slots      *semaphore.Weighted
	sequential bool

	mu   sync.Mutex
	runs map[string]*taskRun
}

// run starts the named task once and lets every later caller wait for the
// same outcome.
func (e *execution) run(ctx context.Context, name string) error {
	e.mu.Lock()
	if r, ok := e.runs[name]; ok {
		e.mu.Unlock()
		<-r.done
		return r.err
	}
	r := &taskRun{done: make(chan struct{})}
	e.runs[name] = r
	e.mu.Unlock()

	r.err = e.execute(ctx, name)
	close(r.done)
	return r.err
}

func (e *execution) execute(ctx context.Context, name string) error {
	task := e.tasks[name]

	if err := e.prerequisites(ctx, task.Prerequisites); err != nil {
		e.report.skip(name, err)
		logger.Debug("Skipping task, a prerequisite failed", logger.WithTask(name))
		return err
	}

	if e.slots != nil {
		if err := e.slots.Acquire(ctx, 1); err != nil {
			taskErr := &aferrors.TaskError{Task: name, Err: err}
			e.report.skip(name, taskErr)
			return taskErr
		}
		defer e.slots.Release(1)
	}

	if err := ctx.Err(); err != nil {
		taskErr := &aferrors.TaskError{Task: name, Err: err}
		e.report.skip(name, taskErr)
		return taskErr
	}

	e.report.start(name)
	logger.User.Startingf("Starting '%s'...", name)
	logger.Debug("Starting task", logger.WithTask(name))

	start := time.Now()
	err := invoke(ctx, task.Action)
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		taskErr := &aferrors.TaskError{Task: name, Err: err}
		e.report.finish(name, taskErr)
		logger.User.Errorf("'%s' errored after %s", name, elapsed)
		logger.Error("Task failed",
			logger.WithTask(name),
			logger.Field{Key: "duration", Value: elapsed.String()},
			logger.Field{Key: "error", Value: err.Error()})
		return taskErr
	}

	e.report.finish(name, nil)
	logger.User.Successf("Finished '%s' after %s", name, elapsed)
	logger.Debug("Finished task", logger.WithTask(name), logger.Field{Key: "duration", Value: elapsed.String()})
	return nil
}

// prerequisites runs the given tasks and returns the first failure. Tasks
// that do not depend on each other run concurrently unless the execution
// is sequential.
func (e *execution) prerequisites(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}

	if e.sequential {
		for _, name := range names {
			if err := e.run(ctx, name); err != nil {
				return err
			}
		}
		return nil
	}

	var group errgroup.Group
	for _, name := range names {
		group.Go(func() error {
			return e.run(ctx, name)
		})
	}
	return group.Wait()
}

func invoke(ctx context.Context, action Action) (err error) {
	if action == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return action(ctx)
}
