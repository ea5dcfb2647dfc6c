// Package watcher re-runs tasks when files matching a rule change.
package watcher

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/maxkimambo/assetflow/internal/logger"
)

// DefaultDebounce collapses bursts of events such as editor save storms.
const DefaultDebounce = 200 * time.Millisecond

var errNoRules = errors.New("watch has no rules")

// Rule maps a path pattern to the tasks run when a matching file changes.
type Rule struct {
	Pattern string
	Tasks   []string
}

// Matches reports whether the slash separated, root-relative path matches
// the rule pattern.
func (r Rule) Matches(path string) bool {
	ok, _ := doublestar.Match(strings.TrimPrefix(r.Pattern, "./"), path)
	return ok
}

// Runner runs a task by name.
type Runner interface {
	Run(ctx context.Context, name string) error
}

// Watcher dispatches file events to rules. Events for one rule are
// debounced and then queued: a rule never runs two triggers at once and a
// trigger arriving while the rule runs is held until it finishes. Triggers
// of different rules run concurrently.
type Watcher struct {
	runner   Runner
	rules    []Rule
	debounce time.Duration

	// triggered is called after every trigger with the rule index and the
	// first task error, if any.
	triggered func(rule int, err error)
}

// New returns a watcher for rules. A zero debounce uses DefaultDebounce.
func New(runner Runner, rules []Rule, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{runner: runner, rules: rules, debounce: debounce}
}

// Rules returns the rules of the watcher.
func (w *Watcher) Rules() []Rule {
	return w.rules
}

type ruleState struct {
	rule    Rule
	pending chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// Run consumes src until ctx is cancelled or src closes its event channel,
// then closes src and waits for running triggers to finish. Cancellation
// is not an error.
func (w *Watcher) Run(ctx context.Context, src Source) error {
	if len(w.rules) == 0 {
		src.Close()
		return errNoRules
	}

	ctx, cancel := context.WithCancel(ctx)

	states := make([]*ruleState, len(w.rules))
	var wg sync.WaitGroup
	for i, r := range w.rules {
		st := &ruleState{rule: r, pending: make(chan struct{}, 1)}
		states[i] = st
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w.work(ctx, i, st)
		}(i)
	}

	for _, r := range w.rules {
		logger.User.Watchf("Watching %s -> %s", r.Pattern, strings.Join(r.Tasks, ", "))
	}

	defer func() {
		for _, st := range states {
			st.mu.Lock()
			if st.timer != nil {
				st.timer.Stop()
			}
			st.mu.Unlock()
		}
		src.Close()
		cancel()
		wg.Wait()
	}()

	events, errs := src.Events(), src.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-events:
			if !ok {
				logger.Op.Debug("File watcher event source closed")
				return nil
			}
			w.dispatch(states, ev)

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("File watcher error", logger.Field{Key: "error", Value: err.Error()})
		}
	}
}

func (w *Watcher) dispatch(states []*ruleState, ev Event) {
	for _, st := range states {
		if !st.rule.Matches(ev.Path) {
			continue
		}
		logger.Op.WithFields(map[string]interface{}{
			"path":    ev.Path,
			"op":      ev.Op.String(),
			"pattern": st.rule.Pattern,
		}).Debug("File changed")
		w.schedule(st)
	}
}

// schedule (re)starts the debounce timer of a rule.
func (w *Watcher) schedule(st *ruleState) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.timer != nil {
		st.timer.Reset(w.debounce)
		return
	}
	st.timer = time.AfterFunc(w.debounce, func() {
		select {
		case st.pending <- struct{}{}:
		default:
			// a trigger is already queued
		}
	})
}

func (w *Watcher) work(ctx context.Context, index int, st *ruleState) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-st.pending:
			err := w.trigger(ctx, st.rule)
			if w.triggered != nil {
				w.triggered(index, err)
			}
		}
	}
}

// trigger runs the tasks of a rule in order and stops at the first
// failure. The failure has already been reported by the task graph.
func (w *Watcher) trigger(ctx context.Context, r Rule) error {
	logger.User.Watchf("Change detected in %s, running %s", r.Pattern, strings.Join(r.Tasks, ", "))

	for _, name := range r.Tasks {
		if err := w.runner.Run(ctx, name); err != nil {
			if ctx.Err() == nil {
				logger.User.Warnf("Still watching after '%s' failed", name)
			}
			return err
		}
	}
	return nil
}
