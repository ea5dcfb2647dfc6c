package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanSource struct {
	events chan Event
	errors chan error

	once   sync.Once
	closed chan struct{}
}

func newChanSource() *chanSource {
	return &chanSource{
		events: make(chan Event, 16),
		errors: make(chan error, 1),
		closed: make(chan struct{}),
	}
}

func (s *chanSource) Events() <-chan Event { return s.events }
func (s *chanSource) Errors() <-chan error { return s.errors }
func (s *chanSource) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

type recordingRunner struct {
	mu        sync.Mutex
	calls     []string
	active    map[string]int
	maxActive map[string]int
	fail      map[string]error
	hooks     map[string]func()
}

func newRecordingRunner() *recordingRunner {
	return &recordingRunner{
		active:    make(map[string]int),
		maxActive: make(map[string]int),
		fail:      make(map[string]error),
		hooks:     make(map[string]func()),
	}
}

func (r *recordingRunner) Run(ctx context.Context, name string) error {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.active[name]++
	if r.active[name] > r.maxActive[name] {
		r.maxActive[name] = r.active[name]
	}
	hook := r.hooks[name]
	err := r.fail[name]
	delete(r.fail, name)
	r.mu.Unlock()

	if hook != nil {
		hook()
	}

	r.mu.Lock()
	r.active[name]--
	r.mu.Unlock()
	return err
}

func (r *recordingRunner) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recordingRunner) MaxActive(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxActive[name]
}

func startWatcher(t *testing.T, w *Watcher, src Source) (chan error, func()) {
	t.Helper()
	triggers := make(chan error, 16)
	w.triggered = func(_ int, err error) { triggers <- err }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, src) }()

	return triggers, func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func waitTrigger(t *testing.T, triggers chan error) error {
	t.Helper()
	select {
	case err := <-triggers:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for trigger")
		return nil
	}
}

func TestRuleMatches(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{pattern: "src/scss/**/*.scss", path: "src/scss/main.scss", want: true},
		{pattern: "src/scss/**/*.scss", path: "src/scss/vendor/slick.scss", want: true},
		{pattern: "./src/js/**/*.js", path: "src/js/pages/home.js", want: true},
		{pattern: "src/js/**/*.js", path: "src/scss/main.scss", want: false},
		{pattern: "src/pages/**/*", path: "src/pages/index.html", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Rule{Pattern: tt.pattern}.Matches(tt.path))
		})
	}
}

func TestBurstCollapsesIntoOneTrigger(t *testing.T) {
	runner := newRecordingRunner()
	src := newChanSource()
	w := New(runner, []Rule{{Pattern: "src/scss/**/*.scss", Tasks: []string{"compile"}}}, 30*time.Millisecond)

	triggers, stop := startWatcher(t, w, src)
	defer stop()

	for i := 0; i < 5; i++ {
		src.events <- Event{Path: "src/scss/main.scss", Op: fsnotify.Write}
	}
	src.events <- Event{Path: "src/js/main.js", Op: fsnotify.Write}

	require.NoError(t, waitTrigger(t, triggers))
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, []string{"compile"}, runner.Calls())
}

func TestRuleNeverOverlapsItself(t *testing.T) {
	runner := newRecordingRunner()
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	runner.hooks["compile"] = func() {
		started <- struct{}{}
		<-release
	}

	src := newChanSource()
	w := New(runner, []Rule{{Pattern: "src/scss/**/*.scss", Tasks: []string{"compile"}}}, 20*time.Millisecond)
	triggers, stop := startWatcher(t, w, src)
	defer stop()

	src.events <- Event{Path: "src/scss/main.scss", Op: fsnotify.Write}
	<-started

	// two more debounced triggers while the first one runs
	src.events <- Event{Path: "src/scss/main.scss", Op: fsnotify.Write}
	time.Sleep(80 * time.Millisecond)
	src.events <- Event{Path: "src/scss/_lib.scss", Op: fsnotify.Write}
	time.Sleep(80 * time.Millisecond)

	close(release)
	require.NoError(t, waitTrigger(t, triggers))
	require.NoError(t, waitTrigger(t, triggers))
	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, []string{"compile", "compile"}, runner.Calls())
	assert.Equal(t, 1, runner.MaxActive("compile"))
}

func TestDifferentRulesRunConcurrently(t *testing.T) {
	runner := newRecordingRunner()
	jsStarted := make(chan struct{})
	var serialized atomic.Bool
	runner.hooks["javascript"] = func() { close(jsStarted) }
	runner.hooks["compile"] = func() {
		select {
		case <-jsStarted:
		case <-time.After(2 * time.Second):
			serialized.Store(true)
		}
	}

	src := newChanSource()
	w := New(runner, []Rule{
		{Pattern: "src/scss/**/*.scss", Tasks: []string{"compile"}},
		{Pattern: "src/js/**/*.js", Tasks: []string{"javascript"}},
	}, 10*time.Millisecond)
	triggers, stop := startWatcher(t, w, src)
	defer stop()

	src.events <- Event{Path: "src/scss/main.scss", Op: fsnotify.Write}
	time.Sleep(50 * time.Millisecond)
	src.events <- Event{Path: "src/js/main.js", Op: fsnotify.Create}

	require.NoError(t, waitTrigger(t, triggers))
	require.NoError(t, waitTrigger(t, triggers))
	assert.ElementsMatch(t, []string{"compile", "javascript"}, runner.Calls())
	assert.False(t, serialized.Load())
}

func TestFailureKeepsWatching(t *testing.T) {
	runner := newRecordingRunner()
	runner.fail["compile"] = fmt.Errorf("compile failed")

	src := newChanSource()
	w := New(runner, []Rule{{Pattern: "src/scss/**/*.scss", Tasks: []string{"compile", "pages"}}}, 10*time.Millisecond)
	triggers, stop := startWatcher(t, w, src)
	defer stop()

	src.events <- Event{Path: "src/scss/main.scss", Op: fsnotify.Write}
	assert.EqualError(t, waitTrigger(t, triggers), "compile failed")

	src.events <- Event{Path: "src/scss/main.scss", Op: fsnotify.Write}
	assert.NoError(t, waitTrigger(t, triggers))

	assert.Equal(t, []string{"compile", "compile", "pages"}, runner.Calls())
}

func TestRunClosesSourceOnCancel(t *testing.T) {
	src := newChanSource()
	w := New(newRecordingRunner(), []Rule{{Pattern: "src/**/*", Tasks: []string{"pages"}}}, 0)
	_, stop := startWatcher(t, w, src)

	stop()
	select {
	case <-src.closed:
	default:
		t.Fatal("source was not closed")
	}
}

func TestRunReturnsWhenSourceCloses(t *testing.T) {
	runner := newRecordingRunner()
	src := newChanSource()
	w := New(runner, []Rule{{Pattern: "src/pages/**/*", Tasks: []string{"pages"}}}, 10*time.Millisecond)
	triggers := make(chan error, 4)
	w.triggered = func(_ int, err error) { triggers <- err }

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), src) }()

	// a closed error channel must not stop event delivery
	close(src.errors)
	src.events <- Event{Path: "src/pages/index.html", Op: fsnotify.Write}
	assert.NoError(t, waitTrigger(t, triggers))

	close(src.events)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after its source closed")
	}
	assert.Equal(t, []string{"pages"}, runner.Calls())

	select {
	case <-src.closed:
	default:
		t.Fatal("source was not closed")
	}
}

func TestRunWithoutRules(t *testing.T) {
	w := New(newRecordingRunner(), nil, 0)
	assert.Error(t, w.Run(context.Background(), newChanSource()))
}

func TestToEvent(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "project")

	tests := []struct {
		name string
		ev   fsnotify.Event
		want Event
		ok   bool
	}{
		{
			name: "write",
			ev:   fsnotify.Event{Name: filepath.Join(root, "src", "scss", "main.scss"), Op: fsnotify.Write},
			want: Event{Path: "src/scss/main.scss", Op: fsnotify.Write},
			ok:   true,
		},
		{
			name: "chmod only",
			ev:   fsnotify.Event{Name: filepath.Join(root, "src", "scss", "main.scss"), Op: fsnotify.Chmod},
		},
		{
			name: "outside root",
			ev:   fsnotify.Event{Name: filepath.Join(string(filepath.Separator), "elsewhere", "a.js"), Op: fsnotify.Create},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := toEvent(root, tt.ev)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBaseDirs(t *testing.T) {
	dirs := baseDirs([]Rule{
		{Pattern: "src/scss/**/*.scss"},
		{Pattern: "src/js/**/*.js"},
		{Pattern: "src/js/pages/**/*.js"},
		{Pattern: "src/pages/**/*"},
	})
	assert.Equal(t, []string{"src/scss", "src/js", "src/pages"}, dirs)
}

func TestFSSourceReportsChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "scss"), 0o755))

	src, err := NewFSSource(root, []Rule{{Pattern: "src/scss/**/*.scss", Tasks: []string{"compile"}}})
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, 1, src.WatchedDirs())

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "scss", "main.scss"), []byte("a{}"), 0o644))
	waitForPath(t, src, "src/scss/main.scss")

	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "scss", "vendor"), 0o755))
	require.Eventually(t, func() bool { return src.WatchedDirs() == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "scss", "vendor", "slick.scss"), []byte("b{}"), 0o644))
	waitForPath(t, src, "src/scss/vendor/slick.scss")
}

func waitForPath(t *testing.T, src Source, path string) {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-src.Events():
			if ev.Path == path {
				return
			}
		case <-timeout:
			t.Fatalf("no event for %s", path)
		}
	}
}
