package watcher

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/maxkimambo/assetflow/internal/logger"
)

// Event is a change below the project root. Path is slash separated and
// relative to the root.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Source delivers file change events.
type Source interface {
	Events() <-chan Event
	Errors() <-chan error
	Close() error
}

// FSSource is a Source backed by fsnotify. It watches the base directory
// of every rule pattern recursively and picks up directories created
// later.
type FSSource struct {
	root    string
	watcher *fsnotify.Watcher

	events chan Event
	errors chan error

	mu      sync.Mutex
	watched map[string]bool
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewFSSource starts watching the directories the rules can match.
func NewFSSource(root string, rules []Rule) (*FSSource, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	s := &FSSource{
		root:    absRoot,
		watcher: fsw,
		events:  make(chan Event, 64),
		errors:  make(chan error, 8),
		watched: make(map[string]bool),
		closeCh: make(chan struct{}),
	}

	for _, dir := range baseDirs(rules) {
		full := filepath.Join(absRoot, filepath.FromSlash(dir))
		if _, err := os.Stat(full); err != nil {
			logger.Op.WithFields(map[string]interface{}{"dir": dir}).Warn("Watch directory does not exist, skipping")
			continue
		}
		if err := s.addRecursive(full); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	s.wg.Add(1)
	go s.loop()
	return s, nil
}

// WatchedDirs returns the number of directories being watched.
func (s *FSSource) WatchedDirs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watched)
}

func (s *FSSource) Events() <-chan Event { return s.events }

func (s *FSSource) Errors() <-chan error { return s.errors }

// Close stops the event loop and releases the fsnotify watcher.
func (s *FSSource) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.closeCh)
	s.mu.Unlock()

	err := s.watcher.Close()
	s.wg.Wait()
	close(s.events)
	close(s.errors)
	return err
}

func (s *FSSource) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// vanished while walking
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		return s.add(p)
	})
}

func (s *FSSource) add(dir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watched[dir] {
		return nil
	}
	if err := s.watcher.Add(dir); err != nil {
		return err
	}
	s.watched[dir] = true
	return nil
}

func (s *FSSource) loop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.closeCh:
			return

		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(ev)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			select {
			case s.errors <- err:
			default:
			}
		}
	}
}

func (s *FSSource) handle(ev fsnotify.Event) {
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := s.addRecursive(ev.Name); err != nil {
				logger.Op.WithFields(map[string]interface{}{"dir": ev.Name, "error": err.Error()}).Warn("Failed to watch new directory")
			}
		}
	}

	event, ok := toEvent(s.root, ev)
	if !ok {
		return
	}
	select {
	case s.events <- event:
	case <-s.closeCh:
	}
}

// toEvent converts an fsnotify event. Permission-only changes and paths
// outside root are dropped.
func toEvent(root string, ev fsnotify.Event) (Event, bool) {
	if ev.Op == fsnotify.Chmod || ev.Op == 0 {
		return Event{}, false
	}
	rel, err := filepath.Rel(root, ev.Name)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return Event{}, false
	}
	return Event{Path: filepath.ToSlash(rel), Op: ev.Op}, true
}

// baseDirs returns the distinct non-glob prefixes of the rule patterns,
// dropping directories already covered by a shorter prefix.
func baseDirs(rules []Rule) []string {
	var dirs []string
	for _, r := range rules {
		base, _ := doublestar.SplitPattern(filepath.ToSlash(r.Pattern))
		if base == "" {
			base = "."
		}
		dirs = append(dirs, base)
	}

	var out []string
	for _, d := range dirs {
		covered := false
		for _, other := range dirs {
			if other != d && isBelow(d, other) {
				covered = true
				break
			}
		}
		if !covered && !contains(out, d) {
			out = append(out, d)
		}
	}
	return out
}

func isBelow(dir, parent string) bool {
	if parent == "." {
		return dir != "."
	}
	return strings.HasPrefix(dir, parent+"/")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
