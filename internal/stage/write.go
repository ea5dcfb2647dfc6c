package stage

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/transform"
)

// WriteFileAtomic writes data to a temporary file next to name and renames
// it into place, so readers see either the old or the new contents.
func WriteFileAtomic(name string, data []byte, perm os.FileMode) error {
	tmpName, err := stageFile(name, data, perm)
	if err != nil {
		return err
	}
	return commitFile(tmpName, name)
}

// stageFile writes data to a temporary file in the directory of name and
// returns its path. The caller renames or removes it.
func stageFile(name string, data []byte, perm os.FileMode) (string, error) {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &aferrors.IOError{Op: "write", Path: name, Err: eris.Wrapf(err, "failed to create %s", dir)}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(name)+".tmp-*")
	if err != nil {
		return "", &aferrors.IOError{Op: "write", Path: name, Err: eris.Wrap(err, "failed to create temporary file")}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", &aferrors.IOError{Op: "write", Path: name, Err: eris.Wrap(err, "failed to write temporary file")}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", &aferrors.IOError{Op: "write", Path: name, Err: eris.Wrap(err, "failed to close temporary file")}
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return "", &aferrors.IOError{Op: "write", Path: name, Err: eris.Wrap(err, "failed to set permissions")}
	}
	return tmpName, nil
}

func commitFile(tmpName, name string) error {
	if err := os.Rename(tmpName, name); err != nil {
		os.Remove(tmpName)
		return &aferrors.IOError{Op: "write", Path: name, Err: eris.Wrap(err, "failed to replace output")}
	}
	return nil
}

// ReadFile reads a project-relative file.
func ReadFile(root, rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, &aferrors.IOError{Op: "read", Path: rel, Err: eris.Wrap(err, "failed to read source")}
	}
	return data, nil
}

// Output is a file a stage is about to write. Path is relative to the
// project root.
type Output struct {
	Path     string
	Contents []byte
}

// Sink writes stage outputs below a project root, optionally adding a
// brotli compressed sibling for selected extensions.
type Sink struct {
	Root        string
	Precompress bool
	Quality     int
	// Extensions selects the outputs that get a ".br" sibling, for example
	// ".css" and ".js".
	Extensions []string
}

// Write stores every output. All contents, precompressed variants included,
// are staged next to their destinations before the first one is renamed into
// place, so a failure while producing or staging leaves every existing output
// untouched. Each rename is atomic on its own; a rename failing part way
// through the commit can still leave earlier outputs replaced.
func (s *Sink) Write(outputs ...Output) error {
	all := make([]Output, 0, len(outputs))
	for _, o := range outputs {
		all = append(all, o)
		if !s.compresses(o.Path) {
			continue
		}
		br, err := transform.Brotli(o.Contents, s.Quality)
		if err != nil {
			return &aferrors.TransformError{Transformer: "brotli", Path: o.Path, Err: err}
		}
		all = append(all, Output{Path: o.Path + ".br", Contents: br})
	}

	type staged struct{ tmp, dest string }
	pending := make([]staged, 0, len(all))
	for _, o := range all {
		dest := filepath.Join(s.root(), filepath.FromSlash(o.Path))
		tmp, err := stageFile(dest, o.Contents, 0o644)
		if err != nil {
			for _, p := range pending {
				os.Remove(p.tmp)
			}
			return err
		}
		pending = append(pending, staged{tmp: tmp, dest: dest})
	}

	for i, p := range pending {
		if err := commitFile(p.tmp, p.dest); err != nil {
			for _, rest := range pending[i+1:] {
				os.Remove(rest.tmp)
			}
			return err
		}
	}
	return nil
}

func (s *Sink) compresses(name string) bool {
	if !s.Precompress {
		return false
	}
	ext := strings.ToLower(path.Ext(name))
	for _, e := range s.Extensions {
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}

func (s *Sink) root() string {
	if s.Root == "" {
		return "."
	}
	return s.Root
}
