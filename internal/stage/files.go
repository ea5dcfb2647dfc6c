// Package stage implements the file pipelines behind every build task:
// discovering inputs, running them through transformers and writing the
// results atomically.
package stage

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rotisserie/eris"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

// File is a discovered input. Path is slash separated and relative to the
// project root; Base is the non-glob prefix of the pattern that matched it.
type File struct {
	Path string
	Base string
}

// Rel returns the path of the file relative to its pattern base. Outputs
// keep this relative path below their destination directory.
func (f File) Rel() string {
	if f.Base == "" || f.Base == "." {
		return f.Path
	}
	return strings.TrimPrefix(f.Path, f.Base+"/")
}

// FileSet is an ordered set of files without duplicate paths.
type FileSet []File

// Paths returns the project-relative path of every file.
func (s FileSet) Paths() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Path
	}
	return out
}

// Predicate selects files.
type Predicate func(File) bool

// Discover resolves patterns against root. Glob patterns contribute their
// matching regular files in lexical order; plain paths are kept in the
// given order and must exist. Patterns starting with "!" remove the files
// they match from the result.
func Discover(root string, patterns ...string) (FileSet, error) {
	var (
		set      FileSet
		seen     = make(map[string]bool)
		excludes []string
		fsys     = os.DirFS(root)
	)

	for _, raw := range patterns {
		if strings.HasPrefix(raw, "!") {
			excludes = append(excludes, cleanPattern(raw[1:]))
			continue
		}
		pattern := cleanPattern(raw)

		files, err := expand(root, fsys, pattern)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			if !seen[f.Path] {
				seen[f.Path] = true
				set = append(set, f)
			}
		}
	}

	if len(excludes) > 0 {
		set = Exclude(set, MatchAny(excludes...))
	}
	return set, nil
}

func expand(root string, fsys fs.FS, pattern string) ([]File, error) {
	if !isGlob(pattern) {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(pattern)))
		if err != nil {
			return nil, &aferrors.IOError{Op: "read", Path: pattern, Err: eris.Wrap(err, "source file is missing")}
		}
		if info.IsDir() {
			return nil, &aferrors.IOError{Op: "read", Path: pattern, Err: eris.New("source is a directory")}
		}
		return []File{{Path: pattern, Base: path.Dir(pattern)}}, nil
	}

	base, _ := doublestar.SplitPattern(pattern)
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, &aferrors.IOError{Op: "glob", Path: pattern, Err: eris.Wrap(err, "invalid pattern")}
	}
	sort.Strings(matches)

	files := make([]File, 0, len(matches))
	for _, m := range matches {
		info, err := fs.Stat(fsys, m)
		if err != nil {
			return nil, &aferrors.IOError{Op: "read", Path: m, Err: eris.Wrap(err, "failed to stat match")}
		}
		if info.IsDir() {
			continue
		}
		files = append(files, File{Path: m, Base: base})
	}
	return files, nil
}

// Exclude returns the files of set for which pred is false.
func Exclude(set FileSet, pred Predicate) FileSet {
	_, rest := Partition(set, pred)
	return rest
}

// Partition splits set into the files matching pred and the rest, both in
// the original order.
func Partition(set FileSet, pred Predicate) (matched, rest FileSet) {
	for _, f := range set {
		if pred(f) {
			matched = append(matched, f)
		} else {
			rest = append(rest, f)
		}
	}
	return matched, rest
}

// MatchAny builds a predicate matching files whose path matches one of
// the doublestar patterns.
func MatchAny(patterns ...string) Predicate {
	cleaned := make([]string, len(patterns))
	for i, p := range patterns {
		cleaned[i] = cleanPattern(p)
	}
	return func(f File) bool {
		for _, p := range cleaned {
			if ok, _ := doublestar.Match(p, f.Path); ok {
				return true
			}
		}
		return false
	}
}

// IsPartial matches style partials such as "_variables.scss".
func IsPartial(f File) bool {
	return strings.HasPrefix(path.Base(f.Path), "_")
}

func cleanPattern(p string) string {
	p = filepath.ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	return path.Clean(p)
}

func isGlob(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}
