package errors

import (
	"fmt"
	"strings"
)

// UnknownTaskError is returned when a task, or one of its transitive
// prerequisites, is not registered in the graph.
type UnknownTaskError struct {
	Name string
	// RequiredBy is empty when the name was requested directly.
	RequiredBy string
}

func (e *UnknownTaskError) Error() string {
	if e.RequiredBy != "" {
		return fmt.Sprintf("task %q (required by %q) is not registered", e.Name, e.RequiredBy)
	}
	return fmt.Sprintf("task %q is not registered", e.Name)
}

// DuplicateTaskError is returned when a task name is registered twice.
type DuplicateTaskError struct {
	Name string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already registered", e.Name)
}

// CycleError is returned when prerequisite resolution revisits a task that is
// already on the current resolution path.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "circular task dependency: " + strings.Join(e.Path, " -> ")
}

// TaskError wraps the failure of a single task action.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.Task, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// CompileError reports invalid style or script syntax.
type CompileError struct {
	Path   string
	Line   int
	Column int
	Reason string
	Err    error
}

func (e *CompileError) Error() string {
	var sb strings.Builder
	sb.WriteString("compile error")
	if e.Path != "" {
		sb.WriteString(" in ")
		sb.WriteString(e.Path)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf(":%d:%d", e.Line, e.Column))
		}
	}
	if e.Reason != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Reason)
	} else if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *CompileError) Unwrap() error { return e.Err }

// IOError reports a missing source path or an unwritable destination.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// TransformError reports a failure inside an external transformer
// (minifier, prefixer, compressor).
type TransformError struct {
	Transformer string
	Path        string
	Err         error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("%s failed on %s: %v", e.Transformer, e.Path, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// StageError is produced by the stage error boundary. The underlying error is
// one of CompileError, IOError or TransformError; it has already been
// reported when a StageError reaches the caller.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %s", e.Field, e.Reason)
}
