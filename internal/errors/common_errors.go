package errors

import (
	stderrors "errors"
	"strings"
)

// Common error codes
const (
	// Graph error codes
	CodeUnknownTask   = "001"
	CodeDuplicateTask = "002"
	CodeCycle         = "003"

	// Stage error codes
	CodeCompile   = "001"
	CodeIO        = "001"
	CodeTransform = "001"

	// Task and configuration error codes
	CodeTaskFailed    = "001"
	CodeConfigInvalid = "001"
)

// Describe converts any error of the taxonomy into a BuildError carrying
// category, code and troubleshooting hints for display.
func Describe(err error) *BuildError {
	if err == nil {
		return nil
	}

	var buildErr *BuildError
	if stderrors.As(err, &buildErr) {
		return buildErr
	}

	var unknown *UnknownTaskError
	var duplicate *DuplicateTaskError
	var cycle *CycleError
	var compile *CompileError
	var ioErr *IOError
	var transform *TransformError
	var config *ConfigError
	var stage *StageError
	var task *TaskError

	switch {
	case stderrors.As(err, &unknown):
		e := NewBuildError(ErrorCategoryGraph, CodeUnknownTask, unknown.Error(), "Task resolution").
			WithContext("task", unknown.Name).
			WithTroubleshooting(
				"Run 'assetflow tasks' to list the registered tasks",
				"Check the spelling of the task name and of its prerequisites",
			)
		if unknown.RequiredBy != "" {
			e.WithContext("required_by", unknown.RequiredBy)
		}
		return e
	case stderrors.As(err, &duplicate):
		return NewBuildError(ErrorCategoryGraph, CodeDuplicateTask, duplicate.Error(), "Task registration").
			WithContext("task", duplicate.Name)
	case stderrors.As(err, &cycle):
		return NewBuildError(ErrorCategoryGraph, CodeCycle, cycle.Error(), "Task resolution").
			WithContext("path", strings.Join(cycle.Path, " -> ")).
			WithTroubleshooting("Remove one of the prerequisites along the reported path")
	case stderrors.As(err, &compile):
		e := NewBuildError(ErrorCategoryCompile, CodeCompile, compile.Error(), stageOperation(err)).
			WithTroubleshooting(
				"Fix the syntax error reported above and save the file again",
				"Previously written outputs were left untouched",
			)
		if compile.Path != "" {
			e.WithContext("file", compile.Path)
		}
		return e
	case stderrors.As(err, &ioErr):
		return NewBuildError(ErrorCategoryIO, CodeIO, ioErr.Error(), stageOperation(err)).
			WithContext("path", ioErr.Path).
			WithOriginalError(ioErr.Err).
			WithTroubleshooting(
				"Verify the source path exists relative to the project root",
				"Check that the destination directory is writable",
			)
	case stderrors.As(err, &transform):
		return NewBuildError(ErrorCategoryTransform, CodeTransform, transform.Error(), stageOperation(err)).
			WithContext("transformer", transform.Transformer).
			WithContext("file", transform.Path).
			WithOriginalError(transform.Err)
	case stderrors.As(err, &config):
		return NewBuildError(ErrorCategoryConfiguration, CodeConfigInvalid, config.Error(), "Configuration").
			WithContext("field", config.Field).
			WithTroubleshooting("Run 'assetflow config' to print the effective configuration")
	case stderrors.As(err, &stage):
		return NewBuildError(ErrorCategoryTransform, CodeTransform, stage.Error(), "Stage "+stage.Stage).
			WithOriginalError(stage.Err)
	case stderrors.As(err, &task):
		return NewBuildError(ErrorCategoryTask, CodeTaskFailed, task.Error(), "Task "+task.Task).
			WithOriginalError(task.Err)
	}

	return NewBuildError(ErrorCategoryTask, CodeTaskFailed, err.Error(), "")
}

func stageOperation(err error) string {
	var stage *StageError
	if stderrors.As(err, &stage) {
		return "Stage " + stage.Stage
	}
	return ""
}

// IsGraphError reports whether err is a registration or resolution error of
// the task graph. Those abort a run before any action executes.
func IsGraphError(err error) bool {
	var unknown *UnknownTaskError
	var duplicate *DuplicateTaskError
	var cycle *CycleError
	return stderrors.As(err, &unknown) || stderrors.As(err, &duplicate) || stderrors.As(err, &cycle)
}

// IsTrapped reports whether err went through a stage error boundary and has
// therefore already been reported to the user.
func IsTrapped(err error) bool {
	var stage *StageError
	return stderrors.As(err, &stage)
}

// GetErrorSeverity returns the severity level of an error
func GetErrorSeverity(err error) string {
	if buildErr := Describe(err); buildErr != nil {
		switch buildErr.Category {
		case ErrorCategoryConfiguration:
			return "WARNING"
		case ErrorCategoryGraph:
			return "CRITICAL"
		default:
			return "ERROR"
		}
	}
	return "ERROR"
}
