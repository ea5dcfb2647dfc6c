package errors

import (
	"fmt"
	"sort"
	"strings"
)

// ErrorCategory represents the category of error
type ErrorCategory string

const (
	// ErrorCategoryGraph represents task registration and resolution errors
	ErrorCategoryGraph ErrorCategory = "GRAPH"
	// ErrorCategoryCompile represents invalid style or script syntax
	ErrorCategoryCompile ErrorCategory = "COMPILE"
	// ErrorCategoryIO represents missing sources and unwritable destinations
	ErrorCategoryIO ErrorCategory = "IO"
	// ErrorCategoryTransform represents failures of external transformers
	ErrorCategoryTransform ErrorCategory = "TRANSFORM"
	// ErrorCategoryConfiguration represents configuration errors
	ErrorCategoryConfiguration ErrorCategory = "CONFIGURATION"
	// ErrorCategoryTask represents a task whose action failed
	ErrorCategoryTask ErrorCategory = "TASK"
)

// BuildError represents a structured error with context and troubleshooting information
type BuildError struct {
	Category        ErrorCategory
	Code            string
	Message         string
	Operation       string
	Context         map[string]interface{}
	Troubleshooting []string
	OriginalError   error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s-%s: %s", e.Category, e.Code, e.Message))

	if e.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nOperation: %s", e.Operation))
	}

	if len(e.Context) > 0 {
		sb.WriteString("\nContext:")
		for _, key := range e.contextKeys() {
			sb.WriteString(fmt.Sprintf("\n  %s: %v", key, e.Context[key]))
		}
	}

	if len(e.Troubleshooting) > 0 {
		sb.WriteString("\nTroubleshooting:")
		for i, step := range e.Troubleshooting {
			sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, step))
		}
	}

	if e.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nUnderlying error: %v", e.OriginalError))
	}

	return sb.String()
}

// Unwrap returns the original error for error chain compatibility
func (e *BuildError) Unwrap() error {
	return e.OriginalError
}

// contextKeys returns the context keys in a stable order
func (e *BuildError) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for key := range e.Context {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// NewBuildError creates a new build error with the specified parameters
func NewBuildError(category ErrorCategory, code, message, operation string) *BuildError {
	return &BuildError{
		Category:        category,
		Code:            code,
		Message:         message,
		Operation:       operation,
		Context:         make(map[string]interface{}),
		Troubleshooting: []string{},
	}
}

// WithContext adds context information to the error
func (e *BuildError) WithContext(key string, value interface{}) *BuildError {
	e.Context[key] = value
	return e
}

// WithTroubleshooting adds troubleshooting steps to the error
func (e *BuildError) WithTroubleshooting(steps ...string) *BuildError {
	e.Troubleshooting = append(e.Troubleshooting, steps...)
	return e
}

// WithOriginalError adds the original error to the build error
func (e *BuildError) WithOriginalError(err error) *BuildError {
	e.OriginalError = err
	return e
}
