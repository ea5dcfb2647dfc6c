package errors

import (
	"fmt"
	"strings"
)

// DisplayErrorSummary provides a brief summary of the error for logs
func DisplayErrorSummary(err error) string {
	if err == nil {
		return ""
	}
	buildErr := Describe(err)
	summary := fmt.Sprintf("%s-%s: %s", buildErr.Category, buildErr.Code, buildErr.Message)
	if len(summary) > 120 {
		return summary[:117] + "..."
	}
	return summary
}

// ShouldDisplayTroubleshooting determines if troubleshooting info should be shown
func ShouldDisplayTroubleshooting(err error) bool {
	if buildErr := Describe(err); buildErr != nil {
		return len(buildErr.Troubleshooting) > 0
	}
	return false
}

// FormatForCLI formats an error for command-line display with proper spacing
func FormatForCLI(err error) string {
	buildErr := Describe(err)
	if buildErr == nil {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("\n%s Error [%s-%s]\n", categoryTitle(buildErr.Category), buildErr.Category, buildErr.Code))
	sb.WriteString(fmt.Sprintf("  %s\n", buildErr.Message))

	if buildErr.Operation != "" {
		sb.WriteString(fmt.Sprintf("\nFailed Operation: %s\n", buildErr.Operation))
	}

	if len(buildErr.Context) > 0 {
		sb.WriteString("\nDetails:\n")
		for _, key := range buildErr.contextKeys() {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", key, buildErr.Context[key]))
		}
	}

	if len(buildErr.Troubleshooting) > 0 {
		sb.WriteString("\nHow to resolve:\n")
		for i, step := range buildErr.Troubleshooting {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
		}
	}

	if buildErr.OriginalError != nil {
		sb.WriteString(fmt.Sprintf("\nTechnical details: %v\n", buildErr.OriginalError))
	}

	return sb.String()
}

func categoryTitle(c ErrorCategory) string {
	s := strings.ToLower(string(c))
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// IsUserError determines if an error is due to user input/configuration
func IsUserError(err error) bool {
	buildErr := Describe(err)
	if buildErr == nil {
		return false
	}
	switch buildErr.Category {
	case ErrorCategoryGraph, ErrorCategoryConfiguration, ErrorCategoryCompile:
		return true
	}
	return false
}

// GetErrorCode extracts the error code for reporting
func GetErrorCode(err error) string {
	if buildErr := Describe(err); buildErr != nil {
		return fmt.Sprintf("%s-%s", buildErr.Category, buildErr.Code)
	}
	return "UNKNOWN"
}
