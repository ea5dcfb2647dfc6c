package utils

import (
	"fmt"
	"strings"
)

// ReportBuilder assembles the plain-text summary printed after a run.
type ReportBuilder struct {
	lines     []string
	separator string
	width     int
}

// NewReportBuilder creates a builder with a 40 column "=" rule.
func NewReportBuilder() *ReportBuilder {
	return &ReportBuilder{separator: "=", width: 40}
}

// WithWidth sets the rule width.
func (rb *ReportBuilder) WithWidth(width int) *ReportBuilder {
	rb.width = width
	return rb
}

// Header adds a title underlined by a rule.
func (rb *ReportBuilder) Header(text string) *ReportBuilder {
	rb.lines = append(rb.lines, text, strings.Repeat(rb.separator, rb.width))
	return rb
}

// AddLine adds a single line.
func (rb *ReportBuilder) AddLine(text string) *ReportBuilder {
	rb.lines = append(rb.lines, text)
	return rb
}

// AddKeyValue adds a "key: value" line.
func (rb *ReportBuilder) AddKeyValue(key string, value interface{}) *ReportBuilder {
	rb.lines = append(rb.lines, fmt.Sprintf("%s: %v", key, value))
	return rb
}

// AddBullet adds a bulleted line.
func (rb *ReportBuilder) AddBullet(text string) *ReportBuilder {
	rb.lines = append(rb.lines, "• "+text)
	return rb
}

// AddTable embeds a rendered table.
func (rb *ReportBuilder) AddTable(t *TableFormatter) *ReportBuilder {
	rb.lines = append(rb.lines, strings.TrimSuffix(t.String(), "\n"))
	return rb
}

// Build returns the report as a single string.
func (rb *ReportBuilder) Build() string {
	return strings.Join(rb.lines, "\n")
}
