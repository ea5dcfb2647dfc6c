package utils

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// MessageType defines the type of message box to render.
type MessageType int

const (
	// InfoMessage represents an informational message.
	InfoMessage MessageType = iota
	// SuccessMessage represents a finished build step.
	SuccessMessage
	// WarningMessage represents a recoverable problem.
	WarningMessage
	// ErrorMessage represents a failed build step.
	ErrorMessage
)

const (
	infoPrefix    = "ℹ"
	successPrefix = "✓"
	warningPrefix = "⚠"
	errorPrefix   = "✗"
)

const (
	topLeft     = "╭"
	topRight    = "╮"
	bottomLeft  = "╰"
	bottomRight = "╯"
	horizontal  = "─"
	vertical    = "│"
)

// minBoxWidth keeps boxes readable on very narrow or unknown terminals.
const minBoxWidth = 20

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// Box is a builder for framed terminal messages such as stage failure alerts.
type Box struct {
	messageType MessageType
	title       string
	content     []string
	width       int
}

// NewBox creates a message box sized to the terminal attached to stdout.
func NewBox(messageType MessageType, title string) *Box {
	return &Box{
		messageType: messageType,
		title:       title,
		width:       TerminalWidth(os.Stdout) - 8,
	}
}

// WithWidth overrides the maximum rendered width, borders included.
func (b *Box) WithWidth(width int) *Box {
	b.width = width
	return b
}

// AddLine adds a line of text to the message box content. Embedded
// newlines start new lines.
func (b *Box) AddLine(text string) *Box {
	b.content = append(b.content, strings.Split(text, "\n")...)
	return b
}

// AddBullet adds a bulleted line to the message box content.
func (b *Box) AddBullet(text string) *Box {
	b.content = append(b.content, fmt.Sprintf("• %s", text))
	return b
}

// Render builds and returns the formatted message box as a string.
func (b *Box) Render() string {
	style, prefix := b.styleAndPrefix()

	width := b.width
	if width < minBoxWidth {
		width = minBoxWidth
	}
	contentWidth := width - 6

	var lines []string
	for _, line := range append([]string{b.title}, b.content...) {
		if utf8.RuneCountInString(line) <= contentWidth {
			lines = append(lines, line)
			continue
		}
		lines = append(lines, wrapText(line, contentWidth)...)
	}

	boxWidth := 6
	for _, line := range lines {
		if n := utf8.RuneCountInString(line) + 6; n > boxWidth {
			boxWidth = n
		}
	}

	var sb strings.Builder
	sb.WriteString(style.Render(topLeft+strings.Repeat(horizontal, boxWidth-2)+topRight) + "\n")

	first := lines[0]
	sb.WriteString(fmt.Sprintf("%s %s %s%s %s\n",
		style.Render(vertical),
		style.Bold(true).Render(prefix),
		style.Bold(true).Render(first),
		strings.Repeat(" ", pad(boxWidth-utf8.RuneCountInString(first)-4-utf8.RuneCountInString(prefix))),
		style.Render(vertical)))

	for _, line := range lines[1:] {
		sb.WriteString(fmt.Sprintf("%s   %s%s %s\n",
			style.Render(vertical),
			line,
			strings.Repeat(" ", pad(boxWidth-utf8.RuneCountInString(line)-4)),
			style.Render(vertical)))
	}

	sb.WriteString(style.Render(bottomLeft + strings.Repeat(horizontal, boxWidth-2) + bottomRight))
	return sb.String()
}

func (b *Box) styleAndPrefix() (lipgloss.Style, string) {
	switch b.messageType {
	case SuccessMessage:
		return successStyle, successPrefix
	case WarningMessage:
		return warningStyle, warningPrefix
	case ErrorMessage:
		return errorStyle, errorPrefix
	default:
		return infoStyle, infoPrefix
	}
}

// TerminalWidth returns the width of the terminal behind f, or 80 when f
// is not a terminal.
func TerminalWidth(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

func pad(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// wrapText wraps text to fit within the specified maximum width.
func wrapText(text string, maxWidth int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	current := words[0]
	currentWidth := utf8.RuneCountInString(current)

	for _, word := range words[1:] {
		wordWidth := utf8.RuneCountInString(word)
		if currentWidth+wordWidth+1 <= maxWidth {
			current += " " + word
			currentWidth += wordWidth + 1
			continue
		}
		lines = append(lines, current)
		current = word
		currentWidth = wordWidth
	}
	return append(lines, current)
}
