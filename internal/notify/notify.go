// Package notify tells the user how each build stage ended: a short banner
// when a stage completes and a loud, boxed alert when it fails.
package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/mitchellh/colorstring"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
	"github.com/maxkimambo/assetflow/internal/logger"
	"github.com/maxkimambo/assetflow/internal/utils"
)

// Separator is printed above every failure alert.
const Separator = "================================="

// Notifier reports stage outcomes. Implementations must be safe for
// concurrent use; joined stages finish in parallel.
type Notifier interface {
	Success(stage, message string)
	Failure(stage string, err error)
}

// Console writes completion banners to Out and failure alerts to ErrOut.
type Console struct {
	Out    io.Writer
	ErrOut io.Writer
	// Bell rings the terminal bell before a failure alert.
	Bell bool
	// Quiet suppresses completion banners. Failures are always shown.
	Quiet bool
	// Width of the failure box; 0 sizes it to the terminal.
	Width int

	mu    sync.Mutex
	color colorstring.Colorize
}

// NewConsole returns a notifier bound to stdout and stderr.
func NewConsole(bell, quiet bool) *Console {
	c := &Console{Out: os.Stdout, ErrOut: os.Stderr, Bell: bell, Quiet: quiet}
	c.SetColor(isatty.IsTerminal(os.Stdout.Fd()))
	return c
}

// SetColor enables or disables ANSI colors in banners.
func (c *Console) SetColor(enabled bool) {
	c.color = colorstring.Colorize{
		Colors:  colorstring.DefaultColors,
		Disable: !enabled,
		Reset:   true,
	}
}

func (c *Console) Success(stage, message string) {
	logger.Debug("Stage complete", logger.WithStage(stage))
	if c.Quiet {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.Out, "%s %s\n", c.color.Color("[green][bold]==>[reset]"), message)
}

func (c *Console) Failure(stage string, err error) {
	logger.Error("Stage failed",
		logger.WithStage(stage),
		logger.Field{Key: "code", Value: aferrors.GetErrorCode(err)},
		logger.Field{Key: "severity", Value: aferrors.GetErrorSeverity(err)},
		logger.Field{Key: "error", Value: err.Error()})

	box := utils.NewBox(utils.ErrorMessage, fmt.Sprintf("Error in '%s'", stage))
	if c.Width > 0 {
		box.WithWidth(c.Width)
	}
	box.AddLine(err.Error())
	if aferrors.ShouldDisplayTroubleshooting(err) {
		for _, step := range aferrors.Describe(err).Troubleshooting {
			box.AddBullet(step)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Bell {
		fmt.Fprint(c.ErrOut, "\a")
	}
	fmt.Fprintln(c.ErrOut, Separator)
	fmt.Fprintln(c.ErrOut, box.Render())
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Success(string, string) {}

func (Nop) Failure(string, error) {}
