package notify

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aferrors "github.com/maxkimambo/assetflow/internal/errors"
)

func newTestConsole(bell, quiet bool) (*Console, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	c := &Console{Out: &out, ErrOut: &errOut, Bell: bell, Quiet: quiet, Width: 60}
	c.SetColor(false)
	return c, &out, &errOut
}

func TestConsoleSuccess(t *testing.T) {
	c, out, errOut := newTestConsole(true, false)

	c.Success("scss", "SCSS task complete.")

	assert.Equal(t, "==> SCSS task complete.\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestConsoleQuietSuppressesBanners(t *testing.T) {
	c, out, errOut := newTestConsole(true, true)

	c.Success("fonts", "Fonts task complete.")
	c.Failure("fonts", &aferrors.IOError{Op: "read", Path: "src/fonts/a.woff", Err: fmt.Errorf("denied")})

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "src/fonts/a.woff")
}

func TestConsoleFailure(t *testing.T) {
	tests := []struct {
		name     string
		bell     bool
		wantBell bool
	}{
		{name: "with bell", bell: true, wantBell: true},
		{name: "without bell", bell: false, wantBell: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, out, errOut := newTestConsole(tt.bell, false)

			c.Failure("scss", &aferrors.CompileError{Path: "src/scss/main.scss", Line: 2, Column: 5, Reason: "expected \"}\""})

			assert.Empty(t, out.String())
			got := errOut.String()
			assert.Equal(t, tt.wantBell, strings.HasPrefix(got, "\a"))
			assert.Contains(t, got, Separator)
			assert.Contains(t, got, "Error in 'scss'")
			assert.Contains(t, got, "src/scss/main.scss:2:5")
			assert.Contains(t, got, "• Previously written outputs were left untouched")
		})
	}
}

func TestConsoleConcurrentUse(t *testing.T) {
	c, out, _ := newTestConsole(false, false)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Success("images", fmt.Sprintf("done %d", i))
		}(i)
	}
	wg.Wait()

	assert.Len(t, strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n"), 20)
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	var n Notifier = r

	n.Success("scss", "SCSS task complete.")
	n.Failure("compile", fmt.Errorf("boom"))

	assert.Equal(t, []string{"SCSS task complete."}, r.Messages())
	require.Len(t, r.Failures(), 1)
	assert.Equal(t, "compile", r.Failures()[0].Stage)
	assert.EqualError(t, r.Failures()[0].Err, "boom")
}
