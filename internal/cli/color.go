package cli

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// colorEnabled mirrors funxy's detectColorLevel (internal/evaluator/
// builtins_term.go): NO_COLOR wins unconditionally, then the stream must
// be a real terminal (or a Cygwin pty), then TERM=dumb disables it even
// on a tty. We don't need funxy's further truecolor-vs-16-color split
// since the CLI only ever emits one "is this an error" red, not a
// gradient — so this collapses detectColorLevel's three-way result to a
// bool.
func colorEnabled(f *os.File) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false
	}
	if strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return true
}

const (
	ansiRed   = "\x1b[31m"
	ansiReset = "\x1b[0m"
)

func colorize(s string, enabled bool) string {
	if !enabled {
		return s
	}
	return ansiRed + s + ansiReset
}
