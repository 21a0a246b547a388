package cli

import (
	"os"

	"golang.org/x/term"
)

// IsTTY checks if the given file descriptor is a terminal.
func IsTTY(fd uintptr) bool {
	return term.IsTerminal(int(fd))
}

// isInteractive reports whether stderr is attached to a terminal.
// Progress chatter is suppressed when output is piped or captured
// by CI.
func isInteractive() bool {
	return IsTTY(os.Stderr.Fd())
}
