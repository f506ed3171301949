package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/cbout22/lat/internal/injector"
)

// terminalConfirmer returns a Confirmer reading answers from in, or nil when
// in or out is not a terminal so that prompting falls back to aborting.
func terminalConfirmer(in io.Reader, out io.Writer) injector.Confirmer {
	if !isTerminal(in) || !isTerminal(out) {
		return nil
	}
	return promptConfirmer(in, out)
}

// isTerminal reports whether stream is backed by a terminal. Streams without
// a file descriptor, such as buffers, never are.
func isTerminal(stream any) bool {
	f, ok := stream.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// promptConfirmer asks on out and accepts "y" or "yes" from in.
func promptConfirmer(in io.Reader, out io.Writer) injector.Confirmer {
	reader := bufio.NewReader(in)
	return func(question string) (bool, error) {
		fmt.Fprintf(out, "%s %s ", question, muted.Render("[y/N]"))
		response, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return false, err
		}
		response = strings.TrimSpace(strings.ToLower(response))
		return response == "y" || response == "yes", nil
	}
}
