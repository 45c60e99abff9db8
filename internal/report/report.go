// Package report writes the supervisor's user-facing protocol output:
// "[SYSTEM] <text>" system messages on stdout, matching spec.md §6 exactly.
// This is deliberately not routed through the zap diagnostics logger (see
// SPEC_FULL.md §0.1) — its wire format is part of the contract external
// tooling greps for.
package report

import (
	"fmt"
	"io"
)

// Reporter writes framed system messages to a destination stream.
type Reporter struct {
	w io.Writer
}

// New wraps dest (typically os.Stdout) for system messages.
func New(dest io.Writer) *Reporter {
	return &Reporter{w: dest}
}

// System writes one "[SYSTEM] <text>" line.
func (r *Reporter) System(format string, args ...any) {
	fmt.Fprintf(r.w, "[SYSTEM] %s\n", fmt.Sprintf(format, args...))
}
