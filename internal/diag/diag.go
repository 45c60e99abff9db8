// Package diag dumps a fatal-init error chain for the operator before the
// process exits. It is deliberately separate from both the zap diagnostics
// logger and the [SYSTEM] protocol output: fatal-init errors (spec.md §7 —
// self-pipe creation, sigaction, fcntl on the self-pipe, argv misuse) are
// rare enough, and important enough, that it's worth the original full
// structural dump rather than a one-line summary.
package diag

import (
	"errors"
	"fmt"
	"io"

	"github.com/davecgh/go-spew/spew"
)

// DumpFatal walks err's chain, printing each layer's type and, for the
// deepest layer, a full structural dump via go-spew.
func DumpFatal(w io.Writer, context string, err error) {
	fmt.Fprintf(w, "[SYSTEM] fatal: %s: %v\n", context, err)

	var last error
	i := 0
	for e := err; e != nil; e = errors.Unwrap(e) {
		fmt.Fprintf(w, "  [%d] %T: %v\n", i, e, e)
		last = e
		i++
	}

	if last != nil {
		spew.Fdump(w, last)
	}
}
