// Package procio sets up the three pipes a supervised child needs, with the
// exact ownership-transfer discipline spec.md §4.3/§5 describes: every pipe
// endpoint has exactly one owner, and ownership moves explicitly at each
// step rather than being left to whichever goroutine happens to close it
// last.
package procio

import (
	"os"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

// ChildPipes holds every descriptor created for one spawn attempt, before
// ownership has been split between "the child's side" and "the parent's
// side".
type ChildPipes struct {
	StdinR  *os.File // handed to the child as fd 0; always-EOF once stdinW closes
	stdinW  *os.File // closed immediately in the parent — no input path exists
	StdoutW *os.File // handed to the child as fd 1
	StdoutR *os.File // kept by the parent's stdout LineBuffer
	StderrW *os.File // handed to the child as fd 2
	StderrR *os.File // kept by the parent's stderr LineBuffer
}

// Open creates all three pipes and immediately closes the stdin write end,
// giving the child an always-EOF stdin with no input path from the parent
// (spec.md §4.3 step 2; the "do not substitute /dev/null" open question is
// preserved literally here).
//
// On Linux, os.Pipe creates descriptors with O_CLOEXEC already set (it uses
// pipe2(2) under the hood); the explicit CloseOnExec calls below are
// belt-and-suspenders for platforms where that is not guaranteed, matching
// the reference's explicit fcntl(F_SETFD, FD_CLOEXEC) call.
func Open() (*ChildPipes, error) {
	stdinR, stdinW, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	_ = stdinW.Close()

	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		_ = stdinR.Close()
		return nil, err
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		_ = stdinR.Close()
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return nil, err
	}

	if err := unix.CloseOnExec(int(stdoutR.Fd())); err != nil {
		_ = CloseAll(stdinR, stdoutR, stdoutW, stderrR, stderrW)
		return nil, err
	}
	if err := unix.CloseOnExec(int(stderrR.Fd())); err != nil {
		_ = CloseAll(stdinR, stdoutR, stdoutW, stderrR, stderrW)
		return nil, err
	}

	return &ChildPipes{
		StdinR:  stdinR,
		StdoutW: stdoutW,
		StdoutR: stdoutR,
		StderrW: stderrW,
		StderrR: stderrR,
	}, nil
}

// ReleaseParentSide closes the descriptors that belong to the child's side
// once Start() has handed them off via dup2: the stdin read end and both
// write ends. The parent keeps only StdoutR/StderrR from this point on.
func (p *ChildPipes) ReleaseParentSide() error {
	return CloseAll(p.StdinR, p.StdoutW, p.StderrW)
}

// CloseAll closes every file given, combining any errors rather than
// stopping at the first one — a partial spawn failure can leave more than
// one descriptor needing cleanup, and none of them should be left leaked
// because an earlier Close returned an error.
func CloseAll(files ...*os.File) error {
	var err error
	for _, f := range files {
		if f == nil {
			continue
		}
		err = multierr.Append(err, f.Close())
	}
	return err
}
