package processmgr

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/kestrel-systems/procwatch/internal/supconfig"
)

// SoftTeardown is the idempotent soft-shutdown entry point: on its first
// call it sends every running child its configured termination signal and
// arms the shutdown alarm; every subsequent call is a no-op. teardownFlag
// only ever flips false→true once per process (spec.md §3, §4.4).
func (s *Supervisor) SoftTeardown() {
	if s.teardownFlag.Swap(true) {
		return
	}

	s.rep.System("Asking all processes to exit.")

	for _, c := range s.children {
		if !c.Running {
			continue
		}
		_ = syscall.Kill(c.PID, c.Config.TerminationSignal)
	}

	unix.Alarm(uint(supconfig.ShutdownTimeout))
}

// HardTeardown sends SIGKILL to every still-running child and exits the
// process with status 1. It never returns.
func (s *Supervisor) HardTeardown() {
	for _, c := range s.children {
		if !c.Running {
			continue
		}
		_ = syscall.Kill(c.PID, syscall.SIGKILL)
	}
	os.Exit(1)
}

// tearingDown reports whether SoftTeardown has already run.
func (s *Supervisor) tearingDown() bool {
	return s.teardownFlag.Load()
}
