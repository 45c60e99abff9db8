// Package processmgr is the supervisor core: spawning, line-buffering,
// teardown escalation, and the poll(2)-based event loop, adapted from the
// teacher package of the same name (originally a dynamic-restart process
// manager for remux channels) down to the two-phase, fixed-child-set model
// spec.md describes.
package processmgr

import (
	"os"
	"os/exec"

	"github.com/kestrel-systems/procwatch/internal/linebuf"
	"github.com/kestrel-systems/procwatch/internal/supconfig"
)

// ChildState is the per-child runtime record: a borrowed reference to its
// configuration, its OS identity once spawned, and the two line buffers
// owning its stdout/stderr pipe read ends. One is created up front for
// every entry in supconfig.Children; it is mutated only by the event loop
// (spawn, drain, reap) — the reaper goroutine a successful spawn starts
// only calls cmd.Wait(), reads PID, sends on a channel and wakes the
// self-pipe.
type ChildState struct {
	Config  *supconfig.ChildConfig
	PID     int
	Running bool

	OutBuf *linebuf.LineBuffer
	ErrBuf *linebuf.LineBuffer

	cmd     *exec.Cmd
	stdoutR *os.File
	stderrR *os.File
}

// NewChildState allocates a quiescent record for cfg. Its line buffers
// write framed records to stdout/stderr once Supervisor.spawn opens them.
func NewChildState(cfg *supconfig.ChildConfig, stdout, stderr *os.File) *ChildState {
	return &ChildState{
		Config:  cfg,
		PID:     -1,
		Running: false,
		OutBuf:  linebuf.New(supconfig.MaxLineLength, stdout),
		ErrBuf:  linebuf.New(supconfig.MaxLineLength, stderr),
	}
}
