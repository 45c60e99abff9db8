package processmgr

import (
	"os"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/kestrel-systems/procwatch/internal/report"
	"github.com/kestrel-systems/procwatch/internal/selfpipe"
	"github.com/kestrel-systems/procwatch/internal/sigbridge"
	"github.com/kestrel-systems/procwatch/internal/supconfig"
	"github.com/kestrel-systems/procwatch/internal/supflags"
)

// Supervisor is the process-wide owned value spec.md §9 asks for: every
// piece of mutable state except the signal flags and self-pipe (which the
// signal bridge must reach from outside the event-loop goroutine) hangs off
// this struct, created once by main and run until every child has exited.
type Supervisor struct {
	log *zap.Logger
	rep *report.Reporter

	runID string
	env   []string

	children []*ChildState

	flags  *supflags.Set
	wake   *selfpipe.Pipe
	bridge *sigbridge.Bridge

	teardownFlag atomic.Bool

	reapEvents chan reapResult
}

// New wires a Supervisor from the compiled-in child table. log is used only
// for internal diagnostics (spawn/poll failures); stdout carries the
// [SYSTEM] and [name] protocol output this module's behavior is tested
// against.
func New(log *zap.Logger) (*Supervisor, error) {
	wake, err := selfpipe.New()
	if err != nil {
		return nil, err
	}

	flags := &supflags.Set{}
	bridge := sigbridge.Start(flags, wake)

	runID := uuid.New().String()

	s := &Supervisor{
		log:        log.With(zap.String("run_id", runID)),
		rep:        report.New(os.Stdout),
		runID:      runID,
		env:        os.Environ(),
		flags:      flags,
		wake:       wake,
		bridge:     bridge,
		reapEvents: make(chan reapResult, 2*len(supconfig.Children)+1),
	}

	for i := range supconfig.Children {
		cfg := &supconfig.Children[i]
		s.children = append(s.children, NewChildState(cfg, os.Stdout, os.Stderr))
	}

	return s, nil
}

// Close releases the signal bridge and self-pipe. Safe to call once, after
// Run returns.
func (s *Supervisor) Close() {
	s.bridge.Stop()
	_ = s.wake.Close()
}

// Run executes the startup-check phase followed, if it passed, by the
// normal phase, and returns the process exit status. The reference
// implementation's main always returns 1 — even when every child exits
// cleanly — on the stated assumption that the supervisor is meant to stay
// alive and any full exit is anomalous; that is preserved here rather than
// "fixed" (spec.md §9 Open Question).
func (s *Supervisor) Run() int {
	s.startupCheckPhase()

	if s.tearingDown() {
		s.rep.System("Startup check failed, shutting down.")
		return 1
	}

	s.normalPhase()

	return 1
}

func (s *Supervisor) startupCheckPhase() {
	result := s.setupChildren(PhaseCheck)

	if result == -1 {
		s.rep.System("Not all check commands could be spawned.")
		s.SoftTeardown()
	} else if result == 0 {
		return
	}

	for s.pump(PhaseCheck) {
	}

	if !s.tearingDown() {
		s.rep.System("All startup checks have passed.")
	}
}

func (s *Supervisor) normalPhase() {
	result := s.setupChildren(PhaseNormal)

	switch {
	case result == -1:
		s.rep.System("Not all children could be spawned.")
		s.SoftTeardown()
	case result == 0:
		s.rep.System("No children specified in configuration, exiting.")
		return
	default:
		s.rep.System("All processes have been spawned.")
	}

	for s.pump(PhaseNormal) {
	}

	s.rep.System("All child processes have exited.")
}

// pump runs exactly one event-loop iteration: build the poll set, block in
// poll(2), drain whatever is ready, process pending signal flags, reap
// terminated children, and report whether any child remains running
// (spec.md §4.6). Each step happens fully before the next — in particular,
// pending child output is always drained before teardown signals are
// dispatched, and signal handling always happens before reap.
func (s *Supervisor) pump(phase Phase) bool {
	entries := s.buildPollSet()
	pollfds := make([]unix.PollFd, len(entries))
	for i, e := range entries {
		pollfds[i] = unix.PollFd{Fd: int32(e.fd), Events: unix.POLLIN}
	}

	n, err := unix.Poll(pollfds, -1)
	if err != nil && err != unix.EINTR {
		s.log.Warn("poll failed", zap.Error(err))
	}

	if n > 0 {
		for i, e := range entries {
			if pollfds[i].Revents&unix.POLLIN == 0 {
				continue
			}
			switch e.kind {
			case pollSignal:
				s.wake.Drain()
			case pollStdout, pollStderr:
				s.drainChildStream(e)
			}
		}
	}

	s.checkSignals()
	s.drainReaps(phase)

	return s.anyRunning()
}

func (s *Supervisor) checkSignals() {
	if s.flags.TestAndClear(supflags.Termination) {
		s.rep.System("Received request to terminate.")
		if s.tearingDown() {
			s.rep.System("Shutdown already in progress, so performing hard shutdown.")
			s.HardTeardown() // os.Exit; never returns
			return
		}
		s.rep.System("Performing soft shutdown.")
		s.SoftTeardown()
	}

	if s.flags.TestAndClear(supflags.Usr1) {
		s.rep.System("Received SIGUSR1.")
		s.forward(syscall.SIGUSR1, func(c *ChildState) bool { return c.Config.ReceivesSIGUSR1 })
	}

	if s.flags.TestAndClear(supflags.Usr2) {
		s.rep.System("Received SIGUSR2.")
		s.forward(syscall.SIGUSR2, func(c *ChildState) bool { return c.Config.ReceivesSIGUSR2 })
	}

	if s.flags.TestAndClear(supflags.Alarm) {
		s.rep.System("Shutdown timeout has arrived, performing hard shutdown.")
		s.HardTeardown() // never returns
	}
}

// forward delivers sig to every running child whose configuration opts in,
// per want, announcing each delivery the way the reference implementation's
// check_signals does. A delivery failure is a diagnostic, not a teardown
// trigger: a child that raced its own exit is not an error condition
// (spec.md §4.4).
func (s *Supervisor) forward(sig syscall.Signal, want func(*ChildState) bool) {
	name := "SIGUSR1"
	if sig == syscall.SIGUSR2 {
		name = "SIGUSR2"
	}

	for _, c := range s.children {
		if !c.Running || !want(c) {
			continue
		}
		s.rep.System("Passing %s to child %s (%d).", name, c.Config.Name, c.PID)
		if err := syscall.Kill(c.PID, sig); err != nil {
			s.log.Warn("signal forward failed", zap.String("child", c.Config.Name), zap.Error(err))
		}
	}
}

func (s *Supervisor) drainChildStream(e pollEntry) {
	c := e.child

	buf := c.OutBuf
	closeFD := &c.stdoutR
	label := "stdout"
	if e.kind == pollStderr {
		buf = c.ErrBuf
		closeFD = &c.stderrR
		label = "stderr"
	}

	more, _, err := buf.Pump(c.Config.Name)
	if more {
		return
	}

	if err != nil {
		s.log.Warn("child stream read failed", zap.String("child", c.Config.Name), zap.String("stream", label), zap.Error(err))
	}

	_ = (*closeFD).Close()
	buf.MarkClosed()
}

func (s *Supervisor) drainReaps(phase Phase) {
	for {
		select {
		case ev := <-s.reapEvents:
			s.reap(ev, phase)
		default:
			return
		}
	}
}

func (s *Supervisor) reap(ev reapResult, phase Phase) {
	c := ev.child
	c.Running = false
	c.PID = -1

	if !c.OutBuf.Quiescent() {
		_ = c.stdoutR.Close()
		c.OutBuf.MarkClosed()
	}
	if !c.ErrBuf.Quiescent() {
		_ = c.stderrR.Close()
		c.ErrBuf.MarkClosed()
	}

	if c.Config.IsStartupCheck {
		if ev.exitCode == 0 {
			s.rep.System("Process for %s (%d) has indicated success.", c.Config.Name, ev.pid)
		} else {
			s.rep.System("Process for %s (%d) has indicated failure.", c.Config.Name, ev.pid)
		}
	} else {
		s.rep.System("Process for %s (%d) has exited.", c.Config.Name, ev.pid)
	}

	if ev.exitCode != 0 || phase != PhaseCheck {
		s.SoftTeardown()
	}
}

func (s *Supervisor) anyRunning() bool {
	for _, c := range s.children {
		if c.Running {
			return true
		}
	}
	return false
}
