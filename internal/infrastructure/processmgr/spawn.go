package processmgr

import (
	"errors"
	"os/exec"
	"syscall"

	"go.uber.org/zap"

	"github.com/kestrel-systems/procwatch/internal/procio"
)

// Phase selects which children setupChildren considers.
type Phase int

const (
	PhaseCheck Phase = iota
	PhaseNormal
)

// setupChildren spawns every configured child whose IsStartupCheck matches
// phase, stopping at the first failure. Already-spawned siblings are left
// running; the caller is responsible for tearing them down (spec.md §4.3).
//
// Returns -1 on a spawn failure, 0 if no configs matched phase, otherwise
// the count spawned.
func (s *Supervisor) setupChildren(phase Phase) int {
	spawned := 0

	for _, c := range s.children {
		if phase == PhaseCheck && !c.Config.IsStartupCheck {
			continue
		}
		if phase == PhaseNormal && c.Config.IsStartupCheck {
			continue
		}

		if err := s.spawn(c); err != nil {
			s.log.Warn("spawn failed", zap.String("child", c.Config.Name), zap.Error(err))
			return -1
		}
		spawned++
	}

	return spawned
}

// spawn creates pipes, starts the child, transfers pipe ownership, and
// arms its dedicated reaper goroutine.
func (s *Supervisor) spawn(c *ChildState) error {
	pipes, err := procio.Open()
	if err != nil {
		return err
	}

	cmd := exec.Command(c.Config.Command[0], c.Config.Command[1:]...)
	cmd.Env = s.env
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,             // own process group so a signal to it doesn't hit the supervisor
		Pdeathsig: syscall.SIGKILL, // safety net if the supervisor dies without tearing down
	}
	cmd.Stdin = pipes.StdinR
	cmd.Stdout = pipes.StdoutW
	cmd.Stderr = pipes.StderrW

	if err := cmd.Start(); err != nil {
		_ = procio.CloseAll(pipes.StdinR, pipes.StdoutW, pipes.StdoutR, pipes.StderrW, pipes.StderrR)
		return err
	}

	if err := pipes.ReleaseParentSide(); err != nil {
		s.log.Warn("failed closing child-side pipe ends", zap.String("child", c.Config.Name), zap.Error(err))
	}

	c.cmd = cmd
	c.PID = cmd.Process.Pid
	c.Running = true
	c.stdoutR = pipes.StdoutR
	c.stderrR = pipes.StderrR
	c.OutBuf.Open(int(pipes.StdoutR.Fd()))
	c.ErrBuf.Open(int(pipes.StderrR.Fd()))

	go s.reapChild(c)

	return nil
}

// reapResult is what a child's dedicated reaper goroutine hands back to the
// event loop. Go's os/exec owns SIGCHLD/wait4 internally, so a manual
// waitpid(-1, WNOHANG) loop racing it is unsafe; one goroutine blocking in
// cmd.Wait() per child is the supported way to reap it (see SPEC_FULL.md
// §0.2). The goroutine wakes the poller the same way the signal bridge
// does, over the shared self-pipe.
type reapResult struct {
	child    *ChildState
	pid      int
	exitCode int
}

func (s *Supervisor) reapChild(c *ChildState) {
	err := c.cmd.Wait()

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = 1
		}
	}

	s.reapEvents <- reapResult{child: c, pid: c.PID, exitCode: exitCode}
	s.wake.Wake()
}
