package processmgr

import (
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/kestrel-systems/procwatch/internal/supconfig"
)

func TestSoftTeardownSignalsRunningChildrenOnce(t *testing.T) {
	// SoftTeardown arms a real process-wide SIGALRM via unix.Alarm; this test
	// supervisor has no sigbridge installed to catch it, so the default
	// disposition (terminate the process) would kill the test binary once
	// the timer fires. Disarm it unconditionally on exit.
	t.Cleanup(func() { unix.Alarm(0) })

	cfg := &supconfig.ChildConfig{
		Command:           []string{"/bin/sh", "-c", "trap 'exit 0' TERM; sleep 5 & wait"},
		Name:              "SLEEPER",
		TerminationSignal: syscall.SIGTERM,
	}
	c := NewChildState(cfg, os.Stdout, os.Stderr)
	s := newTestSupervisor(c)

	require.NoError(t, s.spawn(c))
	require.False(t, s.tearingDown())

	s.SoftTeardown()
	require.True(t, s.tearingDown())

	select {
	case ev := <-s.reapEvents:
		require.Equal(t, 0, ev.exitCode)
	case <-time.After(2 * time.Second):
		t.Fatal("child did not exit after SIGTERM")
	}

	// A second call must be a no-op: no second signal, no panic on an
	// already-exited PID.
	s.SoftTeardown()
}

func TestTearingDownStartsFalse(t *testing.T) {
	s := newTestSupervisor()
	require.False(t, s.tearingDown())
}
