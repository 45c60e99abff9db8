package processmgr

import (
	"io"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kestrel-systems/procwatch/internal/report"
	"github.com/kestrel-systems/procwatch/internal/selfpipe"
	"github.com/kestrel-systems/procwatch/internal/supconfig"
)

func newTestSupervisor(children ...*ChildState) *Supervisor {
	wake, err := selfpipe.New()
	if err != nil {
		panic(err)
	}
	return &Supervisor{
		log:        zap.NewNop(),
		rep:        report.New(io.Discard),
		wake:       wake,
		children:   children,
		reapEvents: make(chan reapResult, len(children)+1),
		env:        os.Environ(),
	}
}

func TestSpawnAndReapSuccessfulExit(t *testing.T) {
	cfg := &supconfig.ChildConfig{
		Command:           []string{"/bin/true"},
		Name:              "TRUE",
		TerminationSignal: syscall.SIGTERM,
	}
	c := NewChildState(cfg, os.Stdout, os.Stderr)
	s := newTestSupervisor(c)

	require.NoError(t, s.spawn(c))
	require.True(t, c.Running)
	require.Greater(t, c.PID, 0)

	select {
	case ev := <-s.reapEvents:
		require.Equal(t, c, ev.child)
		require.Equal(t, 0, ev.exitCode)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reap event")
	}
}

func TestSpawnAndReapNonzeroExit(t *testing.T) {
	cfg := &supconfig.ChildConfig{
		Command:           []string{"/bin/false"},
		Name:              "FALSE",
		TerminationSignal: syscall.SIGTERM,
	}
	c := NewChildState(cfg, os.Stdout, os.Stderr)
	s := newTestSupervisor(c)

	require.NoError(t, s.spawn(c))

	select {
	case ev := <-s.reapEvents:
		require.NotZero(t, ev.exitCode)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reap event")
	}
}

func TestSpawnInvalidCommandReturnsError(t *testing.T) {
	cfg := &supconfig.ChildConfig{
		Command: []string{"/no/such/binary-procwatch-test"},
		Name:    "MISSING",
	}
	c := NewChildState(cfg, os.Stdout, os.Stderr)
	s := newTestSupervisor(c)

	require.Error(t, s.spawn(c))
	require.False(t, c.Running)
}

func TestSetupChildrenStopsAtFirstFailure(t *testing.T) {
	ok := &supconfig.ChildConfig{Command: []string{"/bin/true"}, Name: "OK", IsStartupCheck: true}
	bad := &supconfig.ChildConfig{Command: []string{"/no/such/binary-procwatch-test"}, Name: "BAD", IsStartupCheck: true}

	cOK := NewChildState(ok, os.Stdout, os.Stderr)
	cBad := NewChildState(bad, os.Stdout, os.Stderr)
	s := newTestSupervisor(cOK, cBad)

	result := s.setupChildren(PhaseCheck)
	require.Equal(t, -1, result)
	require.True(t, cOK.Running)
	require.False(t, cBad.Running)
}

func TestSetupChildrenReturnsZeroWhenPhaseHasNoMatches(t *testing.T) {
	normalOnly := &supconfig.ChildConfig{Command: []string{"/bin/true"}, Name: "NORMAL", IsStartupCheck: false}
	c := NewChildState(normalOnly, os.Stdout, os.Stderr)
	s := newTestSupervisor(c)

	result := s.setupChildren(PhaseCheck)
	require.Equal(t, 0, result)
}
