// Package supconfig holds the compile-time configuration table the
// supervisor starts from: the constants from the original config.h and the
// fixed sequence of children it spawns. There is no runtime parsing here —
// by design the supervisor has no dynamic reconfiguration surface.
package supconfig

import "syscall"

// MaxLineLength bounds a single emitted log record's payload, matching the
// reference implementation's config.h (which counts the trailing newline;
// this constant does not).
const MaxLineLength = 120

// ShutdownTimeout is the grace period between soft and hard teardown.
const ShutdownTimeout = 10 // seconds

// MaxCommandArgs is the documented upper bound on the length of a
// ChildConfig.Command sequence, mirroring the reference's
// MAX_CHILD_COMMAND_ARGUMENT_COUNT (20 argv entries plus the NULL terminator
// the C array needs but a Go slice does not). Nothing in this module checks
// Command against it.
const MaxCommandArgs = 20

// ChildConfig is immutable for the lifetime of the process: one entry per
// supervised command. All components borrow it read-only.
type ChildConfig struct {
	// Command is the program path followed by its arguments. Command[0] is
	// executed directly (no shell).
	Command []string
	// Name is the short label used as the log-line prefix.
	Name string
	// ReceivesSIGUSR1 and ReceivesSIGUSR2 opt this child into signal
	// forwarding when the supervisor itself receives the corresponding
	// signal.
	ReceivesSIGUSR1 bool
	ReceivesSIGUSR2 bool
	// TerminationSignal is sent to this child during soft teardown.
	TerminationSignal syscall.Signal
	// IsStartupCheck selects which phase spawns this child: true runs it
	// during the startup-check phase and gates the normal phase on its
	// exit status; false runs it as a long-lived normal-phase child.
	IsStartupCheck bool
}

// Children is the fixed, ordered table of supervised commands. Replace this
// with whatever the deployment needs; nothing else in this module reads
// configuration from anywhere else.
var Children = []ChildConfig{
	{
		Command:           []string{"/bin/sh", "-c", "while true; do sleep 5; echo 'hello'; done"},
		Name:              "SLEEPER",
		TerminationSignal: syscall.SIGTERM,
		IsStartupCheck:    false,
	},
	{
		Command:           []string{"/usr/bin/echo", "check done!"},
		Name:              "CHECK",
		TerminationSignal: syscall.SIGTERM,
		IsStartupCheck:    true,
	},
	{
		Command:           []string{"/usr/bin/sh", "-c", "echo doing check...; sleep 6"},
		Name:              "CHECK2",
		TerminationSignal: syscall.SIGTERM,
		IsStartupCheck:    true,
	},
}
