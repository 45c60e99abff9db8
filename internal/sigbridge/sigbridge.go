// Package sigbridge is the Go translation of the reference supervisor's
// async-signal-safe handler. A real user-installed sigaction is not
// available from Go: the runtime already intercepts every signal and hands
// it to os/signal.Notify on an ordinary goroutine, internally using the same
// self-pipe trick this package's sibling (internal/selfpipe) implements by
// hand for the rest of the event loop. sigbridge is the thin adapter between
// that channel and this supervisor's flag set + self-pipe, so the rest of
// the system sees the same contract spec.md describes: flags set, one byte
// written, nothing else.
package sigbridge

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrel-systems/procwatch/internal/selfpipe"
	"github.com/kestrel-systems/procwatch/internal/supflags"
)

// Bridge owns the signal channel and the goroutine draining it.
type Bridge struct {
	ch   chan os.Signal
	done chan struct{}
}

// Start installs the handler for SIGTERM, SIGINT, SIGUSR1, SIGUSR2 and
// SIGALRM (no SIGCHLD — see internal/infrastructure/processmgr for why) and
// begins forwarding deliveries into flags and the self-pipe.
func Start(flags *supflags.Set, wake *selfpipe.Pipe) *Bridge {
	ch := make(chan os.Signal, 8)
	signal.Notify(ch,
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGUSR1,
		syscall.SIGUSR2,
		syscall.SIGALRM,
	)

	b := &Bridge{ch: ch, done: make(chan struct{})}

	go func() {
		defer close(b.done)
		for sig := range ch {
			switch sig {
			case syscall.SIGTERM, syscall.SIGINT:
				flags.Raise(supflags.Termination)
			case syscall.SIGUSR1:
				flags.Raise(supflags.Usr1)
			case syscall.SIGUSR2:
				flags.Raise(supflags.Usr2)
			case syscall.SIGALRM:
				flags.Raise(supflags.Alarm)
			}
			wake.Wake()
		}
	}()

	return b
}

// Stop stops signal delivery and waits for the forwarding goroutine to
// drain and exit.
func (b *Bridge) Stop() {
	signal.Stop(b.ch)
	close(b.ch)
	<-b.done
}
