// Package selfpipe implements the canonical self-pipe trick: a pipe whose
// write end is poked by anything that needs to race-free wake a blocked
// poll(2) call, and whose read end is one more descriptor in that poll set.
//
// In this supervisor the self-pipe is woken by two independent writers: the
// signal bridge (internal/sigbridge) and every child's reap-event goroutine
// (internal/infrastructure/processmgr). Both only ever need to say "wake up
// and look at your flags/channels" — the byte value carries no information.
package selfpipe

import (
	"os"

	"golang.org/x/sys/unix"
)

// Pipe owns one self-pipe. The write end is non-blocking so a writer (which
// may be running with restricted stack/heap assumptions, or simply must
// never block) can never stall on a full pipe; a full pipe only means a
// wake-up is already pending, which is exactly as good as one more byte.
type Pipe struct {
	r *os.File
	w *os.File
}

// New creates the pipe and arms the write end's O_NONBLOCK flag.
func New() (*Pipe, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	if err := unix.SetNonblock(int(w.Fd()), true); err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, err
	}

	return &Pipe{r: r, w: w}, nil
}

// ReadFD returns the descriptor to add to the poll set.
func (p *Pipe) ReadFD() int { return int(p.r.Fd()) }

// Wake writes one byte to the write end. Short writes and EAGAIN are not
// errors: either outcome still leaves at least one wake-up pending for the
// poller to observe, which is the only guarantee this trick needs.
func (p *Pipe) Wake() {
	var b [1]byte
	b[0] = 'X'
	// Fd() would switch the write end back to blocking mode; Control hands
	// over the raw descriptor without touching its flags.
	rc, err := p.w.SyscallConn()
	if err != nil {
		return
	}
	_ = rc.Control(func(fd uintptr) {
		_, _ = unix.Write(int(fd), b[:])
	})
}

// Drain reads and discards up to 1000 bytes in a single call, exactly like
// the reference implementation's read(signal_r, dummy, 1000). The caller
// only invokes Drain after poll(2) has reported the read end ready, so one
// read is guaranteed to return at least one byte without blocking; looping
// until a short read would not be safe here, since (*os.File).Fd() (called
// by ReadFD on every poll-set rebuild) forces the descriptor into blocking
// mode, and an exact multiple of len(buf) pending bytes would then hang the
// next read with nothing left to return. A single read leaving a few bytes
// behind is harmless: they simply wake the next poll iteration too.
func (p *Pipe) Drain() {
	var buf [1000]byte
	_, _ = unix.Read(p.ReadFD(), buf[:])
}

// Close releases both ends.
func (p *Pipe) Close() error {
	err1 := p.r.Close()
	err2 := p.w.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
