package processmgr

// pollKind discriminates a poll entry's flavour: the self-pipe, or one of a
// child's two stream endpoints. Modeled as a sum type with the child
// reference carried only by the stream variants (spec.md §9 — "avoid
// parallel arrays").
type pollKind int

const (
	pollSignal pollKind = iota
	pollStdout
	pollStderr
)

// pollEntry is one descriptor in a poll(2) call, tagged with enough context
// to route a POLLIN event back to the right buffer.
type pollEntry struct {
	fd    int
	kind  pollKind
	child *ChildState
}

// buildPollSet constructs the poll set from scratch: the self-pipe read end
// plus one entry per open stream endpoint of every running child. Upper
// bound: 2*len(children)+1, rebuilt every iteration (spec.md §4.6 step 1 —
// "trivially small N" makes the O(N) rebuild cheap and eliminates a whole
// class of stale-descriptor bugs).
func (s *Supervisor) buildPollSet() []pollEntry {
	entries := make([]pollEntry, 0, 2*len(s.children)+1)
	entries = append(entries, pollEntry{fd: s.wake.ReadFD(), kind: pollSignal})

	for _, c := range s.children {
		if !c.Running {
			continue
		}
		if !c.OutBuf.Quiescent() {
			entries = append(entries, pollEntry{fd: c.OutBuf.SourceFD(), kind: pollStdout, child: c})
		}
		if !c.ErrBuf.Quiescent() {
			entries = append(entries, pollEntry{fd: c.ErrBuf.SourceFD(), kind: pollStderr, child: c})
		}
	}

	return entries
}
