package sched

import "github.com/ngreer/tockcore/internal/process"

// Policy selects the next process to run. Implementations must be
// deterministic given the same process slice and last-run index, so
// scheduling decisions are reproducible in tests.
type Policy interface {
	// SelectNext returns the index into procs of the next runnable
	// process, starting the search just after last. ok is false if no
	// process is runnable.
	SelectNext(procs []*process.Record, last int) (idx int, ok bool)
}

// RoundRobin walks process ids in a fixed cycle, skipping any process
// that is not currently runnable.
type RoundRobin struct{}

func (RoundRobin) SelectNext(procs []*process.Record, last int) (int, bool) {
	n := len(procs)
	if n == 0 {
		return 0, false
	}
	for i := 1; i <= n; i++ {
		idx := (last + i) % n
		if procs[idx].Runnable() {
			return idx, true
		}
	}
	return 0, false
}
