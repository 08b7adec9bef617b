package scan

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// State is the shared live progress of one run. Workers mutate it under
// atomic/lock discipline; Snapshot may be called at any time from any
// goroutine without pausing the scan.
type State struct {
	total     atomic.Int64
	completed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64

	mu       sync.Mutex
	inFlight map[string]struct{}
	started  time.Time
}

// Snapshot is a point-in-time view of a State. A momentarily stale snapshot
// is acceptable; the counters are read independently, not under one lock.
type Snapshot struct {
	Completed int64
	Total     int64
	Skipped   int64
	Failed    int64
	InFlight  []string
	Elapsed   time.Duration
}

// NewState creates the progress state for one run.
func NewState() *State {
	return &State{
		inFlight: make(map[string]struct{}),
		started:  time.Now(),
	}
}

// SetTotal records the number of accepted candidates.
func (s *State) SetTotal(n int) {
	s.total.Store(int64(n))
}

// Skip counts one candidate rejected by the pre-filter.
func (s *State) Skip() {
	s.skipped.Add(1)
}

// Begin marks path as in flight.
func (s *State) Begin(path string) {
	s.mu.Lock()
	s.inFlight[path] = struct{}{}
	s.mu.Unlock()
}

// Done marks path complete. failed records whether the file errored.
func (s *State) Done(path string, failed bool) {
	s.mu.Lock()
	delete(s.inFlight, path)
	s.mu.Unlock()
	if failed {
		s.failed.Add(1)
	}
	s.completed.Add(1)
}

// Snapshot returns the current progress. The in-flight names are copied and
// sorted so callers can render them without touching shared state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	inFlight := make([]string, 0, len(s.inFlight))
	for p := range s.inFlight {
		inFlight = append(inFlight, p)
	}
	s.mu.Unlock()
	sort.Strings(inFlight)

	return Snapshot{
		Completed: s.completed.Load(),
		Total:     s.total.Load(),
		Skipped:   s.skipped.Load(),
		Failed:    s.failed.Load(),
		InFlight:  inFlight,
		Elapsed:   time.Since(s.started),
	}
}

// Rate returns completed files per second.
func (sn Snapshot) Rate() float64 {
	secs := sn.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(sn.Completed) / secs
}
