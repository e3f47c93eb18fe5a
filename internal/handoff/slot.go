// Package handoff provides the single-slot mailbox between the capture worker
// and the controller context.
package handoff

import (
	"sync"
	"sync/atomic"
)

// Update is one published result of the capture worker.
type Update struct {
	// Epoch identifies the turn the update belongs to. Updates from an older
	// epoch are stale and must be ignored by the consumer.
	Epoch uint64

	// JPEG is the annotated frame encoded as JPEG. May be nil.
	JPEG []byte

	FPS           float64
	FrameDetected int
	TotalDetected int

	// NewLabels lists labels first accumulated since the previous update,
	// in the order they were accumulated.
	NewLabels []string
}

// Stats is a snapshot of slot counters.
type Stats struct {
	Published uint64
	Taken     uint64
	Dropped   uint64
	// Stale counts updates rejected because a newer epoch was pending.
	Stale uint64
}

// Slot holds at most one Update. Put never blocks and overwrites an
// unconsumed value; Take never blocks and reports whether a value was present.
type Slot struct {
	mu      sync.Mutex
	pending *Update

	published atomic.Uint64
	taken     atomic.Uint64
	dropped   atomic.Uint64
	stale     atomic.Uint64
}

// NewSlot creates an empty Slot.
func NewSlot() *Slot {
	return &Slot{}
}

// Put publishes u, replacing any unconsumed update.
//
// When the replaced update belongs to the same epoch, its NewLabels are
// carried into u ahead of u's own labels so a first detection is never lost
// when its frame is dropped. An update from an older epoch than the
// pending one is discarded instead.
func (s *Slot) Put(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev := s.pending; prev != nil {
		if prev.Epoch > u.Epoch {
			s.stale.Add(1)
			return
		}
		s.dropped.Add(1)
		if prev.Epoch == u.Epoch && len(prev.NewLabels) > 0 {
			merged := make([]string, 0, len(prev.NewLabels)+len(u.NewLabels))
			merged = append(merged, prev.NewLabels...)
			merged = append(merged, u.NewLabels...)
			u.NewLabels = merged
		}
	}

	s.pending = &u
	s.published.Add(1)
}

// Take removes and returns the pending update, if any.
func (s *Slot) Take() (Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return Update{}, false
	}

	u := *s.pending
	s.pending = nil
	s.taken.Add(1)
	return u, true
}

// Clear discards any pending update.
func (s *Slot) Clear() {
	s.mu.Lock()
	s.pending = nil
	s.mu.Unlock()
}

// Stats returns the slot counters.
func (s *Slot) Stats() Stats {
	return Stats{
		Published: s.published.Load(),
		Taken:     s.taken.Load(),
		Dropped:   s.dropped.Load(),
		Stale:     s.stale.Load(),
	}
}
