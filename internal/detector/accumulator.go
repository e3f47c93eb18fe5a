package detector

import "sync"

// Accumulator is the set of labels recognized since the last Reset.
//
// Each Reset starts a new epoch. Adds carrying an older epoch are ignored, so
// a worker still running after its turn ended cannot leak labels into the
// next turn.
type Accumulator struct {
	mu     sync.Mutex
	epoch  uint64
	seen   map[string]bool
	labels []string
}

// NewAccumulator creates an empty Accumulator at epoch 0.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		seen: make(map[string]bool),
	}
}

// Reset clears the accumulated labels and returns the new epoch.
func (a *Accumulator) Reset() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.epoch++
	a.seen = make(map[string]bool)
	a.labels = nil
	return a.epoch
}

// Add records label for epoch. It reports true only when the label is new
// in the current epoch.
func (a *Accumulator) Add(epoch uint64, label string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if epoch != a.epoch || a.seen[label] {
		return false
	}
	a.seen[label] = true
	a.labels = append(a.labels, label)
	return true
}

// Labels returns the accumulated labels in first-seen order.
func (a *Accumulator) Labels() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.labels...)
}

// Len returns the number of accumulated labels.
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.labels)
}
