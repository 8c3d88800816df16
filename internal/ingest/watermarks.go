package ingest

import (
	"sync"
	"time"
)

// Watermarks tracks, per appliance, the newest report timestamp already
// taken into correlation. It is shared by every path that correlates
// reports also visible to the poller.
type Watermarks struct {
	mu    sync.Mutex
	marks map[string]time.Time
}

// NewWatermarks creates an empty set.
func NewWatermarks() *Watermarks {
	return &Watermarks{marks: make(map[string]time.Time)}
}

// Advance records at for name and reports whether it was newer than the
// current mark. Older or equal timestamps leave the mark unchanged.
func (w *Watermarks) Advance(name string, at time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if last, seen := w.marks[name]; seen && !at.After(last) {
		return false
	}
	w.marks[name] = at
	return true
}

// Len returns the number of tracked appliances.
func (w *Watermarks) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.marks)
}
