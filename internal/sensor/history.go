package sensor

import "sync"

// DefaultHistorySize is the number of readings kept in memory.
const DefaultHistorySize = 100

// History is a fixed-capacity FIFO of readings. When full, the oldest reading
// is dropped. Safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	buf      []Reading
	capacity int
	head     int // next write position
	count    int
	total    uint64
}

// NewHistory creates a History holding at most capacity readings.
// A non-positive capacity falls back to DefaultHistorySize.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{
		buf:      make([]Reading, capacity),
		capacity: capacity,
	}
}

// Add appends a reading, overwriting the oldest one when full.
func (h *History) Add(r Reading) {
	h.mu.Lock()
	h.buf[h.head] = r
	h.head = (h.head + 1) % h.capacity
	if h.count < h.capacity {
		h.count++
	}
	h.total++
	h.mu.Unlock()
}

// Recent returns up to n of the newest readings, oldest first.
func (h *History) Recent(n int) []Reading {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > h.count {
		n = h.count
	}
	if n <= 0 {
		return nil
	}
	out := make([]Reading, n)
	start := (h.head - n + h.capacity) % h.capacity
	for i := 0; i < n; i++ {
		out[i] = h.buf[(start+i)%h.capacity]
	}
	return out
}

// Len returns the number of readings currently held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Total returns the number of readings ever added.
func (h *History) Total() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}
