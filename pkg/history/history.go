// Package history keeps the bounded, insertion-ordered telemetry log the
// prediction engine reads from.
package history

import (
	"sync"

	"network-orchestrator-be/internal/entity"
)

// DefaultCapacity is the maximum number of samples retained.
const DefaultCapacity = 300

// History is a FIFO-evicting sample log. Safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	capacity int
	samples  []entity.TelemetrySample
}

// New creates a history holding at most capacity samples. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		capacity: capacity,
		samples:  make([]entity.TelemetrySample, 0, capacity),
	}
}

// Record appends sample, evicting the oldest entry once the cap is exceeded.
func (h *History) Record(sample entity.TelemetrySample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.samples = append(h.samples, sample)
	if over := len(h.samples) - h.capacity; over > 0 {
		// shift in place so the backing array does not grow unbounded
		copy(h.samples, h.samples[over:])
		h.samples = h.samples[:h.capacity]
	}
}

// Recent returns the last n samples in insertion order. The slice is a copy.
func (h *History) Recent(n int) []entity.TelemetrySample {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 {
		return []entity.TelemetrySample{}
	}
	if n > len(h.samples) {
		n = len(h.samples)
	}
	out := make([]entity.TelemetrySample, n)
	copy(out, h.samples[len(h.samples)-n:])
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

func (h *History) Capacity() int {
	return h.capacity
}

// Snapshot returns every retained sample, oldest first.
func (h *History) Snapshot() []entity.TelemetrySample {
	return h.Recent(h.capacity)
}

// Restore replaces the contents with samples, keeping only the newest ones
// when more than the capacity are supplied.
func (h *History) Restore(samples []entity.TelemetrySample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(samples) > h.capacity {
		samples = samples[len(samples)-h.capacity:]
	}
	h.samples = make([]entity.TelemetrySample, len(samples), h.capacity)
	copy(h.samples, samples)
}
