package series

import (
	"fmt"
	"sync"
)

// StreamingBuffer is a bounded ordered sequence of normalized observations.
// Appends grow the buffer until the high-water mark is exceeded, then the
// oldest elements are dropped in one transition so the length lands exactly on
// the low-water mark. Bulk truncation amortizes the cost of bounding session
// memory; only the most recent window is ever read for inference, so the
// discontinuity in retained history is acceptable.
//
// The live loop is the only writer. The mutex exists for the HTTP accessors,
// which read length and tails concurrently.
type StreamingBuffer struct {
	mu   sync.RWMutex
	hi   int
	lo   int
	vals []float64
}

// NewStreamingBuffer creates a buffer with the given water marks.
func NewStreamingBuffer(hi, lo int) (*StreamingBuffer, error) {
	if lo <= 0 || hi <= lo {
		return nil, fmt.Errorf("invalid water marks hi=%d lo=%d", hi, lo)
	}
	return &StreamingBuffer{hi: hi, lo: lo, vals: make([]float64, 0, hi+1)}, nil
}

// Append adds one value at the tail, truncating to the low-water mark when the
// high-water mark is exceeded. It returns the number of evicted elements.
func (b *StreamingBuffer) Append(v float64) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.vals = append(b.vals, v)
	if len(b.vals) <= b.hi {
		return 0
	}
	drop := len(b.vals) - b.lo
	b.vals = append(b.vals[:0], b.vals[drop:]...)
	return drop
}

// Tail returns a copy of the last n elements in order.
func (b *StreamingBuffer) Tail(n int) ([]float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n <= 0 {
		return nil, fmt.Errorf("tail size must be positive, got %d", n)
	}
	if len(b.vals) < n {
		return nil, fmt.Errorf("tail %d of %d: %w", n, len(b.vals), ErrInsufficientData)
	}
	out := make([]float64, n)
	copy(out, b.vals[len(b.vals)-n:])
	return out, nil
}

// Len returns the current number of buffered values.
func (b *StreamingBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.vals)
}
