package series

import (
	"errors"
	"testing"
)

func TestBufferHighLowWaterEviction(t *testing.T) {
	b, err := NewStreamingBuffer(10, 6)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 10; i++ {
		if evicted := b.Append(float64(i)); evicted != 0 {
			t.Fatalf("append %d evicted %d before high water", i, evicted)
		}
	}
	if b.Len() != 10 {
		t.Fatalf("expected len 10, got %d", b.Len())
	}
	// the 11th append crosses the high-water mark and truncates to low water
	if evicted := b.Append(10); evicted != 5 {
		t.Fatalf("expected 5 evicted, got %d", evicted)
	}
	if b.Len() != 6 {
		t.Fatalf("expected len 6 after truncation, got %d", b.Len())
	}
	tail, err := b.Tail(6)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	for i, v := range tail {
		if v != float64(5+i) {
			t.Fatalf("tail[%d] = %v, want %v", i, v, float64(5+i))
		}
	}
}

func TestBufferNeverExceedsHighWater(t *testing.T) {
	b, err := NewStreamingBuffer(10, 6)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for i := 0; i < 1000; i++ {
		b.Append(float64(i))
		if b.Len() > 10 {
			t.Fatalf("length %d exceeds high water after append %d", b.Len(), i)
		}
	}
}

func TestBufferTailInsufficientData(t *testing.T) {
	b, _ := NewStreamingBuffer(10, 6)
	b.Append(1)
	b.Append(2)
	if _, err := b.Tail(3); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	got, err := b.Tail(2)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected tail %v", got)
	}
}

func TestBufferInvalidWaterMarks(t *testing.T) {
	if _, err := NewStreamingBuffer(5, 5); err == nil {
		t.Fatalf("expected error for hi == lo")
	}
	if _, err := NewStreamingBuffer(5, 0); err == nil {
		t.Fatalf("expected error for lo == 0")
	}
}
