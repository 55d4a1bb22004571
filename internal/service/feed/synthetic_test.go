package feed

import (
	"context"
	"testing"
)

func TestSyntheticFeedDeterministicForSeed(t *testing.T) {
	a := NewSyntheticFeed(100, 0.5, 1, 42)
	b := NewSyntheticFeed(100, 0.5, 1, 42)

	ctx := context.Background()
	for i := 0; i < 50; i++ {
		pa, err := a.Next(ctx)
		if err != nil {
			t.Fatalf("next a: %v", err)
		}
		pb, err := b.Next(ctx)
		if err != nil {
			t.Fatalf("next b: %v", err)
		}
		if pa.Price != pb.Price {
			t.Fatalf("tick %d: prices diverged: %v vs %v", i, pa.Price, pb.Price)
		}
	}
}

func TestSyntheticFeedHonorsFloor(t *testing.T) {
	f := NewSyntheticFeed(1.0, 50, 0.5, 7)
	ctx := context.Background()
	for i := 0; i < 500; i++ {
		p, err := f.Next(ctx)
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if p.Price < 0.5 {
			t.Fatalf("tick %d: price %v below floor", i, p.Price)
		}
	}
}

func TestSyntheticFeedFetchHistory(t *testing.T) {
	f := NewSyntheticFeed(100, 0.5, 1, 42)
	points, err := f.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(points) != 24*60 {
		t.Fatalf("expected %d points, got %d", 24*60, len(points))
	}
	for i := 1; i < len(points); i++ {
		if !points[i].Timestamp.After(points[i-1].Timestamp) {
			t.Fatalf("timestamps not increasing at %d", i)
		}
	}
}

func TestSyntheticFeedNextCancelled(t *testing.T) {
	f := NewSyntheticFeed(100, 0.5, 1, 42)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Next(ctx); err == nil {
		t.Fatal("expected error after cancel")
	}
}
