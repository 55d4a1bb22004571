package series

import (
	"errors"
	"testing"
)

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

func TestBuildSamplesCountAndAlignment(t *testing.T) {
	const window = 60
	samples, err := BuildSamples(seq(100), window)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(samples) != 40 {
		t.Fatalf("expected 40 samples, got %d", len(samples))
	}
	for i, s := range samples {
		if len(s.Window) != window {
			t.Fatalf("sample %d window length %d", i, len(s.Window))
		}
		// the window is the 60 contiguous elements immediately preceding the label
		if s.Window[0] != float64(i) || s.Window[window-1] != float64(i+window-1) {
			t.Fatalf("sample %d window misaligned: [%v..%v]", i, s.Window[0], s.Window[window-1])
		}
		if s.Label != float64(i+window) {
			t.Fatalf("sample %d label %v", i, s.Label)
		}
	}
}

func TestBuildSamplesInsufficientData(t *testing.T) {
	if _, err := BuildSamples(seq(60), 60); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := BuildSamples(seq(10), 60); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestBuildSamplesWindowsAreSnapshots(t *testing.T) {
	norm := seq(65)
	samples, err := BuildSamples(norm, 60)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	norm[0] = -999
	if samples[0].Window[0] != 0 {
		t.Fatalf("window aliases input slice")
	}
}

func TestSplitPreservesOrder(t *testing.T) {
	samples, err := BuildSamples(seq(70), 60)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	train, test := Split(samples, 0.8)
	if len(train) != 8 || len(test) != 2 {
		t.Fatalf("expected 8/2 split, got %d/%d", len(train), len(test))
	}
	if train[len(train)-1].Label >= test[0].Label {
		t.Fatalf("train suffix overlaps test prefix")
	}
}

func TestSplitClampsFraction(t *testing.T) {
	samples, _ := BuildSamples(seq(62), 60)
	train, test := Split(samples, 1.5)
	if len(train) != len(samples) || len(test) != 0 {
		t.Fatalf("fraction >1 should keep everything in train")
	}
	train, test = Split(samples, -1)
	if len(train) != 0 || len(test) != len(samples) {
		t.Fatalf("fraction <0 should keep everything in test")
	}
}
