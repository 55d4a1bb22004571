package repository

import (
	"errors"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
)

func TestFileModelStoreRoundTrip(t *testing.T) {
	s := NewFileModelStore(t.TempDir())

	in := &models.ModelManifest{
		ModelID:   "m-123",
		Window:    60,
		ScaleMin:  10.5,
		ScaleMax:  99.25,
		TrainedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if *out != *in {
		t.Fatalf("manifest mismatch: got %+v want %+v", out, in)
	}
}

func TestFileModelStoreMissing(t *testing.T) {
	s := NewFileModelStore(t.TempDir())
	if _, err := s.Load(); !errors.Is(err, domrepo.ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestFileModelStoreOverwrite(t *testing.T) {
	s := NewFileModelStore(t.TempDir())
	first := &models.ModelManifest{ModelID: "a", Window: 60}
	second := &models.ModelManifest{ModelID: "b", Window: 60}
	if err := s.Save(first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	if err := s.Save(second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	out, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out.ModelID != "b" {
		t.Fatalf("expected latest manifest, got %q", out.ModelID)
	}
}
