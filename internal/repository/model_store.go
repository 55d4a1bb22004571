package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
)

const manifestFile = "manifest.json"

// FileModelStore persists the model manifest as JSON under a directory.
// One manifest per deployment; a new training run overwrites it.
type FileModelStore struct {
	dir string
}

func NewFileModelStore(dir string) *FileModelStore {
	return &FileModelStore{dir: dir}
}

func (s *FileModelStore) Save(m *models.ModelManifest) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	// write-then-rename so a crash never leaves a torn manifest
	tmp := filepath.Join(s.dir, manifestFile+".tmp")
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, manifestFile)); err != nil {
		return fmt.Errorf("rename manifest: %w", err)
	}
	return nil
}

func (s *FileModelStore) Load() (*models.ModelManifest, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domrepo.ErrModelNotFound
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m models.ModelManifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

var _ domrepo.ModelStore = (*FileModelStore)(nil)
