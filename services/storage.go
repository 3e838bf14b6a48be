package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// StorageService keeps a copy of every uploaded source document on
// local disk so users can get their originals back after generation.
type StorageService struct {
	dir string
}

func NewStorageService(dir string) *StorageService {
	return &StorageService{dir: dir}
}

// NewStorageServiceFromEnv reads STORAGE_DIR, defaulting to a local
// data directory.
func NewStorageServiceFromEnv() *StorageService {
	dir := os.Getenv("STORAGE_DIR")
	if dir == "" {
		dir = "data/documents"
	}
	return &StorageService{dir: dir}
}

// Save writes the file under a unique per-user path and returns the
// storage-relative path for the document record.
func (s *StorageService) Save(username, filename string, data []byte) (string, error) {
	suffix, err := gonanoid.New(8)
	if err != nil {
		return "", fmt.Errorf("failed to generate storage name: %w", err)
	}

	rel := filepath.Join(username, fmt.Sprintf("%s_%s%s", time.Now().Format("20060102_150405"), suffix, filepath.Ext(filename)))
	full := filepath.Join(s.dir, rel)

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	return rel, nil
}

// Open returns the stored file for serving back to the user.
func (s *StorageService) Open(rel string) (*os.File, error) {
	return os.Open(filepath.Join(s.dir, rel))
}
