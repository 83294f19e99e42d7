package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type LocalStorage struct {
	basePath string
}

func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// SaveSnapshot writes a JPEG snapshot under a fresh UUID name and returns
// the generated filename.
func (ls *LocalStorage) SaveSnapshot(data []byte) (string, error) {
	filename := fmt.Sprintf("%s.jpg", uuid.New().String())
	fullPath := filepath.Join(ls.basePath, filename)

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save snapshot: %w", err)
	}

	return filename, nil
}

func (ls *LocalStorage) OpenSnapshot(name string) (io.ReadSeekCloser, error) {
	cleanPath := filepath.Clean(name)
	if strings.Contains(cleanPath, "..") {
		return nil, fmt.Errorf("invalid path")
	}

	fullPath := filepath.Join(ls.basePath, cleanPath)
	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}

	return file, nil
}

func (ls *LocalStorage) DeleteSnapshot(name string) error {
	cleanPath := filepath.Clean(name)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("invalid path")
	}

	fullPath := filepath.Join(ls.basePath, cleanPath)
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}

	return nil
}
