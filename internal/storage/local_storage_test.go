package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStorage(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := NewLocalStorage(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	t.Run("SaveSnapshot", func(t *testing.T) {
		content := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}

		filename, err := storage.SaveSnapshot(content)
		if err != nil {
			t.Fatalf("Failed to save snapshot: %v", err)
		}

		if filepath.Ext(filename) != ".jpg" {
			t.Errorf("Expected .jpg extension, got %s", filepath.Ext(filename))
		}

		saved, err := os.ReadFile(filepath.Join(tmpDir, filename))
		if err != nil {
			t.Fatalf("Snapshot was not written: %v", err)
		}
		if !bytes.Equal(saved, content) {
			t.Errorf("Snapshot content mismatch")
		}
	})

	t.Run("SaveSnapshotUniqueNames", func(t *testing.T) {
		a, err := storage.SaveSnapshot([]byte("one"))
		if err != nil {
			t.Fatalf("Failed to save snapshot: %v", err)
		}
		b, err := storage.SaveSnapshot([]byte("two"))
		if err != nil {
			t.Fatalf("Failed to save snapshot: %v", err)
		}
		if a == b {
			t.Errorf("Expected unique filenames, got %s twice", a)
		}
	})

	t.Run("OpenSnapshot", func(t *testing.T) {
		content := []byte("snapshot bytes")
		testFile := "open-test.jpg"

		if err := os.WriteFile(filepath.Join(tmpDir, testFile), content, 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		file, err := storage.OpenSnapshot(testFile)
		if err != nil {
			t.Fatalf("Failed to open snapshot: %v", err)
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			t.Fatalf("Failed to read snapshot: %v", err)
		}
		if !bytes.Equal(data, content) {
			t.Errorf("Snapshot content mismatch")
		}
	})

	t.Run("DeleteSnapshot", func(t *testing.T) {
		testFile := "delete-test.jpg"
		fullPath := filepath.Join(tmpDir, testFile)

		if err := os.WriteFile(fullPath, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}

		if err := storage.DeleteSnapshot(testFile); err != nil {
			t.Fatalf("Failed to delete snapshot: %v", err)
		}

		if _, err := os.Stat(fullPath); !os.IsNotExist(err) {
			t.Errorf("Snapshot was not deleted")
		}
	})

	t.Run("PathTraversalPrevention", func(t *testing.T) {
		if _, err := storage.OpenSnapshot("../../../etc/passwd"); err == nil {
			t.Errorf("Path traversal was not prevented")
		}

		if err := storage.DeleteSnapshot("../../../etc/passwd"); err == nil {
			t.Errorf("Path traversal was not prevented in delete")
		}
	})
}
