package fileStore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store keeps uploaded bytes on disk, addressed by content hash.
type Store struct {
	root string
}

func New(dataDir string) (*Store, error) {
	root := filepath.Join(dataDir, "raw")
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("creating raw file directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Save writes data atomically and returns its path. Saving the same hash twice is a no-op.
func (s *Store) Save(contentHash string, data []byte) (string, error) {
	path := s.path(contentHash)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	tmp, err := os.CreateTemp(s.root, contentHash+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("moving file into place: %w", err)
	}
	return path, nil
}

func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading raw file: %w", err)
	}
	return data, nil
}

func (s *Store) path(contentHash string) string {
	return filepath.Join(s.root, contentHash+".pdf")
}
