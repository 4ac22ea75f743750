package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// LocalStore keeps uploaded import payloads on local disk until the job has
// consumed them and the retention sweep removes them.
type LocalStore struct {
	baseDir string
}

func NewLocalStore(baseDir string) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "."
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Save writes the payload under a fresh name and returns the name, which the
// job carries as its payload reference.
func (s *LocalStore) Save(ctx context.Context, r io.Reader) (string, error) {
	_ = ctx

	name := uuid.NewString() + ".csv"
	path := filepath.Join(s.baseDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create payload file %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write payload file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close payload file %s: %w", path, err)
	}
	return name, nil
}

func (s *LocalStore) Open(ctx context.Context, sourcePath string) (io.ReadCloser, error) {
	_ = ctx

	path := sourcePath
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.baseDir, sourcePath)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload file %s: %w", path, err)
	}
	return f, nil
}

// PurgeOlderThan removes payload files last modified before cutoff and
// returns how many were removed.
func (s *LocalStore) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	_ = ctx

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload dir %s: %w", s.baseDir, err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(s.baseDir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
