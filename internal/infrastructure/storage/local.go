package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jvasquez2828/robot-runt-web/internal/domain"
)

// LocalStore keeps report artifacts in a directory on disk. This is the
// default backend; the original deployment wrote into tmp/ and served
// downloads from there.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir failed: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Put(ctx context.Context, name string, data []byte, contentType string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact failed: %w", err)
	}
	return nil
}

func (s *LocalStore) Get(ctx context.Context, name string) ([]byte, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact failed: %w", err)
	}
	return data, nil
}

// resolve rejects names that would escape the artifact directory.
func (s *LocalStore) resolve(name string) (string, error) {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid artifact name: %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

var _ domain.ArtifactStore = (*LocalStore)(nil)
