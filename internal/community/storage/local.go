// Package storage provides media payload sinks.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local stores media payloads on the local filesystem under a root
// directory. Keys are slash-separated relative paths.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func (l *Local) Put(ctx context.Context, key, contentType string, content io.Reader) (int64, error) {
	_ = contentType

	path, err := l.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create media directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create media file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, content)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("write media file: %w", err)
	}
	return written, nil
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

func (l *Local) Remove(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// resolve maps a key onto the root, rejecting traversal outside it.
func (l *Local) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid media key %q", key)
	}
	return filepath.Join(l.root, cleaned), nil
}
