// Package media stores uploaded files below a root directory that is served
// as static content.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage writes files to Root.  Returned paths are slash separated and
// relative to Root so they can be joined with the public media URL.
type LocalStorage struct {
	Root string
}

func NewLocalStorage(root string) *LocalStorage { return &LocalStorage{Root: root} }

// Save copies r into Root/dir/<uuid>.<ext>.  The file is written under a
// temporary name and renamed once complete so a partial upload is never
// visible.
func (s *LocalStorage) Save(ctx context.Context, dir, ext string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir = strings.Trim(path.Clean("/"+dir), "/")
	ext = strings.TrimPrefix(ext, ".")
	rel := path.Join(dir, uuid.NewString()+"."+ext)

	target := filepath.Join(s.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create media dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	return rel, nil
}
