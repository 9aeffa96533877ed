// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leseb/fileindexer/pkg/filestore"
)

func init() {
	filestore.Providers.Register("filesystem", func(_ context.Context, params map[string]string) (filestore.Source, error) {
		return New(params["base_dir"])
	})
}

// compile-time checks
var (
	_ filestore.Source    = (*Store)(nil)
	_ filestore.Localizer = (*Store)(nil)
)

// Store implements filestore.Source over a local directory tree. Keys are
// slash separated paths relative to baseDir; hidden files and directories
// are skipped.
type Store struct {
	baseDir string
}

// New creates a filesystem-backed Store, creating baseDir if it does not exist.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		baseDir = "."
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base dir %s: %w", baseDir, err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir %s: %w", baseDir, err)
	}
	return &Store{baseDir: abs}, nil
}

// BaseDir returns the absolute root directory.
func (s *Store) BaseDir() string {
	return s.baseDir
}

// path maps a key to a path inside baseDir, rejecting escapes.
func (s *Store) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(strings.TrimPrefix(key, "/")))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}

// Key returns the key of an absolute or baseDir-relative path.
func (s *Store) Key(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(s.baseDir, p)
	}
	rel, err := filepath.Rel(s.baseDir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// LocalPath returns the on-disk path of key.
func (s *Store) LocalPath(key string) (string, bool) {
	p, err := s.path(key)
	return p, err == nil
}

// List walks baseDir and returns the regular files under prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]filestore.Object, error) {
	var objects []filestore.Object
	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p != s.baseDir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		key, ok := s.Key(p)
		if !ok || !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			// removed while walking
			return nil
		}
		objects = append(objects, filestore.Object{Key: key, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.baseDir, err)
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Stat returns the metadata of key.
func (s *Store) Stat(_ context.Context, key string) (filestore.Object, error) {
	p, err := s.path(key)
	if err != nil {
		return filestore.Object{}, fmt.Errorf("file %s: %w", key, filestore.ErrFileNotFound)
	}
	info, err := os.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return filestore.Object{}, fmt.Errorf("file %s: %w", key, filestore.ErrFileNotFound)
		}
		return filestore.Object{}, fmt.Errorf("stat %s: %w", key, err)
	}
	if !info.Mode().IsRegular() {
		return filestore.Object{}, fmt.Errorf("file %s: %w", key, filestore.ErrFileNotFound)
	}
	return filestore.Object{Key: key, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Open returns the file content.
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if _, err := s.Stat(ctx, key); err != nil {
		return nil, err
	}
	p, _ := s.path(key)
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return f, nil
}

// Put writes data atomically (temp file + rename).
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename content: %w", err)
	}
	return nil
}

// Close is a no-op for the filesystem store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
