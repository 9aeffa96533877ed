// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package filestore defines document sources a batch run enumerates, and
// staging of their objects to local paths the extractors can read.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"github.com/leseb/fileindexer/pkg/fileindexer"
	"github.com/leseb/fileindexer/pkg/provider"
)

// ErrFileNotFound is returned when a file does not exist.
var ErrFileNotFound = errors.New("file not found")

// Providers is the registry of source backend implementations.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/leseb/fileindexer/pkg/filestore/memory"
//	import _ "github.com/leseb/fileindexer/pkg/filestore/filesystem"
//	import _ "github.com/leseb/fileindexer/pkg/filestore/s3"
var Providers = provider.NewRegistry[map[string]string, Source]("file_source")

// Object describes one document of a source. Key is slash separated and
// relative to the source root.
type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

// Ext returns the lower-case extension of the key, without the dot.
func (o Object) Ext() string {
	return fileindexer.NormalizeExt(path.Ext(o.Key))
}

// Source defines the interface for pluggable document sources.
type Source interface {
	// List returns the objects whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]Object, error)
	Stat(ctx context.Context, key string) (Object, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Put stores data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte) error
	Close(ctx context.Context) error
}

// Localizer is implemented by sources whose objects already live on the
// local filesystem.
type Localizer interface {
	LocalPath(key string) (string, bool)
}

// compile-time check
var _ fileindexer.Handle = (*Staged)(nil)

// Staged is a source object readable at a local path. It implements
// fileindexer.Handle. Close removes the temporary copy, if any.
type Staged struct {
	Object
	Path string
	temp bool
}

// Filename returns the local path.
func (s *Staged) Filename() string { return s.Path }

// Size returns the object size in bytes.
func (s *Staged) Size() int64 { return s.Object.Size }

// Ext returns the object extension.
func (s *Staged) Ext() string { return s.Object.Ext() }

// Close removes a temporary copy. It is a no-op for local objects.
func (s *Staged) Close() error {
	if !s.temp {
		return nil
	}
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove staged copy: %w", err)
	}
	return nil
}

// Stage makes obj readable at a local path. Local sources hand out the
// original path; others are copied into tmpDir (os.TempDir when empty),
// keeping the extension so extractors can be selected by it.
func Stage(ctx context.Context, src Source, obj Object, tmpDir string) (*Staged, error) {
	if l, ok := src.(Localizer); ok {
		if p, ok := l.LocalPath(obj.Key); ok {
			return &Staged{Object: obj, Path: p}, nil
		}
	}

	rc, err := src.Open(ctx, obj.Key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	pattern := "stage-*"
	if ext := obj.Ext(); ext != "" {
		pattern += "." + ext
	}
	tmp, err := os.CreateTemp(tmpDir, pattern)
	if err != nil {
		return nil, fmt.Errorf("create staging file: %w", err)
	}
	staged := &Staged{Object: obj, Path: tmp.Name(), temp: true}

	n, err := io.Copy(tmp, rc)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = staged.Close()
		return nil, fmt.Errorf("stage %s: %w", obj.Key, err)
	}
	staged.Object.Size = n
	return staged, nil
}
