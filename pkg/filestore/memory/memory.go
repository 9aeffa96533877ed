// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/leseb/fileindexer/pkg/filestore"
)

func init() {
	filestore.Providers.Register("memory", func(_ context.Context, _ map[string]string) (filestore.Source, error) {
		return New(), nil
	})
}

// compile-time check
var _ filestore.Source = (*Store)(nil)

type entry struct {
	data    []byte
	modTime time.Time
}

// Store is an in-memory document source.
type Store struct {
	mu      sync.RWMutex
	objects map[string]entry
	now     func() time.Time
}

// New creates a new in-memory source.
func New() *Store {
	return &Store{
		objects: make(map[string]entry),
		now:     time.Now,
	}
}

// Put stores a copy of data.
func (s *Store) Put(_ context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[key] = entry{data: bytes.Clone(data), modTime: s.now()}
	return nil
}

// List returns the objects under prefix, sorted by key.
func (s *Store) List(_ context.Context, prefix string) ([]filestore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var objects []filestore.Object
	for key, e := range s.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, filestore.Object{Key: key, Size: int64(len(e.data)), ModTime: e.modTime})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Stat returns the metadata of key.
func (s *Store) Stat(_ context.Context, key string) (filestore.Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.objects[key]
	if !ok {
		return filestore.Object{}, fmt.Errorf("file %s: %w", key, filestore.ErrFileNotFound)
	}
	return filestore.Object{Key: key, Size: int64(len(e.data)), ModTime: e.modTime}, nil
}

// Open returns a reader over the stored bytes.
func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", key, filestore.ErrFileNotFound)
	}
	return io.NopCloser(bytes.NewReader(e.data)), nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(_ context.Context) error {
	return nil
}
