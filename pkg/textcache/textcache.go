// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package textcache stores extraction results so that unchanged documents
// are not parsed again.
package textcache

import (
	"context"
	"errors"
	"time"

	"github.com/leseb/fileindexer/pkg/provider"
)

// ErrNotFound is returned when no entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// Providers is the registry of cache backend implementations.
// Import implementation packages with blank imports to register them:
//
//	import _ "github.com/leseb/fileindexer/pkg/textcache/memory"
//	import _ "github.com/leseb/fileindexer/pkg/textcache/sqlite"
//	import _ "github.com/leseb/fileindexer/pkg/textcache/postgres"
var Providers = provider.NewRegistry[map[string]string, Cache]("text_cache")

// Entry is one cached extraction result. Null results are cached too, with
// OK false, so that unsupported or oversized files are skipped cheaply.
type Entry struct {
	Key         string
	Size        int64
	ModTime     time.Time
	// Fingerprint identifies the extraction configuration that produced
	// the entry.
	Fingerprint string
	Text        string
	OK          bool
	Extractor   string
	Truncated   bool
	Reason      string
	UpdatedAt   time.Time
}

// Fresh reports whether the entry still describes a document of the given
// size and modification time, extracted under fingerprint. Times are
// compared at microsecond resolution, the finest every backend keeps.
func (e *Entry) Fresh(size int64, modTime time.Time, fingerprint string) bool {
	return e != nil &&
		e.Size == size &&
		e.ModTime.Truncate(time.Microsecond).Equal(modTime.Truncate(time.Microsecond)) &&
		e.Fingerprint == fingerprint
}

// Cache defines the interface for pluggable result caches.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, entry *Entry) error
	Delete(ctx context.Context, key string) error
	Close() error
}
