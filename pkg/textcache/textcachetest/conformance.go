// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package textcachetest provides a shared conformance test suite for
// textcache.Cache implementations.
package textcachetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/leseb/fileindexer/pkg/textcache"
)

// RunConformanceTests exercises a Cache implementation against the shared
// contract. The newCache function is called once per sub-test to provide an
// isolated, empty cache.
func RunConformanceTests(t *testing.T, newCache func(t *testing.T) textcache.Cache) {
	t.Helper()

	modTime := time.Date(2025, 3, 4, 5, 6, 7, 891011000, time.UTC)

	t.Run("PutAndGet", func(t *testing.T) {
		cache := newCache(t)
		defer cache.Close()
		ctx := context.Background()

		entry := &textcache.Entry{
			Key:         "reports/q1.pdf",
			Size:        1234,
			ModTime:     modTime,
			Fingerprint: "fp1",
			Text:        "héllo wörld",
			OK:          true,
			Extractor:   "pdf_parser",
			Truncated:   true,
		}
		if err := cache.Put(ctx, entry); err != nil {
			t.Fatalf("Put: %v", err)
		}

		got, err := cache.Get(ctx, entry.Key)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Key != entry.Key || got.Size != entry.Size || got.Text != entry.Text ||
			!got.OK || got.Extractor != entry.Extractor || !got.Truncated || got.Fingerprint != "fp1" {
			t.Errorf("Get returned unexpected entry: %+v", got)
		}
		if !got.Fresh(1234, modTime, "fp1") {
			t.Errorf("entry should be fresh, mod time %v vs %v", got.ModTime, modTime)
		}
		if got.UpdatedAt.IsZero() {
			t.Error("UpdatedAt should be set")
		}
	})

	t.Run("NullResult", func(t *testing.T) {
		cache := newCache(t)
		defer cache.Close()
		ctx := context.Background()

		if err := cache.Put(ctx, &textcache.Entry{Key: "big.xlsx", Size: 1 << 30, ModTime: modTime, Reason: "too_large"}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		got, err := cache.Get(ctx, "big.xlsx")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.OK || got.Reason != "too_large" || got.Text != "" {
			t.Errorf("unexpected null entry: %+v", got)
		}
	})

	t.Run("Upsert", func(t *testing.T) {
		cache := newCache(t)
		defer cache.Close()
		ctx := context.Background()

		if err := cache.Put(ctx, &textcache.Entry{Key: "a.txt", Size: 1, ModTime: modTime, Text: "a", OK: true}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		later := modTime.Add(time.Hour)
		if err := cache.Put(ctx, &textcache.Entry{Key: "a.txt", Size: 2, ModTime: later, Text: "ab", OK: true}); err != nil {
			t.Fatalf("second Put: %v", err)
		}
		got, err := cache.Get(ctx, "a.txt")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Text != "ab" || got.Size != 2 {
			t.Errorf("upsert not applied: %+v", got)
		}
		if got.Fresh(1, modTime, "") {
			t.Error("stale size and mod time reported fresh")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		cache := newCache(t)
		defer cache.Close()
		ctx := context.Background()

		if err := cache.Put(ctx, &textcache.Entry{Key: "gone.txt", ModTime: modTime}); err != nil {
			t.Fatalf("Put: %v", err)
		}
		if err := cache.Delete(ctx, "gone.txt"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := cache.Get(ctx, "gone.txt"); !errors.Is(err, textcache.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got: %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		cache := newCache(t)
		defer cache.Close()
		ctx := context.Background()

		if _, err := cache.Get(ctx, "nope"); !errors.Is(err, textcache.ErrNotFound) {
			t.Errorf("Get expected ErrNotFound, got: %v", err)
		}
		if err := cache.Delete(ctx, "nope"); !errors.Is(err, textcache.ErrNotFound) {
			t.Errorf("Delete expected ErrNotFound, got: %v", err)
		}
	})
}
