// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package filestoretest provides a shared conformance test suite for
// filestore.Source implementations. Each backend should call
// RunConformanceTests from its own _test.go file.
package filestoretest

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/leseb/fileindexer/pkg/filestore"
)

// RunConformanceTests exercises a Source implementation against the shared
// contract. The newSource function is called once per sub-test to provide an
// isolated, empty source.
func RunConformanceTests(t *testing.T, newSource func(t *testing.T) filestore.Source) {
	t.Helper()

	put := func(t *testing.T, src filestore.Source, key, content string) {
		t.Helper()
		if err := src.Put(context.Background(), key, []byte(content)); err != nil {
			t.Fatalf("Put(%s): %v", key, err)
		}
	}

	t.Run("PutAndStat", func(t *testing.T) {
		src := newSource(t)
		defer src.Close(context.Background())
		ctx := context.Background()

		put(t, src, "reports/q1.txt", "hello")

		obj, err := src.Stat(ctx, "reports/q1.txt")
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if obj.Key != "reports/q1.txt" || obj.Size != 5 || obj.Ext() != "txt" {
			t.Errorf("Stat returned unexpected metadata: %+v", obj)
		}
		if obj.ModTime.IsZero() {
			t.Error("expected a modification time")
		}
	})

	t.Run("Open", func(t *testing.T) {
		src := newSource(t)
		defer src.Close(context.Background())

		put(t, src, "data.csv", "a,b\n1,2\n")

		rc, err := src.Open(context.Background(), "data.csv")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer rc.Close()
		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != "a,b\n1,2\n" {
			t.Errorf("content mismatch: got %q", got)
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		src := newSource(t)
		defer src.Close(context.Background())

		put(t, src, "note.txt", "first")
		put(t, src, "note.txt", "second version")

		obj, err := src.Stat(context.Background(), "note.txt")
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}
		if obj.Size != int64(len("second version")) {
			t.Errorf("Size = %d after overwrite", obj.Size)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		src := newSource(t)
		defer src.Close(context.Background())
		ctx := context.Background()

		_, err := src.Stat(ctx, "missing.pdf")
		if !errors.Is(err, filestore.ErrFileNotFound) {
			t.Errorf("Stat expected ErrFileNotFound, got: %v", err)
		}

		_, err = src.Open(ctx, "missing.pdf")
		if !errors.Is(err, filestore.ErrFileNotFound) {
			t.Errorf("Open expected ErrFileNotFound, got: %v", err)
		}
	})

	t.Run("ListSortedWithPrefix", func(t *testing.T) {
		src := newSource(t)
		defer src.Close(context.Background())
		ctx := context.Background()

		for _, key := range []string{"b/two.txt", "a/one.pdf", "b/one.docx", "c.txt"} {
			put(t, src, key, key)
		}

		all, err := src.List(ctx, "")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		want := []string{"a/one.pdf", "b/one.docx", "b/two.txt", "c.txt"}
		if len(all) != len(want) {
			t.Fatalf("List returned %d objects, want %d: %+v", len(all), len(want), all)
		}
		for i, obj := range all {
			if obj.Key != want[i] {
				t.Errorf("List[%d] = %s, want %s", i, obj.Key, want[i])
			}
			if obj.Size != int64(len(obj.Key)) {
				t.Errorf("List[%d] size = %d", i, obj.Size)
			}
		}

		sub, err := src.List(ctx, "b/")
		if err != nil {
			t.Fatalf("List(b/): %v", err)
		}
		if len(sub) != 2 || sub[0].Key != "b/one.docx" {
			t.Errorf("List(b/) = %+v", sub)
		}
	})

	t.Run("Stage", func(t *testing.T) {
		src := newSource(t)
		defer src.Close(context.Background())
		ctx := context.Background()

		put(t, src, "docs/readme.TXT", "staged content")
		obj, err := src.Stat(ctx, "docs/readme.TXT")
		if err != nil {
			t.Fatalf("Stat: %v", err)
		}

		staged, err := filestore.Stage(ctx, src, obj, t.TempDir())
		if err != nil {
			t.Fatalf("Stage: %v", err)
		}
		data, err := os.ReadFile(staged.Filename())
		if err != nil {
			t.Fatalf("read staged file: %v", err)
		}
		if string(data) != "staged content" {
			t.Errorf("staged content = %q", data)
		}
		if staged.Ext() != "txt" || staged.Size() != int64(len("staged content")) {
			t.Errorf("staged handle = %s %d", staged.Ext(), staged.Size())
		}
		if err := staged.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
}
