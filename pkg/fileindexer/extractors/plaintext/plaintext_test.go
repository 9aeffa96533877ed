// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package plaintext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leseb/fileindexer/pkg/fileindexer"
	"github.com/leseb/fileindexer/pkg/settings"
)

func TestExtractor_Text(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	text, err := New().Text(context.Background(), fileindexer.File{Path: path, Ext: "txt"})
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if text != "hello world" {
		t.Errorf("Text = %q, want %q", text, "hello world")
	}
}

func TestExtractor_MissingFile(t *testing.T) {
	_, err := New().Text(context.Background(), fileindexer.File{Path: filepath.Join(t.TempDir(), "nope.txt")})
	if !errors.Is(err, fileindexer.ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
}

func TestExtractor_Info(t *testing.T) {
	info := New().Info()
	if !info.Available || !info.Handles("TXT") || info.Handles("pdf") {
		t.Errorf("unexpected info: %+v", info)
	}
	if New().ConfigSchema() != nil {
		t.Error("plain text has no settings")
	}
}

func TestRegisteredWithDispatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.txt")
	if err := os.WriteFile(path, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}

	reg := fileindexer.DefaultRegistry(nil)
	store := settings.New(map[string]any{
		fileindexer.KeyEnabled: []any{fileindexer.IDPlainText},
	})
	d, err := fileindexer.New(context.Background(), reg, store)
	if err != nil {
		t.Fatalf("fileindexer.New: %v", err)
	}

	text, ok, err := d.IndexFile(context.Background(), path)
	if err != nil || !ok || text != "hello world" {
		t.Errorf("IndexFile = %q, %v, %v; want hello world", text, ok, err)
	}
}
