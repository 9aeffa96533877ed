// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leseb/fileindexer/pkg/batch"
	"github.com/leseb/fileindexer/pkg/core/config"
	"github.com/leseb/fileindexer/pkg/filestore/memory"
	"github.com/leseb/fileindexer/pkg/observability/logging"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func decodeRecords(t *testing.T, out string) map[string]batch.Record {
	t.Helper()
	recs := make(map[string]batch.Record)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var r batch.Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		recs[r.Key] = r
	}
	return recs
}

func TestVersion(t *testing.T) {
	orig := Version
	Version = "test-1.0.0"
	defer func() { Version = orig }()

	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "fileindexer version test-1.0.0") {
		t.Errorf("output = %q", out)
	}
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	notes := writeFile(t, dir, "notes.txt", "meeting notes")
	image := writeFile(t, dir, "photo.png", "\x89PNG")

	out, _, err := execute(t, "--enable", "plain_text", "extract", notes, image)
	if err != nil {
		t.Fatal(err)
	}
	recs := decodeRecords(t, out)
	if r := recs[notes]; !r.OK || r.Text != "meeting notes" || r.Extractor != "plain_text" {
		t.Errorf("notes = %+v", r)
	}
	if r := recs[image]; r.OK || r.Reason != "unsupported" {
		t.Errorf("image = %+v", r)
	}
}

func TestExtractAugment(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.txt", "body")
	out, _, err := execute(t, "--enable", "plain_text", "extract", "--augment", "Page title", path)
	if err != nil {
		t.Fatal(err)
	}
	if r := decodeRecords(t, out)[path]; r.Text != "Page title ... body" {
		t.Errorf("text = %q", r.Text)
	}
}

func TestExtractRequiresPath(t *testing.T) {
	if _, _, err := execute(t, "extract"); err == nil {
		t.Fatal("expected an argument error")
	}
}

func TestExtractorsNoneEnabled(t *testing.T) {
	out, _, err := execute(t, "extractors")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"plain_text", "spreadsheet", "no indexing methods available", "max file size: unlimited"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestExtractorsShadowedExtension(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "config.yaml", `
indexer:
  enabled: [pdf_parser, pdfcpu, plain_text]
  extra: [pdfcpu]
  max_file_size: |
    1048576 pdf
    2048
`)
	out, _, err := execute(t, "--config", cfg, "extractors")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"note: .pdf is handled by pdf_parser, pdfcpu is not used for it",
		"max file size: *=2.0 KiB, pdf=1.0 MiB",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "no indexing methods available") {
		t.Errorf("unexpected availability note:\n%s", out)
	}
}

func TestRun(t *testing.T) {
	docs := t.TempDir()
	writeFile(t, docs, "a.txt", "alpha")
	writeFile(t, docs, "sub/b.txt", "beta")
	writeFile(t, docs, ".hidden/c.txt", "hidden")

	dir := t.TempDir()
	results := filepath.Join(dir, "results.jsonl")
	cfg := writeFile(t, dir, "config.toml", `
[indexer]
enabled = ["plain_text"]

[source]
type = "filesystem"
base_dir = "`+filepath.ToSlash(docs)+`"

[cache]
type = "sqlite"
path = "`+filepath.ToSlash(filepath.Join(dir, "cache.db"))+`"
`)

	_, stderr, err := execute(t, "--config", cfg, "run", "--output", results, "--workers", "2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "2 extracted") {
		t.Errorf("summary = %q", stderr)
	}

	// The second run is served from the cache.
	_, stderr, err = execute(t, "--config", cfg, "run", "--output", results)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "2 cached") {
		t.Errorf("summary = %q", stderr)
	}

	data, err := os.ReadFile(results)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d result lines, want 4:\n%s", len(lines), data)
	}
	recs := decodeRecords(t, string(data))
	if r := recs["sub/b.txt"]; r.Text != "beta" {
		t.Errorf("sub/b.txt = %+v", r)
	}
	if _, ok := recs[".hidden/c.txt"]; ok {
		t.Error("hidden document processed")
	}
}

func TestUnknownExtraExtractor(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "config.yaml", "indexer:\n  extra: [nope]\n")
	if _, _, err := execute(t, "--config", cfg, "extractors"); err == nil {
		t.Fatal("expected an error for an unknown extractor id")
	}
}

func TestReloadDropsRemovedSettings(t *testing.T) {
	ctx := context.Background()
	settingsFile := writeFile(t, t.TempDir(), "settings.toml", `
enabled_file_indexers = ["plain_text"]
max_file_size = "1024"
`)
	cfg := config.Default()
	cfg.Indexer.SettingsFile = settingsFile
	cfg.Cache.Type = "none"
	a := &app{cfg: cfg, logger: logging.Discard()}

	wr, closeAll, err := a.runner(ctx, &runFlags{output: "-"}, memory.New(), io.Discard)
	if err != nil {
		t.Fatal(err)
	}
	defer closeAll()
	if got := wr.dispatcher.Policies().MaxFileSize.Limit("txt"); got != 1024 {
		t.Fatalf("max file size before reload = %d, want 1024", got)
	}

	if err := os.WriteFile(settingsFile, []byte(`enabled_file_indexers = ["plain_text"]`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := wr.reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := wr.dispatcher.Policies().MaxFileSize.Limit("txt"); got != 0 {
		t.Errorf("max file size after reload = %d, want unlimited", got)
	}
	if n := len(wr.dispatcher.Extractors()); n != 1 {
		t.Errorf("enabled extractors after reload = %d, want 1", n)
	}
}
