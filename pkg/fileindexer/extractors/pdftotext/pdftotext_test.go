// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package pdftotext

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/leseb/fileindexer/pkg/fileindexer"
	"github.com/leseb/fileindexer/pkg/settings"
)

// fakeBinary writes an executable shell script standing in for pdftotext.
func fakeBinary(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "pdftotext")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractor_Text(t *testing.T) {
	// echo the arguments back so the call shape is visible
	bin := fakeBinary(t, `printf '%s|%s\n' "$1" "$3"; echo "page text"`)
	e := New(bin, time.Second)
	if !e.Info().Available {
		t.Fatal("fake binary should be available")
	}

	text, err := e.Text(context.Background(), fileindexer.File{Path: "/docs/a.pdf", Ext: "pdf"})
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if want := "-nopgbrk|-\npage text\n"; text != want {
		t.Errorf("Text = %q, want %q", text, want)
	}
}

func TestExtractor_DashPathIsNotAnOption(t *testing.T) {
	bin := fakeBinary(t, `printf '%s\n' "$2"`)
	t.Chdir(t.TempDir())

	text, err := New(bin, time.Second).Text(context.Background(), fileindexer.File{Path: "-x.pdf", Ext: "pdf"})
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	arg := strings.TrimSpace(text)
	if !filepath.IsAbs(arg) || filepath.Base(arg) != "-x.pdf" {
		t.Errorf("path argument = %q, want an absolute path to -x.pdf", arg)
	}
}

func TestExtractor_Timeout(t *testing.T) {
	bin := fakeBinary(t, "exec sleep 5")
	e := New(bin, 100*time.Millisecond)

	start := time.Now()
	_, err := e.Text(context.Background(), fileindexer.File{Path: "a.pdf"})
	if !errors.Is(err, fileindexer.ErrTimeout) || !errors.Is(err, fileindexer.ErrExtraction) {
		t.Fatalf("error = %v, want ErrTimeout and ErrExtraction", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("timeout not enforced, took %s", elapsed)
	}
}

func TestExtractor_Failure(t *testing.T) {
	bin := fakeBinary(t, `echo "Syntax Error: broken" >&2; exit 1`)
	_, err := New(bin, time.Second).Text(context.Background(), fileindexer.File{Path: "a.pdf"})
	if !errors.Is(err, fileindexer.ErrExtraction) {
		t.Fatalf("error = %v, want ErrExtraction", err)
	}
	if errors.Is(err, fileindexer.ErrTimeout) {
		t.Error("a failing command is not a timeout")
	}
}

func TestExtractor_MissingBinary(t *testing.T) {
	e := New(filepath.Join(t.TempDir(), "no-such-pdftotext"), 0)
	if e.Info().Available {
		t.Error("missing binary must not be available")
	}
	if e.Timeout() != DefaultTimeout {
		t.Errorf("Timeout = %s, want %s", e.Timeout(), DefaultTimeout)
	}
	if _, err := e.Text(context.Background(), fileindexer.File{Path: "a.pdf"}); !errors.Is(err, fileindexer.ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
}

func TestFactory_StaticBinaryAndTimeout(t *testing.T) {
	bin := fakeBinary(t, "echo ok")
	store := settings.New(map[string]any{"pdf_to_text.timeout": "7"})

	ext, err := fileindexer.Implementations.New(context.Background(), fileindexer.IDPdfToText, fileindexer.Options{
		Settings: fileindexer.Scope(store, fileindexer.IDPdfToText),
		Static:   map[string]string{StaticBinary: bin},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e := ext.(*Extractor)
	if !e.Info().Available {
		t.Error("static binary should resolve")
	}
	if e.Timeout() != 7*time.Second {
		t.Errorf("Timeout = %s, want 7s", e.Timeout())
	}
}

func TestParseTimeout(t *testing.T) {
	for raw, want := range map[string]time.Duration{
		"":    DefaultTimeout,
		"30":  30 * time.Second,
		"0":   DefaultTimeout,
		"-4":  DefaultTimeout,
		"abc": DefaultTimeout,
	} {
		if got := parseTimeout(raw); got != want {
			t.Errorf("parseTimeout(%q) = %s, want %s", raw, got, want)
		}
	}
}
