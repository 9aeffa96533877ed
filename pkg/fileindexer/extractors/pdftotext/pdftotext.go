// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package pdftotext registers the pdf_to_text extractor, which runs the
// poppler-utils pdftotext command.
package pdftotext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/leseb/fileindexer/pkg/fileindexer"
)

const (
	// FieldTimeout is the setting holding the per-file timeout in seconds.
	FieldTimeout = "timeout"
	// StaticBinary is the static config key overriding the command path.
	StaticBinary = "binary"

	DefaultBinary  = "pdftotext"
	DefaultTimeout = 60 * time.Second
)

func init() {
	fileindexer.Implementations.Register(fileindexer.IDPdfToText, func(_ context.Context, opts fileindexer.Options) (fileindexer.Extractor, error) {
		timeout := DefaultTimeout
		if opts.Settings != nil {
			timeout = parseTimeout(opts.Settings.GetString(FieldTimeout))
		}
		return New(opts.Static[StaticBinary], timeout), nil
	})
}

// compile-time check
var _ fileindexer.Extractor = (*Extractor)(nil)

// Extractor shells out to pdftotext.
type Extractor struct {
	binary    string
	path      string
	timeout   time.Duration
	available bool
}

// New resolves binary on PATH. An empty binary means "pdftotext" and a
// non-positive timeout means DefaultTimeout.
func New(binary string, timeout time.Duration) *Extractor {
	if binary == "" {
		binary = DefaultBinary
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Extractor{binary: binary, timeout: timeout}
	if path, err := exec.LookPath(binary); err == nil {
		e.path = path
		e.available = true
	}
	return e
}

func parseTimeout(raw string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || secs <= 0 {
		return DefaultTimeout
	}
	return time.Duration(secs) * time.Second
}

// Info describes the extractor. It is available only when the command
// resolves.
func (e *Extractor) Info() fileindexer.Info {
	return fileindexer.Info{
		ID:         fileindexer.IDPdfToText,
		Label:      "PDF to text",
		Icon:       "file-pdf-o",
		Extensions: []string{"pdf"},
		Available:  e.available,
	}
}

// ConfigSchema lists the timeout setting.
func (e *Extractor) ConfigSchema() []fileindexer.ConfigField {
	return []fileindexer.ConfigField{{
		Name:        FieldTimeout,
		Kind:        fileindexer.FieldInteger,
		Label:       "Timeout",
		Description: "Maximum run time of a single pdftotext call, in seconds.",
		Notes:       "Requires poppler-utils. The command path can only be changed in the static configuration.",
		Default:     strconv.Itoa(int(DefaultTimeout / time.Second)),
	}}
}

// Timeout returns the per-file timeout.
func (e *Extractor) Timeout() time.Duration {
	return e.timeout
}

// Text runs "pdftotext -nopgbrk <path> -" and returns its stdout.
func (e *Extractor) Text(ctx context.Context, f fileindexer.File) (string, error) {
	if !e.available {
		return "", fmt.Errorf("%w: %s not found", fileindexer.ErrExtraction, e.binary)
	}

	// An absolute path can never be mistaken for an option.
	path, err := filepath.Abs(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", fileindexer.ErrExtraction, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.path, "-nopgbrk", path, "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %w: pdftotext exceeded %s", fileindexer.ErrExtraction, fileindexer.ErrTimeout, e.timeout)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: pdftotext: %v: %s", fileindexer.ErrExtraction, err, msg)
		}
		return "", fmt.Errorf("%w: pdftotext: %v", fileindexer.ErrExtraction, err)
	}
	return stdout.String(), nil
}
