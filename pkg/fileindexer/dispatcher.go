// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package fileindexer selects and runs text extractors for document files.
//
// A Dispatcher owns a Registry of extractor ids (priority order), the
// resource policies parsed from the settings store and one constructed
// Extractor per enabled id. IndexFile never fails because of a bad
// document: oversized, unsupported and unparsable files all yield the null
// result, and only misuse (ErrInvalidInput) is returned as an error.
package fileindexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/leseb/fileindexer/pkg/observability/logging"
)

// Reason explains why a Result carries no text.
type Reason string

const (
	ReasonNone        Reason = ""
	ReasonUnreadable  Reason = "unreadable"
	ReasonTooLarge    Reason = "too_large"
	ReasonUnsupported Reason = "unsupported"
	ReasonFailed      Reason = "failed"
	ReasonEmpty       Reason = "empty"
)

// Result is the outcome of a single extraction. OK is false for the null
// result.
type Result struct {
	Text      string
	OK        bool
	Extractor string
	Truncated bool
	Reason    Reason
	File      File
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger used for extraction failures and policy warnings.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithStatic sets static per-extractor values, keyed by extractor id.
func WithStatic(static map[string]map[string]string) Option {
	return func(d *Dispatcher) {
		d.static = static
	}
}

type snapshot struct {
	policies   Policies
	extractors []Extractor
}

// Dispatcher picks exactly one extractor per file and enforces policies.
// It is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
	settings Settings
	static   map[string]map[string]string
	logger   *slog.Logger
	snap     atomic.Pointer[snapshot]
}

// New builds a Dispatcher and loads its first snapshot from settings.
// Construction errors of enabled extractors are returned: they are setup
// problems, not per-file ones.
func New(ctx context.Context, registry *Registry, settings Settings, opts ...Option) (*Dispatcher, error) {
	if registry == nil {
		return nil, errors.New("fileindexer: registry is required")
	}
	if settings == nil {
		return nil, errors.New("fileindexer: settings are required")
	}
	d := &Dispatcher{
		registry: registry,
		settings: settings,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.Reload(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Reload re-reads policies and the enabled extractor list from settings and
// swaps them in atomically. In-flight extractions finish on the old snapshot.
func (d *Dispatcher) Reload(ctx context.Context) error {
	policies, warnings := LoadPolicies(d.settings)
	for _, w := range warnings {
		d.logger.Warn("policy row skipped", "error", w)
	}

	impls := d.registry.Implementations()
	var extractors []Extractor
	for _, id := range d.registry.Enabled(d.settings.GetStringSlice(KeyEnabled)) {
		e, err := impls.New(ctx, id, Options{
			Settings: Scope(d.settings, id),
			Static:   d.static[id],
		})
		if err != nil {
			return fmt.Errorf("init file indexer %s: %w", id, err)
		}
		extractors = append(extractors, e)
	}

	d.snap.Store(&snapshot{policies: policies, extractors: extractors})
	return nil
}

// Policies returns the active policies.
func (d *Dispatcher) Policies() Policies {
	return d.snap.Load().policies
}

// Extractors returns the enabled extractors in priority order.
func (d *Dispatcher) Extractors() []Extractor {
	return append([]Extractor(nil), d.snap.Load().extractors...)
}

// Select returns the first enabled and available extractor handling ext.
func (d *Dispatcher) Select(ext string) (Extractor, bool) {
	return d.snap.Load().selectFor(NormalizeExt(ext))
}

func (s *snapshot) selectFor(ext string) (Extractor, bool) {
	for _, e := range s.extractors {
		info := e.Info()
		if info.Available && info.Handles(ext) {
			return e, true
		}
	}
	return nil, false
}

// IndexFile extracts the text of input, which must be a path string or a
// Handle. ok is false when no text was extracted; that is not an error.
func (d *Dispatcher) IndexFile(ctx context.Context, input any) (text string, ok bool, err error) {
	res, err := d.Extract(ctx, input)
	if err != nil {
		return "", false, err
	}
	return res.Text, res.OK, nil
}

// Extract is IndexFile with the details of the outcome.
func (d *Dispatcher) Extract(ctx context.Context, input any) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	f, err := Describe(input)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return Result{}, err
		}
		return Result{File: f, Reason: ReasonUnreadable}, nil
	}

	snap := d.snap.Load()
	res := Result{File: f}

	if limit := snap.policies.MaxFileSize.Limit(f.Ext); limit > 0 && f.Size > limit {
		res.Reason = ReasonTooLarge
		return res, nil
	}

	e, found := snap.selectFor(f.Ext)
	if !found {
		res.Reason = ReasonUnsupported
		return res, nil
	}
	res.Extractor = e.Info().ID

	text, err := safeText(ctx, e, f)
	if err != nil {
		d.logger.Error("file indexer error",
			"extractor", res.Extractor,
			"filename", f.Path,
			"error", err.Error())
		res.Reason = ReasonFailed
		return res, nil
	}
	if text == "" {
		res.Reason = ReasonEmpty
		return res, nil
	}

	res.Text, res.Truncated = Truncate(text, snap.policies.MaxTextLength.Limit(f.Ext))
	res.OK = true
	return res, nil
}

// safeText calls e.Text, turning a panic into an ErrExtraction error so a
// single malformed file cannot take the process down.
func safeText(ctx context.Context, e Extractor, f File) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: panic: %v", ErrExtraction, r)
		}
	}()
	return e.Text(ctx, f)
}

// Truncate cuts s to at most n characters on a rune boundary. n <= 0
// leaves s untouched.
func Truncate(s string, n int64) (string, bool) {
	if n <= 0 || int64(len(s)) <= n {
		return s, false
	}
	var count int64
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}

// Augment appends indexed file text to a base index value, the way the
// host composes per-file text into a page's index.
func Augment(base, text string) string {
	var parts []string
	for _, p := range []string{base, text} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ... ")
}
