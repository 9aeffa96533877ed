// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch runs the dispatcher over every document of a source with
// bounded concurrency, and watches directories for changes.
package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/leseb/fileindexer/pkg/fileindexer"
	"github.com/leseb/fileindexer/pkg/filestore"
	"github.com/leseb/fileindexer/pkg/observability/logging"
	"github.com/leseb/fileindexer/pkg/textcache"
)

// Extractor is the part of fileindexer.Dispatcher the runner needs.
type Extractor interface {
	Extract(ctx context.Context, input any) (fileindexer.Result, error)
	Policies() fileindexer.Policies
}

// Summary counts the outcomes of a run.
type Summary struct {
	RunID     string
	Files     int
	Extracted int
	Null      int
	Cached    int
	Failed    int
	Deleted   int
	Bytes     int64
	Duration  time.Duration
}

// String renders the summary for logs and the CLI.
func (s Summary) String() string {
	return fmt.Sprintf("%d files (%s): %d extracted, %d without text, %d cached, %d failed, %d deleted in %s",
		s.Files, humanize.Bytes(uint64(max(s.Bytes, 0))), s.Extracted, s.Null, s.Cached, s.Failed, s.Deleted,
		s.Duration.Round(time.Millisecond))
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of concurrent extractions.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithRateLimit caps extractions per second. 0 means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(r *Runner) {
		if perSecond > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithCache enables result caching. fingerprint identifies the extraction
// configuration; entries made under another fingerprint are stale.
func WithCache(c textcache.Cache, fingerprint string) Option {
	return func(r *Runner) {
		r.cache = c
		r.fingerprint = fingerprint
	}
}

// WithLogger sets the logger for run lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTempDir sets where remote objects are staged.
func WithTempDir(dir string) Option {
	return func(r *Runner) {
		r.tmpDir = dir
	}
}

// Runner extracts the documents of a source into a sink.
type Runner struct {
	extractor   Extractor
	source      filestore.Source
	sink        Sink
	cache       textcache.Cache
	fingerprint string
	limiter     *rate.Limiter
	workers     int
	tmpDir      string
	logger      *slog.Logger
}

// NewRunner creates a runner. Per-document failures are recorded, never
// returned; only source, sink and context errors stop a run.
func NewRunner(extractor Extractor, source filestore.Source, sink Sink, opts ...Option) *Runner {
	r := &Runner{
		extractor: extractor,
		source:    source,
		sink:      sink,
		workers:   4,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type tally struct {
	mu sync.Mutex
	s  Summary
}

func (t *tally) add(rec Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.Files++
	t.s.Bytes += rec.Size
	switch {
	case rec.Deleted:
		t.s.Deleted++
	case rec.Error != "", rec.Reason == string(fileindexer.ReasonFailed):
		t.s.Failed++
	case rec.Cached:
		t.s.Cached++
	case rec.OK:
		t.s.Extracted++
	default:
		t.s.Null++
	}
}

// Run processes every object under prefix.
func (r *Runner) Run(ctx context.Context, prefix string) (Summary, error) {
	objects, err := r.source.List(ctx, prefix)
	if err != nil {
		return Summary{}, fmt.Errorf("list source: %w", err)
	}
	return r.run(ctx, objects, nil)
}

// RunKeys processes the given keys. Keys that no longer exist are dropped
// from the cache and reported as deleted.
func (r *Runner) RunKeys(ctx context.Context, keys []string) (Summary, error) {
	var (
		objects []filestore.Object
		deleted []string
	)
	for _, key := range keys {
		obj, err := r.source.Stat(ctx, key)
		if errors.Is(err, filestore.ErrFileNotFound) {
			deleted = append(deleted, key)
			continue
		}
		if err != nil {
			return Summary{}, fmt.Errorf("stat %s: %w", key, err)
		}
		objects = append(objects, obj)
	}
	return r.run(ctx, objects, deleted)
}

func (r *Runner) run(ctx context.Context, objects []filestore.Object, deleted []string) (Summary, error) {
	start := time.Now()
	t := &tally{s: Summary{RunID: uuid.NewString()}}
	logger := r.logger.With("run_id", t.s.RunID)
	logger.Info("batch run started", "files", len(objects), "deleted", len(deleted), "workers", r.workers)

	for _, key := range deleted {
		if r.cache != nil {
			if err := r.cache.Delete(ctx, key); err != nil && !errors.Is(err, textcache.ErrNotFound) {
				logger.Warn("cache delete failed", "key", key, "error", err)
			}
		}
		rec := Record{RunID: t.s.RunID, Key: key, Deleted: true}
		if err := r.sink.Write(ctx, rec); err != nil {
			return t.s, err
		}
		t.add(rec)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, obj := range objects {
		if r.limiter != nil {
			if err := r.limiter.Wait(gctx); err != nil {
				break
			}
		}
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rec, err := r.process(gctx, t.s.RunID, obj)
			if err != nil {
				return err
			}
			if err := r.sink.Write(gctx, rec); err != nil {
				return err
			}
			t.add(rec)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	t.mu.Lock()
	summary := t.s
	t.mu.Unlock()
	summary.Duration = time.Since(start)

	if err != nil {
		logger.Error("batch run aborted", "error", err, "summary", summary.String())
		return summary, err
	}
	logger.Info("batch run finished", "summary", summary.String())
	return summary, nil
}

// process extracts one object. The returned error is only set when the
// run must stop.
func (r *Runner) process(ctx context.Context, runID string, obj filestore.Object) (Record, error) {
	rec := Record{RunID: runID, Key: obj.Key, Size: obj.Size}

	if r.cache != nil {
		entry, err := r.cache.Get(ctx, obj.Key)
		if err == nil && entry.Fresh(obj.Size, obj.ModTime, r.fingerprint) {
			rec.OK = entry.OK
			rec.Text = entry.Text
			rec.Extractor = entry.Extractor
			rec.Truncated = entry.Truncated
			rec.Reason = entry.Reason
			rec.Cached = true
			return rec, nil
		}
		if err != nil && !errors.Is(err, textcache.ErrNotFound) {
			r.logger.Warn("cache lookup failed", "key", obj.Key, "error", err)
		}
	}

	// Oversized objects are rejected before they are downloaded.
	if limit := r.extractor.Policies().MaxFileSize.Limit(obj.Ext()); limit > 0 && obj.Size > limit {
		rec.Reason = string(fileindexer.ReasonTooLarge)
		return rec, nil
	}

	staged, err := filestore.Stage(ctx, r.source, obj, r.tmpDir)
	if err != nil {
		if ctx.Err() != nil {
			return rec, ctx.Err()
		}
		rec.Error = err.Error()
		return rec, nil
	}
	defer func() {
		if err := staged.Close(); err != nil {
			r.logger.Warn("staged copy not removed", "path", staged.Path, "error", err)
		}
	}()

	res, err := r.extractor.Extract(ctx, staged)
	if err != nil {
		if ctx.Err() != nil {
			return rec, ctx.Err()
		}
		rec.Error = err.Error()
		return rec, nil
	}
	rec.OK = res.OK
	rec.Text = res.Text
	rec.Extractor = res.Extractor
	rec.Truncated = res.Truncated
	rec.Reason = string(res.Reason)

	if r.cache != nil {
		entry := &textcache.Entry{
			Key:         obj.Key,
			Size:        obj.Size,
			ModTime:     obj.ModTime,
			Fingerprint: r.fingerprint,
			Text:        res.Text,
			OK:          res.OK,
			Extractor:   res.Extractor,
			Truncated:   res.Truncated,
			Reason:      string(res.Reason),
		}
		if err := r.cache.Put(ctx, entry); err != nil {
			r.logger.Warn("cache store failed", "key", obj.Key, "error", err)
		}
	}
	return rec, nil
}

// Fingerprint identifies an extraction configuration: the enabled
// extractors in priority order and both policies.
func Fingerprint(extractorIDs []string, p fileindexer.Policies) string {
	var sb strings.Builder
	sb.WriteString(strings.Join(extractorIDs, ","))
	for _, pol := range []fileindexer.Policy{p.MaxFileSize, p.MaxTextLength} {
		sb.WriteString("|")
		keys := make([]string, 0, len(pol))
		for k := range pol {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(k + "=" + strconv.FormatInt(pol[k], 10) + ";")
		}
	}
	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:8])
}
