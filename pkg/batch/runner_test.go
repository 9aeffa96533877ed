// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/leseb/fileindexer/pkg/fileindexer"
	_ "github.com/leseb/fileindexer/pkg/fileindexer/extractors/plaintext"
	"github.com/leseb/fileindexer/pkg/filestore/memory"
	"github.com/leseb/fileindexer/pkg/settings"
	"github.com/leseb/fileindexer/pkg/textcache"
	cachememory "github.com/leseb/fileindexer/pkg/textcache/memory"
)

// fakeExtractor reads the staged file and fails on ".bad" documents.
type fakeExtractor struct {
	policies fileindexer.Policies
	calls    atomic.Int32
}

func (f *fakeExtractor) Policies() fileindexer.Policies { return f.policies }

func (f *fakeExtractor) Extract(_ context.Context, input any) (fileindexer.Result, error) {
	f.calls.Add(1)
	file, err := fileindexer.Describe(input)
	if err != nil {
		return fileindexer.Result{}, err
	}
	if file.Ext == "bad" {
		return fileindexer.Result{}, errors.New("broken document")
	}
	data, err := os.ReadFile(file.Path)
	if err != nil {
		return fileindexer.Result{}, err
	}
	if len(data) == 0 {
		return fileindexer.Result{File: file, Reason: fileindexer.ReasonEmpty}, nil
	}
	return fileindexer.Result{Text: string(data), OK: true, Extractor: "fake", File: file}, nil
}

type collector struct {
	mu   sync.Mutex
	recs []Record
}

func (c *collector) Write(_ context.Context, rec Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recs = append(c.recs, rec)
	return nil
}

func (c *collector) byKey() map[string]Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := make(map[string]Record, len(c.recs))
	for _, r := range c.recs {
		m[r.Key] = r
	}
	return m
}

func newSource(t *testing.T, files map[string]string) *memory.Store {
	t.Helper()
	src := memory.New()
	for k, v := range files {
		if err := src.Put(context.Background(), k, []byte(v)); err != nil {
			t.Fatal(err)
		}
	}
	return src
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	src := newSource(t, map[string]string{
		"docs/a.txt":   "alpha",
		"docs/b.txt":   "",
		"docs/c.bad":   "xx",
		"other/d.txt":  "delta",
		"docs/e.txt":   "echo",
		"docs/sub/f.x": "fox",
	})
	ext := &fakeExtractor{}
	sink := &collector{}

	summary, err := NewRunner(ext, src, sink, WithWorkers(2), WithTempDir(t.TempDir())).Run(ctx, "docs/")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Files != 5 || summary.Extracted != 3 || summary.Null != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.RunID == "" {
		t.Error("run id not set")
	}

	recs := sink.byKey()
	if _, ok := recs["other/d.txt"]; ok {
		t.Error("prefix not honored")
	}
	if r := recs["docs/a.txt"]; !r.OK || r.Text != "alpha" || r.Extractor != "fake" || r.Size != 5 {
		t.Errorf("a.txt = %+v", r)
	}
	if r := recs["docs/b.txt"]; r.OK || r.Reason != "empty" {
		t.Errorf("b.txt = %+v", r)
	}
	if r := recs["docs/c.bad"]; r.Error != "broken document" {
		t.Errorf("c.bad = %+v", r)
	}
	for _, r := range recs {
		if r.RunID != summary.RunID {
			t.Errorf("%s has run id %q, want %q", r.Key, r.RunID, summary.RunID)
		}
	}
}

func TestRunUsesCache(t *testing.T) {
	ctx := context.Background()
	src := newSource(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	cache := cachememory.New()
	ext := &fakeExtractor{}

	first := &collector{}
	if _, err := NewRunner(ext, src, first, WithCache(cache, "v1")).Run(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if got := ext.calls.Load(); got != 2 {
		t.Fatalf("extract calls = %d, want 2", got)
	}

	second := &collector{}
	summary, err := NewRunner(ext, src, second, WithCache(cache, "v1")).Run(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Cached != 2 || ext.calls.Load() != 2 {
		t.Errorf("cached = %d, calls = %d", summary.Cached, ext.calls.Load())
	}
	if r := second.byKey()["a.txt"]; !r.Cached || r.Text != "alpha" {
		t.Errorf("a.txt = %+v", r)
	}

	// A modified document and a new fingerprint both miss.
	if err := src.Put(ctx, "a.txt", []byte("alpha two")); err != nil {
		t.Fatal(err)
	}
	third := &collector{}
	if _, err := NewRunner(ext, src, third, WithCache(cache, "v1")).Run(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if r := third.byKey()["a.txt"]; r.Cached || r.Text != "alpha two" {
		t.Errorf("modified a.txt = %+v", r)
	}
	if _, err := NewRunner(ext, src, &collector{}, WithCache(cache, "v2")).Run(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if got := ext.calls.Load(); got != 5 {
		t.Errorf("extract calls = %d, want 5", got)
	}
}

// countingSource records how many objects were opened for staging.
type countingSource struct {
	*memory.Store
	opened atomic.Int32
}

func (s *countingSource) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	s.opened.Add(1)
	return s.Store.Open(ctx, key)
}

func TestRunSkipsOversizedBeforeStaging(t *testing.T) {
	src := &countingSource{Store: newSource(t, map[string]string{
		"big.txt":   strings.Repeat("x", 4<<20),
		"small.txt": "ok",
	})}
	ext := &fakeExtractor{policies: fileindexer.Policies{MaxFileSize: fileindexer.Policy{fileindexer.Wildcard: 1024}}}
	sink := &collector{}

	summary, err := NewRunner(ext, src, sink).Run(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if r := sink.byKey()["big.txt"]; r.OK || r.Reason != "too_large" {
		t.Errorf("big.txt = %+v", r)
	}
	if got := src.opened.Load(); got != 1 {
		t.Errorf("opened %d objects, want only small.txt", got)
	}
	if got := ext.calls.Load(); got != 1 {
		t.Errorf("extract calls = %d, want 1", got)
	}
	if summary.Null != 1 || summary.Extracted != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRunKeys(t *testing.T) {
	ctx := context.Background()
	src := newSource(t, map[string]string{"a.txt": "alpha"})
	cache := cachememory.New()
	if err := cache.Put(ctx, &textcache.Entry{Key: "gone.txt", Text: "stale", OK: true}); err != nil {
		t.Fatal(err)
	}
	sink := &collector{}

	summary, err := NewRunner(&fakeExtractor{}, src, sink, WithCache(cache, "v1")).RunKeys(ctx, []string{"a.txt", "gone.txt"})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Deleted != 1 || summary.Extracted != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if r := sink.byKey()["gone.txt"]; !r.Deleted {
		t.Errorf("gone.txt = %+v", r)
	}
	if _, err := cache.Get(ctx, "gone.txt"); err == nil {
		t.Error("deleted document still cached")
	}
}

func TestRunSinkErrorAborts(t *testing.T) {
	src := newSource(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
	boom := errors.New("disk full")
	sink := SinkFunc(func(context.Context, Record) error { return boom })

	_, err := NewRunner(&fakeExtractor{}, src, sink, WithWorkers(1)).Run(context.Background(), "")
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestRunCanceled(t *testing.T) {
	src := newSource(t, map[string]string{"a.txt": "alpha"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(&fakeExtractor{}, src, &collector{}).Run(ctx, "")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRunWithDispatcher(t *testing.T) {
	ctx := context.Background()
	src := newSource(t, map[string]string{"notes.txt": "hello world", "image.png": "\x89PNG"})
	store := settings.New(map[string]any{
		fileindexer.KeyEnabled:       []any{fileindexer.IDPlainText},
		fileindexer.KeyMaxTextLength: "5 txt",
	})
	d, err := fileindexer.New(ctx, fileindexer.DefaultRegistry(nil), store)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if _, err := NewRunner(d, src, NewJSONLSink(&buf)).Run(ctx, ""); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %q", len(lines), buf.String())
	}
	var recs []Record
	for _, line := range lines {
		var r Record
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("decode %q: %v", line, err)
		}
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Key < recs[j].Key })

	if r := recs[0]; r.Key != "image.png" || r.OK || r.Reason != "unsupported" {
		t.Errorf("image.png = %+v", r)
	}
	if r := recs[1]; r.Text != "hello" || !r.Truncated || r.Extractor != fileindexer.IDPlainText {
		t.Errorf("notes.txt = %+v", r)
	}
}

func TestFingerprint(t *testing.T) {
	p := fileindexer.Policies{
		MaxFileSize:   fileindexer.Policy{"*": 100, "pdf": 10},
		MaxTextLength: fileindexer.Policy{"*": 50},
	}
	same := fileindexer.Policies{
		MaxFileSize:   fileindexer.Policy{"pdf": 10, "*": 100},
		MaxTextLength: fileindexer.Policy{"*": 50},
	}
	base := Fingerprint([]string{"word", "plain_text"}, p)

	if got := Fingerprint([]string{"word", "plain_text"}, same); got != base {
		t.Errorf("map order changed fingerprint: %s != %s", got, base)
	}
	if Fingerprint([]string{"plain_text", "word"}, p) == base {
		t.Error("extractor order not part of fingerprint")
	}
	if Fingerprint([]string{"word", "plain_text"}, fileindexer.Policies{MaxFileSize: p.MaxFileSize}) == base {
		t.Error("text length policy not part of fingerprint")
	}
}

func TestSummaryString(t *testing.T) {
	s := Summary{Files: 3, Extracted: 2, Failed: 1, Bytes: 2048}
	got := s.String()
	for _, want := range []string{"3 files", "2.0 kB", "2 extracted", "1 failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("String() = %q, missing %q", got, want)
		}
	}
}
