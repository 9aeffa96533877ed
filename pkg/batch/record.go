// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Record is the outcome of one document in a run.
type Record struct {
	RunID     string `json:"run_id"`
	Key       string `json:"key"`
	Size      int64  `json:"size"`
	OK        bool   `json:"ok"`
	Text      string `json:"text,omitempty"`
	Extractor string `json:"extractor,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Cached    bool   `json:"cached,omitempty"`
	Deleted   bool   `json:"deleted,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Sink receives records. Implementations must be safe for concurrent use.
type Sink interface {
	Write(ctx context.Context, rec Record) error
}

// JSONLSink writes one JSON object per line.
type JSONLSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewJSONLSink creates a sink writing to w.
func NewJSONLSink(w io.Writer) *JSONLSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &JSONLSink{enc: enc}
}

// Write encodes rec as a single line.
func (s *JSONLSink) Write(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(rec); err != nil {
		return fmt.Errorf("write record %s: %w", rec.Key, err)
	}
	return nil
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, rec Record) error

// Write calls f.
func (f SinkFunc) Write(ctx context.Context, rec Record) error {
	return f(ctx, rec)
}
