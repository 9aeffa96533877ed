// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package fileindexer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an extractor id has no registered implementation.
	ErrNotFound = errors.New("file indexer not found")

	// ErrInvalidInput is returned when IndexFile receives something that is
	// neither a path nor a Handle.
	ErrInvalidInput = errors.New("invalid file argument")

	// ErrExtraction wraps failures raised by an extractor.
	ErrExtraction = errors.New("extraction failed")

	// ErrTimeout is wrapped by extractors whose external process ran out of time.
	ErrTimeout = errors.New("extraction timed out")

	// ErrDecodeLimit is wrapped by extractors that stopped decoding at a configured memory limit.
	ErrDecodeLimit = errors.New("decode memory limit exceeded")
)

// PolicyRowError describes a policy row that was skipped because its first
// value is not numeric. It is a warning: the remaining rows still apply.
type PolicyRowError struct {
	Key string
	Row string
}

func (e *PolicyRowError) Error() string {
	return fmt.Sprintf("possible configuration issue with %s, first value of a row isn't numeric: %s", e.Key, e.Row)
}
