// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package plaintext registers the plain_text extractor: .txt files are
// indexed as-is.
package plaintext

import (
	"context"
	"fmt"
	"os"

	"github.com/leseb/fileindexer/pkg/fileindexer"
)

func init() {
	fileindexer.Implementations.Register(fileindexer.IDPlainText, func(_ context.Context, _ fileindexer.Options) (fileindexer.Extractor, error) {
		return New(), nil
	})
}

// compile-time check
var _ fileindexer.Extractor = (*Extractor)(nil)

// Extractor returns file content unchanged.
type Extractor struct {
	fileindexer.NoConfig
}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// Info describes the extractor.
func (e *Extractor) Info() fileindexer.Info {
	return fileindexer.Info{
		ID:         fileindexer.IDPlainText,
		Label:      "PlainText",
		Icon:       "file-text-o",
		Extensions: []string{"txt"},
		Available:  true,
	}
}

// Text reads the whole file.
func (e *Extractor) Text(_ context.Context, f fileindexer.File) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", fileindexer.ErrExtraction, f.Path, err)
	}
	return string(data), nil
}
