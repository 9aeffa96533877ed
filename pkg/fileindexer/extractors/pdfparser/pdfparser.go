// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package pdfparser registers the pdf_parser extractor, a pure Go PDF text
// reader built on github.com/ledongthuc/pdf.
package pdfparser

import (
	"context"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ledongthuc/pdf"

	"github.com/leseb/fileindexer/pkg/fileindexer"
)

// FieldDecodeMemoryLimit is the setting capping decoded text, in bytes.
const FieldDecodeMemoryLimit = "decode_memory_limit"

// releaseMemory returns freed parser memory to the OS after every parse.
// Tests replace it to observe the call.
var releaseMemory = debug.FreeOSMemory

func init() {
	fileindexer.Implementations.Register(fileindexer.IDPdfParser, func(_ context.Context, opts fileindexer.Options) (fileindexer.Extractor, error) {
		var limit int64
		if opts.Settings != nil {
			limit = parseLimit(opts.Settings.GetString(FieldDecodeMemoryLimit))
		}
		return New(limit), nil
	})
}

// compile-time check
var _ fileindexer.Extractor = (*Extractor)(nil)

// Extractor reads page text with ledongthuc/pdf.
type Extractor struct {
	limit int64
}

// New creates a PDF parser extractor. A limit <= 0 disables the decode cap.
func New(limit int64) *Extractor {
	if limit < 0 {
		limit = 0
	}
	return &Extractor{limit: limit}
}

// parseLimit accepts a plain byte count or a humanized size such as "64 MB".
// Anything unparsable disables the limit.
func parseLimit(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return 0
	}
	return int64(n)
}

// Info describes the extractor.
func (e *Extractor) Info() fileindexer.Info {
	return fileindexer.Info{
		ID:         fileindexer.IDPdfParser,
		Label:      "PDF parser",
		Icon:       "file-pdf-o",
		Extensions: []string{"pdf"},
		Available:  true,
	}
}

// ConfigSchema lists the decode memory limit.
func (e *Extractor) ConfigSchema() []fileindexer.ConfigField {
	return []fileindexer.ConfigField{{
		Name:        FieldDecodeMemoryLimit,
		Kind:        fileindexer.FieldInteger,
		Label:       "Memory limit for decoding operations",
		Description: "Maximum amount of decoded text, in bytes, kept while parsing a single PDF.",
		Notes:       "Empty or 0 means no limit. Parsing stops with an error once the limit is exceeded.",
	}}
}

// Limit returns the decode cap in bytes, 0 when disabled.
func (e *Extractor) Limit() int64 {
	return e.limit
}

// Text extracts the text of every page, one line break between pages.
func (e *Extractor) Text(ctx context.Context, f fileindexer.File) (text string, err error) {
	defer releaseMemory()
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: parse %s: %v", fileindexer.ErrExtraction, f.Path, r)
		}
	}()

	file, reader, err := pdf.Open(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: open PDF: %v", fileindexer.ErrExtraction, err)
	}
	defer file.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", fileindexer.ErrExtraction, i, err)
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(pageText)
		if e.limit > 0 && int64(sb.Len()) > e.limit {
			return "", fmt.Errorf("%w: decoded text exceeds %s", fileindexer.ErrDecodeLimit, humanize.IBytes(uint64(e.limit)))
		}
	}
	return sb.String(), nil
}
