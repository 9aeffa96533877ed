// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package pdfcpu registers the pdfcpu extractor, an alternative pure Go PDF
// backend that reads page content streams and collects the strings shown by
// text operators. It is not part of the default registry order.
package pdfcpu

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/leseb/fileindexer/pkg/fileindexer"
)

func init() {
	fileindexer.Implementations.Register(fileindexer.IDPdfCPU, func(_ context.Context, _ fileindexer.Options) (fileindexer.Extractor, error) {
		return New(), nil
	})
}

// compile-time check
var _ fileindexer.Extractor = (*Extractor)(nil)

// Extractor reads PDFs with pdfcpu.
type Extractor struct {
	fileindexer.NoConfig
}

// New creates a pdfcpu extractor.
func New() *Extractor {
	return &Extractor{}
}

// Info describes the extractor.
func (e *Extractor) Info() fileindexer.Info {
	return fileindexer.Info{
		ID:         fileindexer.IDPdfCPU,
		Label:      "pdfcpu",
		Icon:       "file-pdf-o",
		Extensions: []string{"pdf"},
		Available:  true,
	}
}

// Text returns the text of every page, pages separated by a line break.
func (e *Extractor) Text(ctx context.Context, f fileindexer.File) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: pdfcpu: %v", fileindexer.ErrExtraction, r)
		}
	}()

	file, err := os.Open(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", fileindexer.ErrExtraction, f.Path, err)
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pdfCtx, err := api.ReadValidateAndOptimize(file, conf)
	if err != nil {
		return "", fmt.Errorf("%w: pdfcpu read: %v", fileindexer.ErrExtraction, err)
	}

	var pages []string
	for pageNr := 1; pageNr <= pdfCtx.PageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
		if err != nil || r == nil {
			continue
		}
		data, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", fileindexer.ErrExtraction, pageNr, err)
		}
		if pageText := ContentText(data); pageText != "" {
			pages = append(pages, pageText)
		}
	}
	return strings.Join(pages, "\n"), nil
}
