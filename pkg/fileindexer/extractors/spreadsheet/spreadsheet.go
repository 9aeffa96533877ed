// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package spreadsheet registers the spreadsheet extractor for xlsx, xls,
// ods and csv files. Cell values of every sheet are flattened into a single
// line of text.
package spreadsheet

import (
	"context"
	"fmt"
	"strings"

	"github.com/leseb/fileindexer/pkg/fileindexer"
)

const (
	cellSep  = ", "
	rowSep   = " ... "
	sheetSep = " ... "
)

// sheet is the cell grid of one worksheet, row-major.
type sheet [][]string

type reader func(ctx context.Context, path string) ([]sheet, error)

var readers = map[string]reader{
	"xlsx": readXLSX,
	"xls":  readXLS,
	"ods":  readODS,
	"csv":  readCSV,
}

func init() {
	fileindexer.Implementations.Register(fileindexer.IDSpreadsheet, func(_ context.Context, _ fileindexer.Options) (fileindexer.Extractor, error) {
		return New(), nil
	})
}

// compile-time check
var _ fileindexer.Extractor = (*Extractor)(nil)

// Extractor reads spreadsheet cell values.
type Extractor struct {
	fileindexer.NoConfig
}

// New creates a spreadsheet extractor.
func New() *Extractor {
	return &Extractor{}
}

// Info describes the extractor.
func (e *Extractor) Info() fileindexer.Info {
	return fileindexer.Info{
		ID:         fileindexer.IDSpreadsheet,
		Label:      "Spreadsheet",
		Icon:       "file-excel-o",
		Extensions: []string{"xls", "xlsx", "ods", "csv"},
		Available:  true,
	}
}

// Text joins cells with ", ", rows with " ... " and sheets with " ... ".
func (e *Extractor) Text(ctx context.Context, f fileindexer.File) (string, error) {
	read, ok := readers[fileindexer.NormalizeExt(f.Ext)]
	if !ok {
		return "", fmt.Errorf("%w: unsupported spreadsheet format %q", fileindexer.ErrExtraction, f.Ext)
	}
	sheets, err := read(ctx, f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", fileindexer.ErrExtraction, err)
	}
	return flatten(sheets), nil
}

func flatten(sheets []sheet) string {
	parts := make([]string, 0, len(sheets))
	for _, s := range sheets {
		rows := make([]string, 0, len(s))
		for _, row := range s {
			row = trimRow(row)
			if len(row) == 0 {
				continue
			}
			rows = append(rows, strings.Join(row, cellSep))
		}
		if len(rows) > 0 {
			parts = append(parts, strings.Join(rows, rowSep))
		}
	}
	return strings.Join(parts, sheetSep)
}

// trimRow drops trailing empty cells; a row of empty cells becomes nil.
func trimRow(row []string) []string {
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}
	return row[:end]
}
