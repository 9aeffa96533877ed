// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package spreadsheet

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// maxRepeat caps table:number-*-repeated, which ODF writers use to pad
// sheets up to their full dimensions.
const maxRepeat = 1024

func readODS(ctx context.Context, path string) ([]sheet, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open ods: %w", err)
	}
	defer zr.Close()

	content, err := zr.Open("content.xml")
	if err != nil {
		return nil, fmt.Errorf("open ods content: %w", err)
	}
	defer content.Close()

	return parseODSContent(ctx, content)
}

func parseODSContent(ctx context.Context, r io.Reader) ([]sheet, error) {
	dec := xml.NewDecoder(r)

	var (
		sheets     []sheet
		grid       sheet
		row        []string
		cell       strings.Builder
		inTable    bool
		inCell     bool
		inPara     bool
		paragraphs int
		skipDepth  int
		rowRepeat  int
		cellRepeat int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse ods content: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skipDepth > 0 {
				skipDepth++
				continue
			}
			switch t.Name.Local {
			case "table":
				inTable = true
				grid = nil
			case "table-row":
				row = nil
				rowRepeat = repeatAttr(t, "number-rows-repeated")
			case "table-cell", "covered-table-cell":
				inCell = true
				paragraphs = 0
				cell.Reset()
				cellRepeat = repeatAttr(t, "number-columns-repeated")
			case "annotation":
				skipDepth = 1
			case "p", "h":
				if inCell {
					if paragraphs > 0 {
						cell.WriteString("\n")
					}
					paragraphs++
					inPara = true
				}
			case "s":
				if inCell {
					cell.WriteString(strings.Repeat(" ", repeatAttr(t, "c")))
				}
			case "tab":
				if inCell {
					cell.WriteString("\t")
				}
			case "line-break":
				if inCell {
					cell.WriteString("\n")
				}
			}
		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			switch t.Name.Local {
			case "table":
				if inTable {
					sheets = append(sheets, grid)
				}
				inTable = false
			case "table-row":
				if len(trimRow(row)) == 0 {
					continue
				}
				for range rowRepeat {
					grid = append(grid, row)
				}
			case "p", "h":
				inPara = false
			case "table-cell", "covered-table-cell":
				value := cell.String()
				for range cellRepeat {
					row = append(row, value)
				}
				inCell = false
			}
		case xml.CharData:
			if inCell && inPara && skipDepth == 0 {
				cell.Write(t)
			}
		}
	}
	return sheets, nil
}

// repeatAttr reads a positive repeat count, defaulting to 1.
func repeatAttr(el xml.StartElement, local string) int {
	for _, a := range el.Attr {
		if a.Name.Local != local {
			continue
		}
		n, err := strconv.Atoi(a.Value)
		if err != nil || n < 1 {
			return 1
		}
		return min(n, maxRepeat)
	}
	return 1
}
