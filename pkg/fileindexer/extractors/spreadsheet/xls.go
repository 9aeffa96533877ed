// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package spreadsheet

import (
	"context"
	"fmt"
	"os"

	"github.com/extrame/xls"
)

func readXLS(ctx context.Context, path string) (sheets []sheet, err error) {
	// the BIFF decoder panics on some malformed records
	defer func() {
		if r := recover(); r != nil {
			sheets, err = nil, fmt.Errorf("decode xls: %v", r)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	defer file.Close()

	wb, err := xls.OpenReader(file, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		var grid sheet
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			grid = append(grid, cells)
		}
		sheets = append(sheets, grid)
	}
	return sheets, nil
}
