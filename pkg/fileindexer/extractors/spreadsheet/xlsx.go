// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package spreadsheet

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

func readXLSX(ctx context.Context, path string) ([]sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var sheets []sheet
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, rows)
	}
	return sheets, nil
}
