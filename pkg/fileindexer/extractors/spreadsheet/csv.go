// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package spreadsheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
)

func readCSV(ctx context.Context, path string) ([]sheet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var grid sheet
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		grid = append(grid, record)
	}
	return []sheet{grid}, nil
}
