// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package fileindexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Handle is a caller-owned file object that already knows its name, size
// and extension (for example a file staged from object storage).
type Handle interface {
	// Filename returns a local path that extractors can open.
	Filename() string
	Size() int64
	Ext() string
}

// File describes a single extraction request. It is built per call and
// never shared between calls.
type File struct {
	Path   string
	Size   int64
	Ext    string // lower-case, without the leading dot
	Source Handle // nil when the request was a plain path
}

// NormalizeExt lower-cases an extension and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// Describe builds a File from a path string or a Handle. Any other input is
// a programming error and yields ErrInvalidInput.
func Describe(input any) (File, error) {
	switch v := input.(type) {
	case Handle:
		return File{
			Path:   v.Filename(),
			Size:   v.Size(),
			Ext:    NormalizeExt(v.Ext()),
			Source: v,
		}, nil
	case string:
		info, err := os.Stat(v)
		if err != nil {
			return File{Path: v, Ext: NormalizeExt(filepath.Ext(v))}, fmt.Errorf("stat %s: %w", v, err)
		}
		return File{
			Path: v,
			Size: info.Size(),
			Ext:  NormalizeExt(filepath.Ext(v)),
		}, nil
	default:
		return File{}, fmt.Errorf("%w: expected string or Handle, got %T", ErrInvalidInput, input)
	}
}
