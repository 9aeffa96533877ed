// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package word registers the word extractor for word-processor documents:
// Office Open XML (docx), OpenDocument text, RTF and Word 97-2003 (doc).
//
// Every format is decoded into a Document of Element trees. Text is
// collected by walking each tree, children before the element's own text,
// and the non-empty top-level elements are joined with a single space.
package word

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/leseb/fileindexer/pkg/fileindexer"
)

// Format is a detected document format.
type Format string

const (
	FormatUnknown Format = ""
	FormatDOCX    Format = "docx"
	FormatODF     Format = "odf"
	FormatRTF     Format = "rtf"
	FormatDOC     Format = "doc"
)

var (
	zipMagic = []byte("PK\x03\x04")
	rtfMagic = []byte(`{\rtf`)
	cfbMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

func init() {
	fileindexer.Implementations.Register(fileindexer.IDWord, func(_ context.Context, _ fileindexer.Options) (fileindexer.Extractor, error) {
		return New(), nil
	})
}

// compile-time check
var _ fileindexer.Extractor = (*Extractor)(nil)

// Extractor reads word-processor documents.
type Extractor struct {
	fileindexer.NoConfig
}

// New creates a word extractor.
func New() *Extractor {
	return &Extractor{}
}

// Info describes the extractor.
func (e *Extractor) Info() fileindexer.Info {
	return fileindexer.Info{
		ID:         fileindexer.IDWord,
		Label:      "Word",
		Icon:       "file-word-o",
		Extensions: []string{"doc", "docx", "odf", "rtf"},
		Available:  true,
	}
}

// Text parses the file and returns the text of its top-level elements.
func (e *Extractor) Text(ctx context.Context, f fileindexer.File) (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", fileindexer.ErrExtraction, f.Path, err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	doc, err := Parse(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", fileindexer.ErrExtraction, err)
	}
	return doc.PlainText(), nil
}

// Parse detects the format of data and decodes it.
func Parse(data []byte) (*Document, error) {
	switch format, zr := Detect(data); format {
	case FormatDOCX:
		return readOOXML(zr)
	case FormatODF:
		return readODF(zr)
	case FormatRTF:
		return readRTF(data)
	case FormatDOC:
		return readDoc(bytes.NewReader(data))
	default:
		return nil, fmt.Errorf("unrecognized document format")
	}
}

// Detect sniffs the format from content. For zip-based formats the opened
// archive is returned as well.
func Detect(data []byte) (Format, *zip.Reader) {
	switch {
	case bytes.HasPrefix(data, rtfMagic):
		return FormatRTF, nil
	case bytes.HasPrefix(data, cfbMagic):
		return FormatDOC, nil
	case bytes.HasPrefix(data, zipMagic):
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return FormatUnknown, nil
		}
		for _, f := range zr.File {
			switch f.Name {
			case "word/document.xml":
				return FormatDOCX, zr
			case "content.xml":
				return FormatODF, zr
			}
		}
	}
	return FormatUnknown, nil
}
