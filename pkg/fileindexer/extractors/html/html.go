// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package html registers the html extractor. It is not part of the default
// registry order; enable it with Registry.Register(fileindexer.IDHTML).
package html

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/leseb/fileindexer/pkg/fileindexer"
)

func init() {
	fileindexer.Implementations.Register(fileindexer.IDHTML, func(_ context.Context, _ fileindexer.Options) (fileindexer.Extractor, error) {
		return New(), nil
	})
}

// compile-time check
var _ fileindexer.Extractor = (*Extractor)(nil)

// Extractor returns the visible text of HTML pages.
type Extractor struct {
	fileindexer.NoConfig
}

// New creates an HTML extractor.
func New() *Extractor {
	return &Extractor{}
}

// Info describes the extractor.
func (e *Extractor) Info() fileindexer.Info {
	return fileindexer.Info{
		ID:         fileindexer.IDHTML,
		Label:      "HTML",
		Icon:       "file-code-o",
		Extensions: []string{"html", "htm"},
		Available:  true,
	}
}

// Text strips tags. Script, style and noscript elements are skipped
// entirely; the title is kept.
func (e *Extractor) Text(_ context.Context, f fileindexer.File) (string, error) {
	content, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %v", fileindexer.ErrExtraction, f.Path, err)
	}
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("%w: parse html: %v", fileindexer.ErrExtraction, err)
	}

	var sb strings.Builder
	visibleText(doc, &sb)
	return sb.String(), nil
}

func visibleText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "noscript", "template":
			return
		}
	}
	if n.Type == html.CommentNode {
		return
	}

	if n.Type == html.TextNode {
		if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(text)
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, sb)
	}
}
