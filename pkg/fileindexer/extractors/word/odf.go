// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package word

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"strings"
)

var odfRules = treeRules{
	textIn: map[string]bool{"p": true, "h": true, "span": true, "a": true},
	skip: map[string]bool{
		"annotation":      true,
		"tracked-changes": true,
		"sequence-decls":  true,
		"forms":           true,
		"table-columns":   true,
		"table-column":    true,
	},
	seps: map[string]string{
		"list":        " ",
		"list-item":   " ",
		"table":       " ",
		"table-row":   " ",
		"table-cell":  " ",
		"section":     " ",
		"frame":       " ",
		"text-box":    " ",
		"note-body":   " ",
		"table-rows":  " ",
		"header-rows": " ",
	},
	leaf: func(el xml.StartElement) (string, bool) {
		switch el.Name.Local {
		case "s":
			return strings.Repeat(" ", min(max(attrInt(el, "c", 1), 1), maxSpaces)), true
		case "tab":
			return "\t", true
		case "line-break":
			return "\n", true
		}
		return "", false
	},
}

// maxSpaces caps text:s repetition counts.
const maxSpaces = 1024

// readODF parses content.xml of an OpenDocument text package.
func readODF(zr *zip.Reader) (*Document, error) {
	f, err := zr.Open("content.xml")
	if err != nil {
		return nil, fmt.Errorf("open content part: %w", err)
	}
	defer f.Close()

	root, err := buildTree(f, odfRules)
	if err != nil {
		return nil, err
	}
	body := root.find("body")
	if body == nil {
		return &Document{}, nil
	}
	if text := body.find("text"); text != nil {
		return &Document{Sections: [][]*Element{text.Children}}, nil
	}
	return &Document{Sections: [][]*Element{body.Children}}, nil
}
