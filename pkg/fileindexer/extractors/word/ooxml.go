// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package word

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
)

var ooxmlRules = treeRules{
	textIn: map[string]bool{"t": true},
	skip: map[string]bool{
		"del":       true,
		"instrText": true,
		"rPr":       true,
		"pPr":       true,
		"sectPr":    true,
		"tblPr":     true,
		"tblGrid":   true,
		"trPr":      true,
		"tcPr":      true,
	},
	seps: map[string]string{"tbl": " ", "tr": " ", "tc": " "},
	leaf: func(el xml.StartElement) (string, bool) {
		switch el.Name.Local {
		case "tab":
			return "\t", true
		case "br", "cr":
			return "\n", true
		case "noBreakHyphen":
			return "-", true
		}
		return "", false
	},
}

// readOOXML parses word/document.xml of a docx package.
func readOOXML(zr *zip.Reader) (*Document, error) {
	f, err := zr.Open("word/document.xml")
	if err != nil {
		return nil, fmt.Errorf("open document part: %w", err)
	}
	defer f.Close()

	root, err := buildTree(f, ooxmlRules)
	if err != nil {
		return nil, err
	}
	body := root.find("body")
	if body == nil {
		return &Document{}, nil
	}
	return &Document{Sections: [][]*Element{body.Children}}, nil
}
