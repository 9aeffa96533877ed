// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package word

import "strings"

// Element is a node of a parsed document. Containers carry children, leaves
// carry text; an element may be both.
type Element struct {
	Name     string
	Text     string
	Children []*Element
	// Sep is written between the non-empty texts of the children.
	Sep string
}

// PlainText gathers the text of the element's children first, then its own.
func (e *Element) PlainText() string {
	if e == nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range e.Children {
		text := c.PlainText()
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString(e.Sep)
		}
		sb.WriteString(text)
	}
	sb.WriteString(e.Text)
	return sb.String()
}

// Document is a parsed word-processor file: a list of sections, each a list
// of top-level elements.
type Document struct {
	Sections [][]*Element
}

// PlainText joins the non-empty text of every top-level element with a
// single space.
func (d *Document) PlainText() string {
	var sb strings.Builder
	for _, section := range d.Sections {
		for _, el := range section {
			text := el.PlainText()
			if strings.TrimSpace(text) == "" {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(text)
		}
	}
	return sb.String()
}

func textElement(text string) *Element {
	return &Element{Name: "#text", Text: text}
}
