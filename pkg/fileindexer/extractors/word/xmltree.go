// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package word

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// treeRules describes how an XML vocabulary maps onto Elements. Names are
// local names; namespaces are ignored.
type treeRules struct {
	// textIn lists elements whose character data is document text.
	textIn map[string]bool
	// skip lists elements whose whole subtree is dropped.
	skip map[string]bool
	// seps sets Element.Sep for container elements.
	seps map[string]string
	// leaf returns fixed text for empty elements such as tabs and breaks.
	leaf func(el xml.StartElement) (string, bool)
}

// buildTree decodes r into an Element tree rooted at a synthetic "#document".
func buildTree(r io.Reader, rules treeRules) (*Element, error) {
	dec := xml.NewDecoder(r)
	root := &Element{Name: "#document"}
	stack := []*Element{root}
	skipDepth := 0

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if skipDepth > 0 || rules.skip[t.Name.Local] {
				skipDepth++
				continue
			}
			el := &Element{Name: t.Name.Local, Sep: rules.seps[t.Name.Local]}
			if rules.leaf != nil {
				if text, ok := rules.leaf(t); ok {
					el.Text = text
				}
			}
			parent := stack[len(stack)-1]
			parent.Children = append(parent.Children, el)
			stack = append(stack, el)
		case xml.EndElement:
			if skipDepth > 0 {
				skipDepth--
				continue
			}
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			if skipDepth > 0 {
				continue
			}
			parent := stack[len(stack)-1]
			if rules.textIn[parent.Name] {
				parent.Children = append(parent.Children, textElement(string(t)))
			}
		}
	}
	return root, nil
}

// find returns the first element named name in depth-first order.
func (e *Element) find(name string) *Element {
	if e.Name == name {
		return e
	}
	for _, c := range e.Children {
		if found := c.find(name); found != nil {
			return found
		}
	}
	return nil
}

// attrInt reads an integer attribute by local name.
func attrInt(el xml.StartElement, local string, def int) int {
	for _, a := range el.Attr {
		if a.Name.Local == local {
			if n, err := strconv.Atoi(strings.TrimSpace(a.Value)); err == nil {
				return n
			}
		}
	}
	return def
}
