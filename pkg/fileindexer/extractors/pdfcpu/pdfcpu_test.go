// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package pdfcpu

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leseb/fileindexer/pkg/fileindexer"
	"github.com/leseb/fileindexer/pkg/fileindexer/fixturetest"
)

func TestContentText(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "Tj",
			stream: "BT\n/F1 12 Tf\n72 720 Td\n(Hello World) Tj\nET",
			want:   "Hello World",
		},
		{
			name:   "TJ kerning",
			stream: "BT [(Hel) -20 (lo) -400 (World)] TJ ET",
			want:   "Hello World",
		},
		{
			name:   "line moves",
			stream: "BT (first) Tj 0 -14 Td (second) Tj T* (third) Tj 10 0 Td (same line) Tj ET",
			want:   "first\nsecond\nthird same line",
		},
		{
			name:   "escapes and nesting",
			stream: `BT (a \(b\) (c) \101\102 d\\e) Tj ET`,
			want:   `a (b) (c) AB d\e`,
		},
		{
			name:   "hex and utf16",
			stream: "BT <48692> Tj ( ) Tj <FEFF00E9006C00E8007600650073> Tj ET",
			want:   "Hi élèves",
		},
		{
			name:   "quote operators",
			stream: "BT (one) Tj (two) ' 1 2 (three) \" ET",
			want:   "one\ntwo\nthree",
		},
		{
			name:   "inline image skipped",
			stream: "BT (before) Tj ET q BI /W 1 /H 1 /BPC 8 ID (Tj) EI Q BT (after) Tj ET",
			want:   "before\nafter",
		},
		{
			name:   "comments and dicts",
			stream: "% comment (ignored) Tj\n/Span <</ActualText (x)>> BDC BT (kept) Tj ET EMC",
			want:   "kept",
		},
		{name: "empty", stream: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ContentText([]byte(tt.stream)); got != tt.want {
				t.Errorf("ContentText = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractor_Text(t *testing.T) {
	path := fixturetest.WriteFile(t, "hello.pdf", fixturetest.TextPDF("Hello World from pdfcpu"))
	text, err := New().Text(context.Background(), fileindexer.File{Path: path, Ext: "pdf"})
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !strings.Contains(text, "Hello World from pdfcpu") {
		t.Errorf("Text = %q", text)
	}
}

func TestExtractor_NotAPDF(t *testing.T) {
	path := fixturetest.WriteFile(t, "fake.pdf", []byte("plain text"))
	if _, err := New().Text(context.Background(), fileindexer.File{Path: path}); !errors.Is(err, fileindexer.ErrExtraction) {
		t.Errorf("error = %v, want ErrExtraction", err)
	}
}
