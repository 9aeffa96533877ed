// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package word

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// rtfDestinations are groups that hold no body text.
var rtfDestinations = map[string]bool{
	"fonttbl": true, "colortbl": true, "stylesheet": true, "info": true,
	"pict": true, "object": true, "objdata": true, "fldinst": true,
	"header": true, "headerl": true, "headerr": true, "headerf": true,
	"footer": true, "footerl": true, "footerr": true, "footerf": true,
	"listtable": true, "listoverridetable": true, "rsidtbl": true,
	"generator": true, "themedata": true, "colorschememapping": true,
	"datastore": true, "latentstyles": true, "xmlnstbl": true,
	"mmathPr": true, "filetbl": true, "revtbl": true, "pgdsctbl": true,
	"bkmkstart": true, "bkmkend": true, "annotation": true, "atnid": true,
	"atnauthor": true, "wgrffmtfilter": true, "fchars": true, "lchars": true,
}

var rtfSymbols = map[string]string{
	"tab":       "\t",
	"line":      "\n",
	"emdash":    "—",
	"endash":    "–",
	"bullet":    "•",
	"lquote":    "‘",
	"rquote":    "’",
	"ldblquote": "“",
	"rdblquote": "”",
	"emspace":   " ",
	"enspace":   " ",
	"qmspace":   " ",
}

var rtfCodePages = map[int]encoding.Encoding{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	1250:  charmap.Windows1250,
	1251:  charmap.Windows1251,
	1252:  charmap.Windows1252,
	1253:  charmap.Windows1253,
	1254:  charmap.Windows1254,
	1255:  charmap.Windows1255,
	1256:  charmap.Windows1256,
	1257:  charmap.Windows1257,
	1258:  charmap.Windows1258,
	10000: charmap.Macintosh,
}

type rtfGroup struct {
	skip bool
	uc   int
}

type rtfParser struct {
	src   []byte
	pos   int
	enc   encoding.Encoding
	stack []rtfGroup
	state rtfGroup
	// pending raw \'hh bytes, decoded together for multi-byte code pages
	pending []byte
	para    strings.Builder
	doc     []*Element
	// fallback characters still to skip after a \uN
	skipChars int
	// high half of a surrogate pair waiting for its \uN partner
	high rune
}

// readRTF tokenizes an RTF document into one element per paragraph.
func readRTF(data []byte) (*Document, error) {
	if !strings.HasPrefix(string(data[:min(len(data), 5)]), `{\rtf`) {
		return nil, fmt.Errorf("not an rtf document")
	}
	p := &rtfParser{src: data, enc: charmap.Windows1252, state: rtfGroup{uc: 1}}
	p.run()
	return &Document{Sections: [][]*Element{p.doc}}, nil
}

func (p *rtfParser) run() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch c {
		case '{':
			p.flush()
			p.stack = append(p.stack, p.state)
			p.pos++
			// {\*\dest ...} is an ignorable destination
			if strings.HasPrefix(string(p.src[p.pos:min(len(p.src), p.pos+2)]), `\*`) {
				p.state.skip = true
			}
		case '}':
			p.flush()
			if n := len(p.stack); n > 0 {
				p.state = p.stack[n-1]
				p.stack = p.stack[:n-1]
			}
			p.pos++
		case '\\':
			p.control()
		case '\r', '\n':
			p.pos++
		default:
			p.pos++
			p.char(c)
		}
	}
	p.flush()
	p.paragraph()
}

func (p *rtfParser) control() {
	p.pos++ // backslash
	if p.pos >= len(p.src) {
		return
	}
	c := p.src[p.pos]
	if !isLetter(c) {
		p.pos++
		switch c {
		case '\\', '{', '}':
			p.char(c)
		case '~':
			p.text(" ")
		case '_':
			p.text("‑")
		case '\'':
			if p.pos+2 <= len(p.src) {
				if b, err := strconv.ParseUint(string(p.src[p.pos:p.pos+2]), 16, 8); err == nil {
					p.pos += 2
					if p.skipChars > 0 {
						p.skipChars--
						return
					}
					if !p.state.skip {
						p.pending = append(p.pending, byte(b))
					}
				}
			}
		case '\r', '\n':
			p.flush()
			p.paragraph()
		}
		return
	}

	start := p.pos
	for p.pos < len(p.src) && isLetter(p.src[p.pos]) {
		p.pos++
	}
	word := string(p.src[start:p.pos])

	hasParam := false
	param := 0
	numStart := p.pos
	if p.pos < len(p.src) && (p.src[p.pos] == '-' || isDigit(p.src[p.pos])) {
		p.pos++
		for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
			p.pos++
		}
		if n, err := strconv.Atoi(string(p.src[numStart:p.pos])); err == nil {
			param, hasParam = n, true
		}
	}
	if p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}

	p.word(word, param, hasParam)
}

func (p *rtfParser) word(word string, param int, hasParam bool) {
	if rtfDestinations[word] {
		p.state.skip = true
		return
	}
	switch word {
	case "ansicpg":
		if enc, ok := rtfCodePages[param]; ok {
			p.enc = enc
		}
	case "mac":
		p.enc = charmap.Macintosh
	case "pc":
		p.enc = charmap.CodePage437
	case "uc":
		if hasParam && param >= 0 {
			p.state.uc = param
		}
	case "u":
		if !hasParam {
			return
		}
		p.flush()
		if param < 0 {
			param += 65536
		}
		if !p.state.skip {
			p.writeUnit(rune(param))
		}
		p.skipChars = p.state.uc
	case "par", "sect", "page":
		p.flush()
		p.paragraph()
	case "cell", "row", "nestcell":
		p.text(" ")
	default:
		if s, ok := rtfSymbols[word]; ok {
			p.text(s)
		}
	}
}

func (p *rtfParser) char(c byte) {
	if p.skipChars > 0 {
		p.skipChars--
		return
	}
	if p.state.skip {
		return
	}
	if c >= 0x80 {
		p.pending = append(p.pending, c)
		return
	}
	p.flush()
	p.dropHigh()
	p.para.WriteByte(c)
}

// writeUnit writes a \uN code unit, pairing UTF-16 surrogates.
func (p *rtfParser) writeUnit(r rune) {
	switch {
	case r >= 0xD800 && r < 0xDC00:
		p.dropHigh()
		p.high = r
	case utf16.IsSurrogate(r):
		if p.high == 0 {
			p.para.WriteRune(unicode.ReplacementChar)
			return
		}
		p.para.WriteRune(utf16.DecodeRune(p.high, r))
		p.high = 0
	default:
		p.dropHigh()
		p.para.WriteRune(r)
	}
}

// dropHigh replaces an unpaired high surrogate.
func (p *rtfParser) dropHigh() {
	if p.high != 0 {
		p.para.WriteRune(unicode.ReplacementChar)
		p.high = 0
	}
}

func (p *rtfParser) text(s string) {
	p.skipChars = 0
	if p.state.skip {
		return
	}
	p.flush()
	p.dropHigh()
	p.para.WriteString(s)
}

// flush decodes pending \'hh bytes with the document code page.
func (p *rtfParser) flush() {
	if len(p.pending) == 0 {
		return
	}
	decoded, err := p.enc.NewDecoder().Bytes(p.pending)
	if err != nil {
		decoded = p.pending
	}
	p.para.Write(decoded)
	p.pending = p.pending[:0]
}

func (p *rtfParser) paragraph() {
	p.dropHigh()
	text := p.para.String()
	p.para.Reset()
	if strings.TrimSpace(text) == "" {
		return
	}
	p.doc = append(p.doc, &Element{Name: "paragraph", Children: []*Element{textElement(text)}})
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
