// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package pdfcpu

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// kerning offsets (thousandths of an em) below this start a new word in TJ
const wordGap = -200

type tokenKind int

const (
	tokOperator tokenKind = iota
	tokString
	tokNumber
	tokArrayStart
	tokArrayEnd
	tokOther
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

// ContentText interprets a decoded page content stream and returns the
// strings shown by Tj, TJ, ' and ". Line moves become line breaks.
func ContentText(stream []byte) string {
	var (
		sb       strings.Builder
		operands []token
		inArray  bool
		array    []token
	)
	newline := func() {
		if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	space := func() {
		s := sb.String()
		if len(s) > 0 && !strings.HasSuffix(s, " ") && !strings.HasSuffix(s, "\n") {
			sb.WriteByte(' ')
		}
	}

	lx := &lexer{src: stream}
	for {
		tok, ok := lx.next()
		if !ok {
			break
		}
		switch tok.kind {
		case tokArrayStart:
			inArray, array = true, nil
			continue
		case tokArrayEnd:
			inArray = false
			operands = append(operands, token{kind: tokArrayEnd})
			continue
		}
		if inArray {
			array = append(array, tok)
			continue
		}
		if tok.kind != tokOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			sb.WriteString(lastString(operands))
		case "'", `"`:
			newline()
			sb.WriteString(lastString(operands))
		case "TJ":
			for _, el := range array {
				switch el.kind {
				case tokString:
					sb.WriteString(el.text)
				case tokNumber:
					if el.num < wordGap {
						space()
					}
				}
			}
		case "Td", "TD":
			if len(operands) >= 2 && operands[len(operands)-1].kind == tokNumber && operands[len(operands)-1].num != 0 {
				newline()
			} else {
				space()
			}
		case "T*", "ET":
			newline()
		case "BI":
			lx.skipInlineImage()
		}
		operands = operands[:0]
		array = nil
	}

	lines := strings.Split(sb.String(), "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func lastString(operands []token) string {
	for i := len(operands) - 1; i >= 0; i-- {
		if operands[i].kind == tokString {
			return operands[i].text
		}
	}
	return ""
}

type lexer struct {
	src []byte
	pos int
}

func (l *lexer) next() (token, bool) {
	l.skipSpace()
	if l.pos >= len(l.src) {
		return token{}, false
	}
	c := l.src[l.pos]
	switch {
	case c == '(':
		l.pos++
		return token{kind: tokString, text: decodeString(l.literal())}, true
	case c == '<' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '<':
		l.pos += 2
		return token{kind: tokOther}, true
	case c == '>' && l.pos+1 < len(l.src) && l.src[l.pos+1] == '>':
		l.pos += 2
		return token{kind: tokOther}, true
	case c == '<':
		l.pos++
		return token{kind: tokString, text: decodeString(l.hex())}, true
	case c == '[':
		l.pos++
		return token{kind: tokArrayStart}, true
	case c == ']':
		l.pos++
		return token{kind: tokArrayEnd}, true
	case c == '/':
		l.pos++
		l.regular()
		return token{kind: tokOther}, true
	case c == '{' || c == '}' || c == ')' || c == '>':
		l.pos++
		return token{kind: tokOther}, true
	}

	word := l.regular()
	if word == "" {
		l.pos++
		return token{kind: tokOther}, true
	}
	if n, err := strconv.ParseFloat(word, 64); err == nil {
		return token{kind: tokNumber, num: n}, true
	}
	return token{kind: tokOperator, text: word}, true
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n', '\f', 0:
			l.pos++
		case '%':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' && l.src[l.pos] != '\r' {
				l.pos++
			}
		default:
			return
		}
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '\f', 0, '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *lexer) regular() string {
	start := l.pos
	for l.pos < len(l.src) && !isDelimiter(l.src[l.pos]) {
		l.pos++
	}
	return string(l.src[start:l.pos])
}

// literal reads a parenthesized string after the opening paren.
func (l *lexer) literal() []byte {
	var out []byte
	depth := 1
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		l.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return out
			}
		case '\\':
			if l.pos >= len(l.src) {
				return out
			}
			e := l.src[l.pos]
			l.pos++
			switch e {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '\r':
				if l.pos < len(l.src) && l.src[l.pos] == '\n' {
					l.pos++
				}
			case '\n':
			default:
				if e >= '0' && e <= '7' {
					val := int(e - '0')
					for i := 0; i < 2 && l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '7'; i++ {
						val = val*8 + int(l.src[l.pos]-'0')
						l.pos++
					}
					out = append(out, byte(val))
				} else {
					out = append(out, e)
				}
			}
			continue
		}
		out = append(out, c)
	}
	return out
}

// hex reads a hex string after the opening angle bracket.
func (l *lexer) hex() []byte {
	var digits []byte
	for l.pos < len(l.src) && l.src[l.pos] != '>' {
		if c := l.src[l.pos]; isHex(c) {
			digits = append(digits, c)
		}
		l.pos++
	}
	l.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		n, _ := strconv.ParseUint(string(digits[2*i:2*i+2]), 16, 8)
		out[i] = byte(n)
	}
	return out
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// skipInlineImage moves past "ID <binary data> EI".
func (l *lexer) skipInlineImage() {
	for {
		tok, ok := l.next()
		if !ok {
			return
		}
		if tok.kind == tokOperator && tok.text == "ID" {
			break
		}
	}
	for l.pos+2 <= len(l.src) {
		if l.src[l.pos] == 'E' && l.src[l.pos+1] == 'I' &&
			(l.pos == 0 || isDelimiter(l.src[l.pos-1])) &&
			(l.pos+2 == len(l.src) || isDelimiter(l.src[l.pos+2])) {
			l.pos += 2
			return
		}
		l.pos++
	}
	l.pos = len(l.src)
}

// decodeString maps PDF string bytes to UTF-8: UTF-16BE with a byte order
// mark, WinAnsi otherwise.
func decodeString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		units := make([]uint16, 0, (len(b)-2)/2)
		for i := 2; i+1 < len(b); i += 2 {
			units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
		}
		return string(utf16.Decode(units))
	}
	s, err := charmap.Windows1252.NewDecoder().String(string(b))
	if err != nil {
		return string(b)
	}
	return s
}
