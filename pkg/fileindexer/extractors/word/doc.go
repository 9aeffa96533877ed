// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package word

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
)

// Word 97-2003 binary format constants.
const (
	wordIdent = 0xA5EC

	fibFlagsOffset   = 0x0A
	fibCcpTextOffset = 0x4C
	fibFcClxOffset   = 0x1A2
	fibLcbClxOffset  = 0x1A6
	fibMinSize       = fibLcbClxOffset + 4

	flagEncrypted   = 0x0100
	flagWhichTblStm = 0x0200

	clxPrc  = 0x01
	clxPcdt = 0x02

	pcdSize        = 8
	fcCompressed   = 0x40000000
	maxDocTextSize = 1 << 28
)

// Word97 special characters.
const (
	chFieldBegin = 0x13
	chFieldSep   = 0x14
	chFieldEnd   = 0x15
)

// readDoc opens a compound file and decodes its WordDocument stream.
func readDoc(r io.ReaderAt) (*Document, error) {
	cfb, err := mscfb.New(r)
	if err != nil {
		return nil, fmt.Errorf("open compound file: %w", err)
	}

	streams := make(map[string][]byte, 3)
	for entry, err := cfb.Next(); err == nil; entry, err = cfb.Next() {
		switch entry.Name {
		case "WordDocument", "0Table", "1Table":
			data, err := io.ReadAll(entry)
			if err != nil {
				return nil, fmt.Errorf("read %s stream: %w", entry.Name, err)
			}
			streams[entry.Name] = data
		}
	}

	wordDoc, ok := streams["WordDocument"]
	if !ok {
		return nil, errors.New("no WordDocument stream")
	}
	if len(wordDoc) < fibMinSize {
		return nil, errors.New("file information block too short")
	}
	table := "0Table"
	if binary.LittleEndian.Uint16(wordDoc[fibFlagsOffset:])&flagWhichTblStm != 0 {
		table = "1Table"
	}
	return parseWord97(wordDoc, streams[table])
}

// parseWord97 reads the main document text through the piece table.
func parseWord97(wordDoc, table []byte) (*Document, error) {
	if len(wordDoc) < fibMinSize {
		return nil, errors.New("file information block too short")
	}
	if binary.LittleEndian.Uint16(wordDoc) != wordIdent {
		return nil, errors.New("not a Word 97-2003 document")
	}
	if binary.LittleEndian.Uint16(wordDoc[fibFlagsOffset:])&flagEncrypted != 0 {
		return nil, errors.New("document is encrypted")
	}

	ccpText := binary.LittleEndian.Uint32(wordDoc[fibCcpTextOffset:])
	fcClx := binary.LittleEndian.Uint32(wordDoc[fibFcClxOffset:])
	lcbClx := binary.LittleEndian.Uint32(wordDoc[fibLcbClxOffset:])
	if uint64(fcClx)+uint64(lcbClx) > uint64(len(table)) {
		return nil, errors.New("piece table out of range")
	}

	pieces, err := parseClx(table[fcClx : fcClx+lcbClx])
	if err != nil {
		return nil, err
	}

	var text []rune
	for _, pc := range pieces {
		if uint32(len(text)) >= ccpText {
			break
		}
		n := min(pc.cpEnd-pc.cpStart, ccpText-uint32(len(text)))
		chunk, err := pc.decode(wordDoc, n)
		if err != nil {
			return nil, err
		}
		text = append(text, chunk...)
		if len(text) > maxDocTextSize {
			return nil, errors.New("document text too large")
		}
	}

	return &Document{Sections: [][]*Element{splitWord97(text)}}, nil
}

type piece struct {
	cpStart, cpEnd uint32
	fc             uint32
}

func (pc piece) decode(wordDoc []byte, n uint32) ([]rune, error) {
	if pc.fc&fcCompressed != 0 {
		off := uint64(pc.fc&^fcCompressed) / 2
		if off+uint64(n) > uint64(len(wordDoc)) {
			return nil, errors.New("text piece out of range")
		}
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(wordDoc[off : off+uint64(n)])
		if err != nil {
			return nil, fmt.Errorf("decode text piece: %w", err)
		}
		return []rune(string(decoded)), nil
	}

	off := uint64(pc.fc)
	if off+2*uint64(n) > uint64(len(wordDoc)) {
		return nil, errors.New("text piece out of range")
	}
	units := make([]uint16, n)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(wordDoc[off+2*uint64(i):])
	}
	return utf16.Decode(units), nil
}

// parseClx skips Prc entries and decodes the PlcPcd of the Pcdt.
func parseClx(clx []byte) ([]piece, error) {
	pos := 0
	for pos < len(clx) {
		switch clx[pos] {
		case clxPrc:
			if pos+3 > len(clx) {
				return nil, errors.New("truncated clx")
			}
			cb := int(int16(binary.LittleEndian.Uint16(clx[pos+1:])))
			if cb < 0 || pos+3+cb > len(clx) {
				return nil, errors.New("truncated clx")
			}
			pos += 3 + cb
		case clxPcdt:
			if pos+5 > len(clx) {
				return nil, errors.New("truncated clx")
			}
			lcb := int(binary.LittleEndian.Uint32(clx[pos+1:]))
			plc := clx[pos+5:]
			if lcb > len(plc) || lcb < 4 || (lcb-4)%12 != 0 {
				return nil, errors.New("invalid piece table")
			}
			return parsePlcPcd(plc[:lcb]), nil
		default:
			return nil, fmt.Errorf("unexpected clx entry 0x%02x", clx[pos])
		}
	}
	return nil, errors.New("no piece table")
}

func parsePlcPcd(plc []byte) []piece {
	n := (len(plc) - 4) / 12
	pieces := make([]piece, 0, n)
	pcdBase := (n + 1) * 4
	for i := range n {
		start := binary.LittleEndian.Uint32(plc[i*4:])
		end := binary.LittleEndian.Uint32(plc[(i+1)*4:])
		if end < start {
			continue
		}
		fc := binary.LittleEndian.Uint32(plc[pcdBase+i*pcdSize+2:])
		pieces = append(pieces, piece{cpStart: start, cpEnd: end, fc: fc})
	}
	return pieces
}

// splitWord97 turns the raw character stream into paragraph elements,
// dropping field codes and object anchors.
func splitWord97(text []rune) []*Element {
	var (
		paras []*Element
		sb    strings.Builder
		// one entry per open field, true while inside its code part
		fields []bool
	)
	emit := func() {
		if s := sb.String(); strings.TrimSpace(s) != "" {
			paras = append(paras, &Element{Name: "paragraph", Children: []*Element{textElement(s)}})
		}
		sb.Reset()
	}

	for _, r := range text {
		switch r {
		case chFieldBegin:
			fields = append(fields, true)
			continue
		case chFieldSep:
			if n := len(fields); n > 0 {
				fields[n-1] = false
			}
			continue
		case chFieldEnd:
			if n := len(fields); n > 0 {
				fields = fields[:n-1]
			}
			continue
		}
		if inFieldCode(fields) {
			continue
		}
		switch r {
		case '\r', 0x0C:
			emit()
		case 0x07:
			sb.WriteByte(' ')
		case 0x0B:
			sb.WriteByte('\n')
		case 0x1E:
			sb.WriteByte('-')
		case 0x01, 0x02, 0x05, 0x08, 0x1F:
		default:
			sb.WriteRune(r)
		}
	}
	emit()
	return paras
}

func inFieldCode(fields []bool) bool {
	for _, code := range fields {
		if code {
			return true
		}
	}
	return false
}
