// Package doc extracts text from legacy Word 97-2003 (.doc) files.
//
// A .doc is a CFB compound file whose WordDocument stream opens with
// the File Information Block (FIB). Simple files hold the main text as
// one contiguous window; incrementally saved ("complex") files scatter
// it across pieces described by a piece table in a companion table
// stream. Both layouts are handled; the piece table degrades to the
// contiguous window with a warning when its stream is missing or
// undecodable in lenient mode.
package doc

import (
	"fmt"
	"os"
	"strings"

	"github.com/mtakeda/olebiff/biff"
	"github.com/mtakeda/olebiff/cfb"
	"github.com/mtakeda/olebiff/props"
	"github.com/mtakeda/olebiff/warn"
)

// Options configures a document parse.
type Options struct {
	Mode warn.Mode
}

// Document is the extracted content of a .doc file.
type Document struct {
	FIB        *FIB
	Text       string
	Properties map[string]string
}

// NotWordError reports input that is not a .doc compound file.
type NotWordError struct {
	Format string
}

func (e *NotWordError) Error() string {
	if desc, ok := cfb.FormatDescriptions[e.Format]; ok {
		return fmt.Sprintf("doc: input is %s, not a legacy .doc file", desc)
	}
	return "doc: input is not a compound file"
}

// EncryptedError reports an encrypted or obfuscated document.
type EncryptedError struct{}

func (e *EncryptedError) Error() string {
	return "doc: document is encrypted"
}

// Open reads and parses the document at path.
func Open(path string, opts Options) (*Document, []warn.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return ParseDoc(data, opts)
}

// ParseDoc parses an in-memory .doc file. The WordDocument stream and
// its FIB are essential; everything past them degrades to warnings in
// lenient mode.
func ParseDoc(data []byte, opts Options) (*Document, []warn.Warning, error) {
	col := warn.NewCollector(opts.Mode)

	if format := cfb.Sniff(data); format != "cfb" {
		return nil, nil, &NotWordError{Format: format}
	}
	cf, err := cfb.Parse(data, col)
	if err != nil {
		return nil, col.Warnings(), err
	}

	wd, err := cf.GetStream("WordDocument", col)
	if err != nil {
		return nil, col.Warnings(), fmt.Errorf("doc: %w", err)
	}
	fib, err := parseFIB(wd)
	if err != nil {
		return nil, col.Warnings(), err
	}
	if fib.Encrypted {
		return nil, col.Warnings(), &EncryptedError{}
	}

	d := &Document{FIB: fib}
	text, err := extractText(cf, wd, fib, col)
	if err != nil {
		return nil, col.Warnings(), err
	}
	d.Text = normalizeText(text)

	d.Properties = props.Read(cf, col)
	return d, col.Warnings(), nil
}

// extractText picks the piece-table path for complex files and the
// contiguous fcMin..fcMac window otherwise. In lenient mode every
// piece-table failure falls back to the window, which loses ordering
// for incrementally saved files but still recovers their latest text.
func extractText(cf *cfb.File, wd []byte, fib *FIB, col *warn.Collector) (string, error) {
	if !fib.Complex {
		return windowText(wd, fib, col)
	}

	name := fib.TableStreamName()
	tbl, err := cf.GetStream(name, col)
	if err != nil {
		if col.Strict() {
			return "", fmt.Errorf("doc: complex file: %w", err)
		}
		col.Add(warn.DocStreamNotFound, name, "%v; falling back to the raw text window", err)
		return windowText(wd, fib, col)
	}

	pieces, err := pieceTable(tbl, fib)
	if err != nil {
		if col.Strict() {
			return "", err
		}
		col.Add(warn.DocTextTruncated, name, "%v; falling back to the raw text window", err)
		return windowText(wd, fib, col)
	}
	return pieceText(wd, pieces, col)
}

func pieceTable(tbl []byte, fib *FIB) ([]piece, error) {
	if fib.LcbClx == 0 {
		return nil, clxErrf("FIB declares no CLX")
	}
	end := int(fib.FcClx) + int(fib.LcbClx)
	if int(fib.FcClx) > len(tbl) || end > len(tbl) {
		return nil, clxErrf("CLX at 0x%x+%d outside %d-byte table stream", fib.FcClx, fib.LcbClx, len(tbl))
	}
	return parseClx(tbl[fib.FcClx:end])
}

// pieceText concatenates every piece's characters in character-position
// order. A piece reaching past the end of the WordDocument stream is
// truncated with a warning and ends the walk; pieces are stored in cp
// order, so everything after a truncated piece would be damaged too.
func pieceText(wd []byte, pieces []piece, col *warn.Collector) (string, error) {
	var b strings.Builder
	for i, p := range pieces {
		count := int(p.CpEnd - p.CpStart)
		if count == 0 {
			continue
		}
		width := 2
		if p.Compressed {
			width = 1
		}
		start, end := int(p.Fc), int(p.Fc)+count*width

		if start > len(wd) || end > len(wd) {
			err := fmt.Errorf("doc: piece %d at 0x%x+%d reaches past the %d-byte WordDocument stream", i, p.Fc, count*width, len(wd))
			if col.Strict() {
				return "", err
			}
			col.Add(warn.DocTextTruncated, fmt.Sprintf("WordDocument/piece[%d]", i), "%v", err)
			if start < len(wd) {
				avail := (len(wd) - start) / width * width
				b.WriteString(decodePieceBytes(wd[start:start+avail], p.Compressed))
			}
			break
		}
		b.WriteString(decodePieceBytes(wd[start:end], p.Compressed))
	}
	return b.String(), nil
}

// windowText reads the contiguous fcMin..fcMac range. The window width
// against CcpText tells 8-bit from UTF-16 text; when the character
// count is unavailable the fExtChar flag decides.
func windowText(wd []byte, fib *FIB, col *warn.Collector) (string, error) {
	start, end := int(fib.FcMin), int(fib.FcMac)
	if start > len(wd) {
		return "", fmt.Errorf("doc: fcMin 0x%x beyond the %d-byte WordDocument stream", fib.FcMin, len(wd))
	}
	if end > len(wd) {
		err := fmt.Errorf("doc: fcMac 0x%x beyond the %d-byte WordDocument stream", fib.FcMac, len(wd))
		if col.Strict() {
			return "", err
		}
		col.Add(warn.DocTextTruncated, "WordDocument", "%v", err)
		end = len(wd)
	}
	window := wd[start:end]

	wide := fib.ExtChar
	switch {
	case fib.CcpText > 0 && len(window) >= 2*int(fib.CcpText):
		wide = true
	case fib.CcpText > 0 && len(window) < 2*int(fib.CcpText):
		wide = false
	}
	return decodePieceBytes(window, !wide), nil
}

func decodePieceBytes(raw []byte, compressed bool) string {
	if compressed {
		s, _ := biff.DecodeCodepageBytes(raw, 1252)
		return s
	}
	raw = raw[:len(raw)/2*2]
	s, _ := biff.DecodeUTF16LE(raw)
	return s
}

// normalizeText maps Word's in-band control characters to plain text:
// paragraph marks and vertical tabs to newlines, cell marks to tabs,
// field and object markers dropped.
func normalizeText(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\r', 0x0B:
			return '\n'
		case 0x07:
			return '\t'
		case 0x00, 0x01, 0x08, 0x13, 0x14, 0x15:
			return -1
		}
		return r
	}, s)
}
