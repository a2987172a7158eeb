// Package ppt extracts text and picture inventories from legacy
// PowerPoint 97-2003 (.ppt) files.
//
// A .ppt is a CFB compound file whose "PowerPoint Document" stream is
// a tree of length-prefixed records: containers nest further records,
// atoms carry data. Text lives in TextCharsAtom (UTF-16LE) and
// TextBytesAtom (single-byte codepage) atoms; slide identity comes
// from SlidePersistAtom records. Truncated records end iteration at
// their nesting level with a warning, keeping everything decoded so
// far.
package ppt

import (
	"fmt"
	"os"
	"strings"

	"github.com/mtakeda/olebiff/biff"
	"github.com/mtakeda/olebiff/cfb"
	"github.com/mtakeda/olebiff/props"
	"github.com/mtakeda/olebiff/warn"
)

// Options configures a presentation parse.
type Options struct {
	Mode warn.Mode
}

// Presentation is the extracted content of a .ppt file.
type Presentation struct {
	// SlideCount counts SlidePersistAtom records, one per persisted
	// slide.
	SlideCount int

	// Texts holds every text atom's content in stream order. The
	// format does not tie a text atom to its slide without the persist
	// directory, so this is a flat list.
	Texts []string

	Pictures   []Picture
	Properties map[string]string
}

// Text joins all extracted text blocks with blank lines.
func (p *Presentation) Text() string {
	return strings.Join(p.Texts, "\n\n")
}

// NotPowerPointError reports input that is not a .ppt compound file.
type NotPowerPointError struct {
	Format string
}

func (e *NotPowerPointError) Error() string {
	if desc, ok := cfb.FormatDescriptions[e.Format]; ok {
		return fmt.Sprintf("ppt: input is %s, not a legacy .ppt file", desc)
	}
	return "ppt: input is not a compound file"
}

// Open reads and parses the presentation at path.
func Open(path string, opts Options) (*Presentation, []warn.Warning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return ParsePpt(data, opts)
}

// ParsePpt parses an in-memory .ppt file. The "PowerPoint Document"
// stream is essential; the "Pictures" stream is optional and its
// absence is not even a warning.
func ParsePpt(data []byte, opts Options) (*Presentation, []warn.Warning, error) {
	col := warn.NewCollector(opts.Mode)

	if format := cfb.Sniff(data); format != "cfb" {
		return nil, nil, &NotPowerPointError{Format: format}
	}
	cf, err := cfb.Parse(data, col)
	if err != nil {
		return nil, col.Warnings(), err
	}

	stream, err := cf.GetStream("PowerPoint Document", col)
	if err != nil {
		return nil, col.Warnings(), fmt.Errorf("ppt: %w", err)
	}

	p := &Presentation{}
	if err := p.walkRecords(stream, "PowerPoint Document", col); err != nil {
		return nil, col.Warnings(), err
	}

	if entry := cf.FindEntry("Pictures"); entry != nil {
		pictures, err := cf.ReadEntry(entry, col)
		if err != nil {
			if col.Strict() {
				return nil, col.Warnings(), fmt.Errorf("ppt: %w", err)
			}
			col.Add(warn.PptRecordTruncated, "Pictures", "stream unreadable: %v", err)
		} else if err := p.walkPictures(pictures, col); err != nil {
			return nil, col.Warnings(), err
		}
	}

	p.Properties = props.Read(cf, col)
	return p, col.Warnings(), nil
}

// walkRecords iterates one record sequence, recursing into containers
// and collecting text atoms. A truncated record stops iteration at
// this nesting level only; outer levels continue past the container.
func (p *Presentation) walkRecords(data []byte, where string, col *warn.Collector) error {
	off := 0
	for i := 0; off < len(data); i++ {
		h, payload, next, err := ReadRecord(data, off)
		if err != nil {
			if col.Strict() {
				return err
			}
			col.Add(warn.PptRecordTruncated, fmt.Sprintf("%s/record[%d]@0x%x", where, i, off), "%v", err)
			return nil
		}
		off = next

		if h.IsContainer() {
			child := fmt.Sprintf("%s/0x%04X[%d]", where, h.Type, i)
			if err := p.walkRecords(payload, child, col); err != nil {
				return err
			}
			continue
		}

		switch h.Type {
		case TypeSlidePersistAtom:
			p.SlideCount++
		case TypeTextCharsAtom, TypeCString:
			text, _ := biff.DecodeUTF16LE(payload[:len(payload)/2*2])
			p.addText(text)
		case TypeTextBytesAtom:
			text, _ := biff.DecodeCodepageBytes(payload, 1252)
			p.addText(text)
		}
	}
	return nil
}

// addText normalises and records one text block. PowerPoint uses CR
// for paragraph breaks and VT for line breaks within a paragraph.
func (p *Presentation) addText(text string) {
	text = strings.Map(func(r rune) rune {
		switch r {
		case '\r', 0x0B:
			return '\n'
		case 0x00:
			return -1
		}
		return r
	}, text)
	if text != "" {
		p.Texts = append(p.Texts, text)
	}
}
