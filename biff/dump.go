package biff

import (
	"fmt"
	"io"
)

// HexCharDump writes a hex-and-character dump of data[offset:offset+size]
// to w, 16 bytes per line. NUL prints as '~' and other non-printable
// bytes as '?', so text embedded in records stays legible. When
// unnumbered is true the offset column is omitted, which keeps dumps
// of equivalent files diffable.
func HexCharDump(data []byte, offset, size int, base int, w io.Writer, unnumbered bool) {
	if offset+size > len(data) {
		size = len(data) - offset
	}
	for pos := offset; pos < offset+size; pos += 16 {
		end := pos + 16
		if end > offset+size {
			end = offset + size
		}
		chunk := data[pos:end]

		var hexpart, charpart string
		for _, b := range chunk {
			hexpart += fmt.Sprintf("%02x ", b)
			switch {
			case b == 0:
				charpart += "~"
			case b < 0x20 || b > 0x7E:
				charpart += "?"
			default:
				charpart += string(rune(b))
			}
		}
		if unnumbered {
			fmt.Fprintf(w, "%-48s %s\n", hexpart, charpart)
		} else {
			fmt.Fprintf(w, "%5d: %-48s %s\n", base+pos-offset, hexpart, charpart)
		}
	}
}

// DumpRecords writes a record-by-record summary of a BIFF stream to
// w: offset, type name, declared length, then a hex dump of the
// payload. CONTINUE records are shown physically, not merged, since
// the dump exists to show what is actually on disk.
func DumpRecords(data []byte, w io.Writer) error {
	pos := 0
	for pos+4 <= len(data) {
		rec, next, err := ReadRecord(data, pos)
		if err != nil {
			fmt.Fprintf(w, "%6d: unreadable record: %v\n", pos, err)
			return err
		}
		fmt.Fprintf(w, "%6d: %-16s len=%d\n", pos, rec.Name(), rec.Length)
		if rec.Length > 0 {
			HexCharDump(rec.Data, 0, rec.Length, 0, w, false)
		}
		pos = next
		if rec.Type == TypeEOF {
			fmt.Fprintln(w, "------")
		}
	}
	return nil
}

// CountRecords tallies record types in a BIFF stream, for a quick
// structural summary of a file.
func CountRecords(data []byte) (map[string]int, error) {
	counts := make(map[string]int)
	pos := 0
	for pos+4 <= len(data) {
		rec, next, err := ReadRecord(data, pos)
		if err != nil {
			return counts, err
		}
		counts[rec.Name()]++
		pos = next
	}
	return counts, nil
}
