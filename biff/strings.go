package biff

import (
	"encoding/binary"
	"fmt"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// XLUnicodeString option flag bits (MS-XLS 2.5.294).
const (
	strFlagHighByte = 0x01 // set: UTF-16LE, clear: compressed 1 byte/char
	strFlagExtended = 0x04 // Asian phonetic settings follow
	strFlagRichText = 0x08 // formatting runs follow
	strFlagReserved = 0xF2
)

// UnsupportedStringError reports a string whose option flags request a
// rich-text or phonetic variant, or set reserved bits. The strict
// per-record decoders reject these instead of guessing at the layout
// of the trailing extension blocks.
type UnsupportedStringError struct {
	Flags byte
}

func (e *UnsupportedStringError) Error() string {
	return fmt.Sprintf("biff: unsupported string option flags 0x%02x (rich-text/phonetic variants not decoded)", e.Flags)
}

// decodeChars decodes cch characters at off, selecting the encoding
// from the already-read flag byte: compressed single-byte characters
// used directly as code points 0-255, or UTF-16LE. It returns the
// string and the offset just past the character data.
func decodeChars(data []byte, off, cch int, highByte bool) (string, int, error) {
	if !highByte {
		if err := checkBounds(data, off, cch); err != nil {
			return "", off, err
		}
		units := make([]uint16, cch)
		for i := 0; i < cch; i++ {
			units[i] = uint16(data[off+i])
		}
		return string(utf16.Decode(units)), off + cch, nil
	}
	if err := checkBounds(data, off, 2*cch); err != nil {
		return "", off, err
	}
	units := make([]uint16, cch)
	for i := 0; i < cch; i++ {
		units[i] = binary.LittleEndian.Uint16(data[off+2*i:])
	}
	return string(utf16.Decode(units)), off + 2*cch, nil
}

// DecodeShortString decodes an XLUnicodeString with an 8-bit character
// count: cch byte, flag byte, characters. Rich-text and phonetic
// variants are rejected. Returns the string and the offset just past
// it.
func DecodeShortString(data []byte, off int) (string, int, error) {
	if err := checkBounds(data, off, 2); err != nil {
		return "", off, err
	}
	cch := int(data[off])
	flags := data[off+1]
	if flags&^byte(strFlagHighByte) != 0 {
		return "", off, &UnsupportedStringError{Flags: flags}
	}
	return decodeChars(data, off+2, cch, flags&strFlagHighByte != 0)
}

// DecodeString decodes an XLUnicodeString with a 16-bit character
// count: cch uint16, flag byte, characters. Rich-text and phonetic
// variants are rejected.
func DecodeString(data []byte, off int) (string, int, error) {
	cch16, err := U16(data, off)
	if err != nil {
		return "", off, err
	}
	if err := checkBounds(data, off+2, 1); err != nil {
		return "", off, err
	}
	flags := data[off+2]
	if flags&^byte(strFlagHighByte) != 0 {
		return "", off, &UnsupportedStringError{Flags: flags}
	}
	return decodeChars(data, off+3, int(cch16), flags&strFlagHighByte != 0)
}

// codepageDecoders maps BIFF codepage numbers to decoders for the
// pre-Unicode byte strings of BIFF5 and earlier, and for PPT
// TextBytesAtom payloads. 1200 (UTF-16LE) is handled separately.
var codepageDecoders = map[int]*charmap.Charmap{
	437:   charmap.CodePage437,
	850:   charmap.CodePage850,
	852:   charmap.CodePage852,
	866:   charmap.CodePage866,
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
	32769: charmap.Windows1252,
}

// DecodeCodepageBytes decodes a raw byte string using the given BIFF
// codepage, falling back to Latin-1 when the codepage is unknown. The
// fallback is reported so lenient drivers can record a warning.
func DecodeCodepageBytes(raw []byte, codepage int) (s string, fallback bool) {
	var dec *encoding.Decoder
	if cm, ok := codepageDecoders[codepage]; ok {
		dec = cm.NewDecoder()
	} else {
		dec = charmap.ISO8859_1.NewDecoder()
		fallback = codepage != 0
	}
	out, err := dec.Bytes(raw)
	if err != nil {
		// Charmap decoders replace rather than fail; belt and braces.
		return string(raw), true
	}
	return string(out), fallback
}

// DecodeUTF16LE decodes raw UTF-16LE bytes. An odd trailing byte is an
// error: it means the caller's length arithmetic is wrong.
func DecodeUTF16LE(raw []byte) (string, error) {
	if len(raw)%2 != 0 {
		return "", fmt.Errorf("biff: UTF-16LE byte string has odd length %d", len(raw))
	}
	units := make([]uint16, len(raw)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return string(utf16.Decode(units)), nil
}
