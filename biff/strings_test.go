package biff

import (
	"encoding/binary"
	"errors"
	"testing"
	"unicode/utf16"
)

// encodeCompressed builds an XLUnicodeString with single-byte chars.
// Code points must all be below 256.
func encodeCompressed(s string, shortLen bool) []byte {
	runes := []rune(s)
	var out []byte
	if shortLen {
		out = append(out, byte(len(runes)))
	} else {
		out = binary.LittleEndian.AppendUint16(out, uint16(len(runes)))
	}
	out = append(out, 0x00)
	for _, r := range runes {
		out = append(out, byte(r))
	}
	return out
}

// encodeUTF16 builds an XLUnicodeString with UTF-16LE chars.
func encodeUTF16(s string, shortLen bool) []byte {
	units := utf16.Encode([]rune(s))
	var out []byte
	if shortLen {
		out = append(out, byte(len(units)))
	} else {
		out = binary.LittleEndian.AppendUint16(out, uint16(len(units)))
	}
	out = append(out, 0x01)
	for _, u := range units {
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return out
}

func TestCompressedRoundTripAllBytes(t *testing.T) {
	// Every code point 0-255 must survive a compressed round trip.
	runes := make([]rune, 0, 255)
	for cp := 1; cp <= 255; cp++ {
		runes = append(runes, rune(cp))
	}
	original := string(runes)
	got, next, err := DecodeShortString(encodeCompressed(original, true), 0)
	if err != nil {
		t.Fatalf("DecodeShortString failed: %v", err)
	}
	if got != original {
		t.Error("compressed round trip lost code points")
	}
	if next != 2+255 {
		t.Errorf("next = %d, want %d", next, 2+255)
	}
}

func TestUTF16RoundTripBMP(t *testing.T) {
	samples := []string{
		"hello",
		"日本語のテキスト",
		"עברית",
		"العربية",
		"Ω≈ç√∫",
		"",
	}
	for _, s := range samples {
		got, _, err := DecodeString(encodeUTF16(s, false), 0)
		if err != nil {
			t.Errorf("DecodeString(%q) failed: %v", s, err)
			continue
		}
		if got != s {
			t.Errorf("round trip %q -> %q", s, got)
		}
	}
}

func TestStringFlagRejection(t *testing.T) {
	for _, flags := range []byte{0x02, 0x04, 0x08, 0x0C, 0xF0} {
		data := []byte{0x01, flags, 0x41}
		_, _, err := DecodeShortString(data, 0)
		var ue *UnsupportedStringError
		if !errors.As(err, &ue) {
			t.Errorf("flags 0x%02x: expected UnsupportedStringError, got %v", flags, err)
		}
	}
}

func TestStringTruncation(t *testing.T) {
	// Declared 5 chars, only 3 present.
	data := []byte{0x05, 0x00, 'A', 'B', 'C'}
	var oob *OutOfBoundsError
	if _, _, err := DecodeShortString(data, 0); !errors.As(err, &oob) {
		t.Errorf("expected OutOfBoundsError, got %v", err)
	}
}

func TestDecodeCodepageBytes(t *testing.T) {
	// Windows-1251 Cyrillic: "Привет" bytes.
	s, fallback := DecodeCodepageBytes([]byte{0xCF, 0xF0, 0xE8, 0xE2, 0xE5, 0xF2}, 1251)
	if fallback {
		t.Error("cp1251 reported as fallback")
	}
	if s != "Привет" {
		t.Errorf("cp1251 decode = %q", s)
	}

	// Unknown codepage falls back to Latin-1 and says so.
	s, fallback = DecodeCodepageBytes([]byte{0x41, 0xE9}, 99999)
	if !fallback {
		t.Error("unknown codepage not reported as fallback")
	}
	if s != "Aé" {
		t.Errorf("latin-1 fallback = %q", s)
	}
}

func TestDecodeUTF16LE(t *testing.T) {
	raw := []byte{0x41, 0x00, 0x2C, 0x67} // "A本"
	s, err := DecodeUTF16LE(raw)
	if err != nil || s != "A本" {
		t.Errorf("DecodeUTF16LE = %q, %v", s, err)
	}
	if _, err := DecodeUTF16LE([]byte{0x41, 0x00, 0x2C}); err == nil {
		t.Error("odd-length input accepted")
	}
}
