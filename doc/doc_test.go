package doc

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/mtakeda/olebiff/warn"
)

type namedStream struct {
	name string
	data []byte
}

const (
	endOfChain = 0xFFFFFFFE
	freeSector = 0xFFFFFFFF
	fatSector  = 0xFFFFFFFD
)

// buildCFB wraps streams in a minimal compound file: one FAT sector,
// one directory sector, each stream padded to 4096 bytes so all chains
// run through the regular FAT.
func buildCFB(t *testing.T, streams []namedStream) []byte {
	t.Helper()
	if len(streams) > 3 {
		t.Fatal("builder supports at most 3 streams")
	}

	le := binary.LittleEndian
	header := make([]byte, 512)
	copy(header, []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1})
	le.PutUint16(header[24:], 0x003E)
	le.PutUint16(header[26:], 3)
	le.PutUint16(header[28:], 0xFFFE)
	le.PutUint16(header[30:], 9)
	le.PutUint16(header[32:], 6)
	le.PutUint32(header[44:], 1)
	le.PutUint32(header[48:], 1)
	le.PutUint32(header[56:], 4096)
	le.PutUint32(header[60:], endOfChain)
	le.PutUint32(header[68:], endOfChain)
	le.PutUint32(header[76:], 0)
	for i := 1; i < 109; i++ {
		le.PutUint32(header[76+4*i:], freeSector)
	}

	fat := make([]byte, 512)
	for i := 0; i < 128; i++ {
		le.PutUint32(fat[4*i:], freeSector)
	}
	le.PutUint32(fat[0:], fatSector)
	le.PutUint32(fat[4:], endOfChain)

	dir := make([]byte, 512)
	putDirEntry(dir[0:], "Root Entry", 0x05, endOfChain, 0)

	body := make([]byte, 0, 4096*len(streams))
	sector := uint32(2)
	for i, s := range streams {
		if len(s.data) > 4096 {
			t.Fatalf("stream %q is %d bytes, builder supports up to 4096", s.name, len(s.data))
		}
		padded := make([]byte, 4096)
		copy(padded, s.data)
		body = append(body, padded...)

		for j := uint32(0); j < 8; j++ {
			next := sector + j + 1
			if j == 7 {
				next = endOfChain
			}
			le.PutUint32(fat[4*(sector+j):], next)
		}
		putDirEntry(dir[128*(i+1):], s.name, 0x02, sector, 4096)
		sector += 8
	}

	out := append([]byte{}, header...)
	out = append(out, fat...)
	out = append(out, dir...)
	return append(out, body...)
}

func putDirEntry(raw []byte, name string, typ byte, start uint32, size uint64) {
	le := binary.LittleEndian
	units := utf16.Encode([]rune(name))
	for i, u := range units {
		le.PutUint16(raw[2*i:], u)
	}
	le.PutUint16(raw[64:], uint16(2*(len(units)+1)))
	raw[66] = typ
	le.PutUint32(raw[68:], freeSector)
	le.PutUint32(raw[72:], freeSector)
	le.PutUint32(raw[76:], freeSector)
	le.PutUint32(raw[116:], start)
	le.PutUint64(raw[120:], size)
}

// buildFIB serialises a Word 97 FIB with the counted groups the parser
// validates: csw 0x0E, cslw 0x16, cbRgFcLcb 0x5D.
func buildFIB(flags uint16, fcMin, fcMac, ccpText, fcClx, lcbClx uint32) []byte {
	le := binary.LittleEndian
	base := make([]byte, 32)
	le.PutUint16(base, wordIdent)
	le.PutUint16(base[2:], 0x00C1)
	le.PutUint16(base[10:], flags)
	le.PutUint32(base[24:], fcMin)
	le.PutUint32(base[28:], fcMac)

	out := base
	out = le.AppendUint16(out, 0x000E)
	out = append(out, make([]byte, 2*0x0E)...)

	lw := make([]byte, 4*0x16)
	le.PutUint32(lw[4*ccpTextIndex:], ccpText)
	out = le.AppendUint16(out, 0x0016)
	out = append(out, lw...)

	fclcb := make([]byte, 8*0x5D)
	le.PutUint32(fclcb[4*fcClxIndex:], fcClx)
	le.PutUint32(fclcb[4*lcbClxIndex:], lcbClx)
	out = le.AppendUint16(out, 0x005D)
	return append(out, fclcb...)
}

func TestParseDocSimple8Bit(t *testing.T) {
	text := "Hello Word\r"
	wd := make([]byte, 1024+len(text))
	copy(wd, buildFIB(0, 1024, uint32(1024+len(text)), uint32(len(text)), 0, 0))
	copy(wd[1024:], text)

	data := buildCFB(t, []namedStream{{"WordDocument", wd}})
	d, warnings, err := ParseDoc(data, Options{})
	if err != nil {
		t.Fatalf("ParseDoc failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("clean fixture produced warnings: %v", warnings)
	}
	if d.Text != "Hello Word\n" {
		t.Errorf("text = %q", d.Text)
	}
	if d.FIB.Complex || d.FIB.Encrypted {
		t.Errorf("FIB flags wrong: %+v", d.FIB)
	}
}

func TestParseDocSimpleUTF16(t *testing.T) {
	raw := encodeUTF16LE("日本語テキスト\r")
	wd := make([]byte, 1024+len(raw))
	copy(wd, buildFIB(fibFlagExtChar, 1024, uint32(1024+len(raw)), uint32(len(raw)/2), 0, 0))
	copy(wd[1024:], raw)

	d, _, err := ParseDoc(buildCFB(t, []namedStream{{"WordDocument", wd}}), Options{})
	if err != nil {
		t.Fatalf("ParseDoc failed: %v", err)
	}
	if d.Text != "日本語テキスト\n" {
		t.Errorf("text = %q", d.Text)
	}
}

func encodeUTF16LE(s string) []byte {
	var out []byte
	for _, u := range utf16.Encode([]rune(s)) {
		out = binary.LittleEndian.AppendUint16(out, u)
	}
	return out
}

func TestParseDocComplexPieceTable(t *testing.T) {
	// Two pieces: "AB\r" compressed at 0x400, then "語字" UTF-16 at
	// 0x500. CLX lives at the start of the 1Table stream.
	wd := make([]byte, 0x500+4)
	copy(wd, buildFIB(fibFlagComplex|fibFlagWhichTable|fibFlagExtChar, 0x400, 0x403, 5, 0, 33))
	copy(wd[0x400:], "AB\r")
	copy(wd[0x500:], encodeUTF16LE("語字"))

	le := binary.LittleEndian
	plc := make([]byte, 4*3+8*2)
	le.PutUint32(plc[0:], 0)
	le.PutUint32(plc[4:], 3)
	le.PutUint32(plc[8:], 5)
	le.PutUint32(plc[12+2:], 0x400*2|0x40000000) // compressed, doubled fc
	le.PutUint32(plc[20+2:], 0x500)
	clx := append([]byte{clxTagPcdt, byte(len(plc)), 0, 0, 0}, plc...)

	data := buildCFB(t, []namedStream{{"WordDocument", wd}, {"1Table", clx}})
	d, warnings, err := ParseDoc(data, Options{})
	if err != nil {
		t.Fatalf("ParseDoc failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("clean fixture produced warnings: %v", warnings)
	}
	if d.Text != "AB\n語字" {
		t.Errorf("text = %q", d.Text)
	}
}

func TestParseDocMissingTableStream(t *testing.T) {
	// Complex flag set but no 1Table stream: lenient mode falls back to
	// the raw window, strict mode fails.
	text := "fallback text\r"
	wd := make([]byte, 1024+len(text))
	copy(wd, buildFIB(fibFlagComplex|fibFlagWhichTable, 1024, uint32(1024+len(text)), uint32(len(text)), 0, 33))
	copy(wd[1024:], text)
	data := buildCFB(t, []namedStream{{"WordDocument", wd}})

	d, warnings, err := ParseDoc(data, Options{})
	if err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != warn.DocStreamNotFound {
		t.Fatalf("warnings = %v, want one DOC_STREAM_NOT_FOUND", warnings)
	}
	if d.Text != "fallback text\n" {
		t.Errorf("fallback text = %q", d.Text)
	}

	if _, _, err := ParseDoc(data, Options{Mode: warn.Strict}); err == nil {
		t.Error("strict mode accepted a missing table stream")
	}
}

func TestParseDocTruncatedPiece(t *testing.T) {
	// One piece claiming more characters than the stream holds. The
	// stream is padded to 4096 in the container, so the piece must
	// reach past that.
	wd := make([]byte, 0x400+4)
	copy(wd, buildFIB(fibFlagComplex, 0x400, 0x404, 5000, 0, 25))
	copy(wd[0x400:], "abcd")

	le := binary.LittleEndian
	plc := make([]byte, 4*2+8)
	le.PutUint32(plc[0:], 0)
	le.PutUint32(plc[4:], 5000)
	le.PutUint32(plc[8+2:], 0x400*2|0x40000000)
	clx := append([]byte{clxTagPcdt, byte(len(plc)), 0, 0, 0}, plc...)

	data := buildCFB(t, []namedStream{{"WordDocument", wd}, {"0Table", clx}})
	d, warnings, err := ParseDoc(data, Options{})
	if err != nil {
		t.Fatalf("lenient parse failed: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != warn.DocTextTruncated {
		t.Fatalf("warnings = %v, want one DOC_TEXT_TRUNCATED", warnings)
	}
	if !strings.HasPrefix(d.Text, "abcd") {
		t.Errorf("partial text = %q", d.Text)
	}

	if _, _, err := ParseDoc(data, Options{Mode: warn.Strict}); err == nil {
		t.Error("strict mode accepted a truncated piece")
	}
}

func TestParseDocEncrypted(t *testing.T) {
	wd := buildFIB(fibFlagEncrypted, 0, 0, 0, 0, 0)
	data := buildCFB(t, []namedStream{{"WordDocument", wd}})

	for _, mode := range []warn.Mode{warn.Lenient, warn.Strict} {
		_, _, err := ParseDoc(data, Options{Mode: mode})
		var enc *EncryptedError
		if !errors.As(err, &enc) {
			t.Errorf("mode %v: err = %v, want EncryptedError", mode, err)
		}
	}
}

func TestParseDocBadIdent(t *testing.T) {
	wd := buildFIB(0, 0, 0, 0, 0, 0)
	wd[0], wd[1] = 0x00, 0x00
	data := buildCFB(t, []namedStream{{"WordDocument", wd}})

	_, _, err := ParseDoc(data, Options{})
	var fe *FIBError
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FIBError", err)
	}
}

func TestParseDocMissingWordDocument(t *testing.T) {
	data := buildCFB(t, []namedStream{{"SomethingElse", []byte("x")}})
	if _, _, err := ParseDoc(data, Options{}); err == nil {
		t.Error("missing WordDocument stream accepted")
	}
}
