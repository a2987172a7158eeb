package doc

import (
	"fmt"

	"github.com/mtakeda/olebiff/biff"
)

// FIB field offsets within the WordDocument stream. The File
// Information Block opens with a 32-byte base, then counted groups of
// 16-bit, 32-bit and offset/length pairs whose sizes vary by nFib.
const (
	fibBaseSize = 32

	// Indexes into the counted groups, per MS-DOC.
	ccpTextIndex = 3  // FibRgLw97: character count of the main text
	fcClxIndex   = 66 // FibRgFcLcb97: CLX offset in the table stream
	lcbClxIndex  = 67 // FibRgFcLcb97: CLX byte length
)

// FIB base flag bits.
const (
	fibFlagDot         = 0x0001
	fibFlagComplex     = 0x0004
	fibFlagHasPictures = 0x0008
	fibFlagEncrypted   = 0x0100
	fibFlagWhichTable  = 0x0200
	fibFlagExtChar     = 0x1000
	fibFlagFarEast     = 0x4000
)

// FIB is the decoded File Information Block, reduced to the fields
// text extraction needs.
type FIB struct {
	NFib       uint16
	LanguageID uint16

	Template    bool
	Complex     bool
	HasPictures bool
	Encrypted   bool
	ExtChar     bool
	FarEast     bool

	// FcMin and FcMac bound the main text in the WordDocument stream
	// for non-complex files.
	FcMin uint32
	FcMac uint32

	// CcpText is the character count of the main document text.
	CcpText uint32

	// FcClx and LcbClx locate the piece table inside the table stream.
	FcClx  uint32
	LcbClx uint32

	whichTable bool
}

// TableStreamName returns which of the two table streams the file's
// writer was using when it last saved.
func (f *FIB) TableStreamName() string {
	if f.whichTable {
		return "1Table"
	}
	return "0Table"
}

// FIBError reports a WordDocument stream whose FIB cannot be decoded.
// The FIB is essential structure, so these are always fatal.
type FIBError struct {
	Detail string
}

func (e *FIBError) Error() string {
	return fmt.Sprintf("doc: bad FIB: %s", e.Detail)
}

func fibErrf(format string, args ...interface{}) *FIBError {
	return &FIBError{Detail: fmt.Sprintf(format, args...)}
}

// wIdent value marking a Word binary file.
const wordIdent = 0xA5EC

// parseFIB decodes the FIB at the start of the WordDocument stream.
// The counted-group sizes are validated rather than assumed, so a
// stream that merely starts with the right magic cannot send the
// parser off into unrelated bytes.
func parseFIB(stream []byte) (*FIB, error) {
	if len(stream) < fibBaseSize {
		return nil, fibErrf("stream %d bytes, FIB base needs %d", len(stream), fibBaseSize)
	}
	ident, _ := biff.U16(stream, 0)
	if ident != wordIdent {
		return nil, fibErrf("wIdent 0x%04X, want 0x%04X", ident, wordIdent)
	}
	nFib, _ := biff.U16(stream, 2)
	lid, _ := biff.U16(stream, 6)
	flags, _ := biff.U16(stream, 10)
	fcMin, _ := biff.U32(stream, 24)
	fcMac, _ := biff.U32(stream, 28)

	fib := &FIB{
		NFib:        nFib,
		LanguageID:  lid,
		Template:    flags&fibFlagDot != 0,
		Complex:     flags&fibFlagComplex != 0,
		HasPictures: flags&fibFlagHasPictures != 0,
		Encrypted:   flags&fibFlagEncrypted != 0,
		ExtChar:     flags&fibFlagExtChar != 0,
		FarEast:     flags&fibFlagFarEast != 0,
		whichTable:  flags&fibFlagWhichTable != 0,
		FcMin:       fcMin,
		FcMac:       fcMac,
	}
	if fcMac < fcMin {
		return nil, fibErrf("fcMac 0x%x before fcMin 0x%x", fcMac, fcMin)
	}

	// FibRgW97: a 16-bit count of 16-bit values.
	off := fibBaseSize
	csw, err := biff.U16(stream, off)
	if err != nil {
		return nil, fibErrf("truncated at csw")
	}
	if csw != 0x000E {
		return nil, fibErrf("csw 0x%04X, want 0x000E", csw)
	}
	off += 2 + 2*int(csw)

	// FibRgLw97: a 16-bit count of 32-bit values.
	cslw, err := biff.U16(stream, off)
	if err != nil {
		return nil, fibErrf("truncated at cslw")
	}
	if cslw != 0x0016 {
		return nil, fibErrf("cslw 0x%04X, want 0x0016", cslw)
	}
	ccpText, err := biff.U32(stream, off+2+4*ccpTextIndex)
	if err != nil {
		return nil, fibErrf("truncated in FibRgLw97")
	}
	fib.CcpText = ccpText
	off += 2 + 4*int(cslw)

	// FibRgFcLcb: a 16-bit count of 64-bit offset/length pairs. The
	// count grows with each Word release; 0x005D is the Word 97
	// minimum and anything smaller cannot hold the CLX pair.
	cbRgFcLcb, err := biff.U16(stream, off)
	if err != nil {
		return nil, fibErrf("truncated at cbRgFcLcb")
	}
	if cbRgFcLcb < 0x005D {
		return nil, fibErrf("cbRgFcLcb 0x%04X below Word 97 minimum 0x005D", cbRgFcLcb)
	}
	fcClx, err := biff.U32(stream, off+2+4*fcClxIndex)
	if err != nil {
		return nil, fibErrf("truncated in FibRgFcLcb")
	}
	lcbClx, err := biff.U32(stream, off+2+4*lcbClxIndex)
	if err != nil {
		return nil, fibErrf("truncated in FibRgFcLcb")
	}
	fib.FcClx = fcClx
	fib.LcbClx = lcbClx
	return fib, nil
}
