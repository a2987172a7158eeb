package doc

import (
	"fmt"

	"github.com/mtakeda/olebiff/biff"
)

// CLX block tags.
const (
	clxTagGrpprl = 0x01
	clxTagPcdt   = 0x02
)

// piece is one entry of the piece table: a run of CpEnd-CpStart
// characters stored at Fc in the WordDocument stream, either as
// single-byte codepage text or UTF-16LE.
type piece struct {
	CpStart    uint32
	CpEnd      uint32
	Fc         uint32
	Compressed bool
}

// ClxError reports an undecodable piece table.
type ClxError struct {
	Detail string
}

func (e *ClxError) Error() string {
	return fmt.Sprintf("doc: bad CLX: %s", e.Detail)
}

func clxErrf(format string, args ...interface{}) *ClxError {
	return &ClxError{Detail: fmt.Sprintf(format, args...)}
}

// parseClx decodes a CLX structure: zero or more property-modifier
// blocks (skipped) followed by the Pcdt holding the piece table.
// Compressed pieces store their file offset doubled, with bit 30 of
// fcCompressed set.
func parseClx(clx []byte) ([]piece, error) {
	off := 0
	for {
		if off >= len(clx) {
			return nil, clxErrf("no Pcdt block before end of CLX")
		}
		tag := clx[off]
		switch tag {
		case clxTagGrpprl:
			cb, err := biff.U16(clx, off+1)
			if err != nil {
				return nil, clxErrf("truncated grpprl header at 0x%x", off)
			}
			off += 3 + int(cb)
		case clxTagPcdt:
			lcb, err := biff.U32(clx, off+1)
			if err != nil {
				return nil, clxErrf("truncated Pcdt header at 0x%x", off)
			}
			start := off + 5
			if start+int(lcb) > len(clx) {
				return nil, clxErrf("Pcdt declares %d bytes, %d remain", lcb, len(clx)-start)
			}
			return parsePlcPcd(clx[start : start+int(lcb)])
		default:
			return nil, clxErrf("unknown block tag 0x%02x at 0x%x", tag, off)
		}
	}
}

// parsePlcPcd decodes the PlcPcd: n+1 character positions followed by
// n 8-byte piece descriptors, so the byte length must satisfy
// lcb = 4*(n+1) + 8*n.
func parsePlcPcd(plc []byte) ([]piece, error) {
	if (len(plc)-4)%12 != 0 || len(plc) < 4 {
		return nil, clxErrf("PlcPcd length %d does not fit 4*(n+1)+8*n", len(plc))
	}
	n := (len(plc) - 4) / 12
	if n == 0 {
		return nil, clxErrf("empty piece table")
	}

	cps := make([]uint32, n+1)
	for i := range cps {
		cps[i], _ = biff.U32(plc, 4*i)
	}
	for i := 0; i < n; i++ {
		if cps[i+1] < cps[i] {
			return nil, clxErrf("character positions not monotonic at piece %d", i)
		}
	}

	pieces := make([]piece, 0, n)
	pcdBase := 4 * (n + 1)
	for i := 0; i < n; i++ {
		fcCompressed, _ := biff.U32(plc, pcdBase+8*i+2)
		p := piece{
			CpStart:    cps[i],
			CpEnd:      cps[i+1],
			Fc:         fcCompressed & 0x3FFFFFFF,
			Compressed: fcCompressed&0x40000000 != 0,
		}
		if p.Compressed {
			// Compressed pieces double the stored offset.
			p.Fc /= 2
		}
		pieces = append(pieces, p)
	}
	return pieces, nil
}
