package cfb

import (
	"bytes"
	"encoding/binary"
)

// Signature is the 8-byte magic at the start of every compound file.
var Signature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

const (
	headerSize    = 512
	difatInHeader = 109
	dirEntrySize  = 128
)

// header is the decoded 512-byte compound file header.
type header struct {
	minorVersion    uint16
	majorVersion    uint16
	sectorShift     uint16
	miniSectorShift uint16
	numDirSectors   uint32
	numFATSectors   uint32
	firstDirSector  SectorIndex
	miniCutoff      uint32
	firstMiniFAT    SectorIndex
	numMiniFAT      uint32
	firstDIFAT      SectorIndex
	numDIFAT        uint32
	difat           [difatInHeader]SectorIndex
}

func (h *header) sectorSize() int {
	return 1 << h.sectorShift
}

func (h *header) miniSectorSize() int {
	return 1 << h.miniSectorShift
}

// decodeHeader validates and decodes the file header. All checks here
// are fatal: a file that fails them is either not a compound file or
// corrupt beyond structural recovery.
func decodeHeader(data []byte) (*header, error) {
	if len(data) < headerSize {
		return nil, ErrNotCompoundFile
	}
	if !bytes.Equal(data[:8], Signature) {
		return nil, ErrNotCompoundFile
	}
	le := binary.LittleEndian

	for _, b := range data[8:24] {
		if b != 0 {
			return nil, &HeaderError{Field: "clsid", Detail: "must be zero"}
		}
	}

	h := &header{
		minorVersion:    le.Uint16(data[24:26]),
		majorVersion:    le.Uint16(data[26:28]),
		sectorShift:     le.Uint16(data[30:32]),
		miniSectorShift: le.Uint16(data[32:34]),
		numDirSectors:   le.Uint32(data[40:44]),
		numFATSectors:   le.Uint32(data[44:48]),
		firstDirSector:  SectorIndex(le.Uint32(data[48:52])),
		miniCutoff:      le.Uint32(data[56:60]),
		firstMiniFAT:    SectorIndex(le.Uint32(data[60:64])),
		numMiniFAT:      le.Uint32(data[64:68]),
		firstDIFAT:      SectorIndex(le.Uint32(data[68:72])),
		numDIFAT:        le.Uint32(data[72:76]),
	}

	if byteOrder := le.Uint16(data[28:30]); byteOrder != 0xFFFE {
		return nil, &HeaderError{Field: "byteOrder", Detail: "must be 0xFFFE (little-endian)"}
	}
	switch h.majorVersion {
	case 3:
		if h.sectorShift != 9 {
			return nil, &HeaderError{Field: "sectorShift", Detail: "must be 9 for version 3"}
		}
	case 4:
		if h.sectorShift != 12 {
			return nil, &HeaderError{Field: "sectorShift", Detail: "must be 12 for version 4"}
		}
	default:
		return nil, &HeaderError{Field: "majorVersion", Detail: "must be 3 or 4"}
	}
	if h.miniSectorShift != 6 {
		return nil, &HeaderError{Field: "miniSectorShift", Detail: "must be 6"}
	}
	for _, b := range data[34:40] {
		if b != 0 {
			return nil, &HeaderError{Field: "reserved", Detail: "must be zero"}
		}
	}

	for i := 0; i < difatInHeader; i++ {
		h.difat[i] = SectorIndex(le.Uint32(data[76+4*i : 80+4*i]))
	}
	return h, nil
}
