package cfb

import (
	"encoding/binary"
	"fmt"
)

// SectorIndex is an index into the FAT or MiniFAT, or one of the
// reserved sentinel values below. Keeping it distinct from plain ints
// prevents sector numbers and byte offsets from being mixed up in
// chain arithmetic.
type SectorIndex uint32

// ByteOffset is an absolute offset into the raw file image.
type ByteOffset int64

// Reserved sector values (MS-CFB 2.1).
const (
	MaxRegularSector SectorIndex = 0xFFFFFFFA
	DIFATSector      SectorIndex = 0xFFFFFFFC
	FATSector        SectorIndex = 0xFFFFFFFD
	EndOfChain       SectorIndex = 0xFFFFFFFE
	FreeSector       SectorIndex = 0xFFFFFFFF
)

// sectorOffset returns the file offset of a regular sector. Sector 0
// begins immediately after the 512-byte header, so the file offset is
// (1+index) << sectorShift.
func (h *header) sectorOffset(sid SectorIndex) ByteOffset {
	return ByteOffset(1+uint64(sid)) << h.sectorShift
}

// readSector returns the raw bytes of a regular sector, or an error
// if the sector lies outside the file image.
func (f *File) readSector(sid SectorIndex) ([]byte, error) {
	off := f.header.sectorOffset(sid)
	end := off + ByteOffset(f.header.sectorSize())
	if off < 0 || end > ByteOffset(len(f.data)) {
		return nil, &ChainError{
			Kind:   ChainInvalid,
			Table:  "fat",
			Sector: sid,
			Detail: fmt.Sprintf("sector offset 0x%x beyond file end 0x%x", off, len(f.data)),
		}
	}
	return f.data[off:end], nil
}

// buildFAT assembles the full FAT by reading every FAT sector named by
// the DIFAT: the 109 header entries first, then the chained DIFAT
// overflow sectors used by files with more than 6.8 MB of FAT.
func (f *File) buildFAT() error {
	h := f.header
	le := binary.LittleEndian
	entriesPerSector := h.sectorSize() / 4

	fatSectors := make([]SectorIndex, 0, h.numFATSectors)
	for i := 0; i < difatInHeader; i++ {
		sid := h.difat[i]
		if sid == FreeSector || sid == EndOfChain {
			break
		}
		fatSectors = append(fatSectors, sid)
	}

	// DIFAT overflow sectors: each holds entriesPerSector-1 FAT sector
	// numbers plus a trailing link to the next DIFAT sector.
	sid := h.firstDIFAT
	for i := uint32(0); i < h.numDIFAT && sid != EndOfChain && sid != FreeSector; i++ {
		sector, err := f.readSector(sid)
		if err != nil {
			return err
		}
		for j := 0; j < entriesPerSector-1; j++ {
			fatSID := SectorIndex(le.Uint32(sector[4*j:]))
			if fatSID == FreeSector || fatSID == EndOfChain {
				continue
			}
			fatSectors = append(fatSectors, fatSID)
		}
		sid = SectorIndex(le.Uint32(sector[4*(entriesPerSector-1):]))
	}

	f.fat = make([]SectorIndex, 0, len(fatSectors)*entriesPerSector)
	for _, fatSID := range fatSectors {
		sector, err := f.readSector(fatSID)
		if err != nil {
			return err
		}
		for j := 0; j < entriesPerSector; j++ {
			f.fat = append(f.fat, SectorIndex(le.Uint32(sector[4*j:])))
		}
	}
	return nil
}

// buildMiniFAT assembles the MiniFAT by walking its own chain through
// the regular FAT.
func (f *File) buildMiniFAT() error {
	h := f.header
	le := binary.LittleEndian
	entriesPerSector := h.sectorSize() / 4

	if h.firstMiniFAT == EndOfChain || h.firstMiniFAT == FreeSector || h.numMiniFAT == 0 {
		return nil
	}
	sectors, err := f.followChain(h.firstMiniFAT, f.fat, "fat", int(h.numMiniFAT)*h.sectorSize(), h.sectorSize(), true)
	if err != nil {
		return err
	}
	f.miniFat = make([]SectorIndex, 0, len(sectors)*entriesPerSector)
	for _, sid := range sectors {
		sector, err := f.readSector(sid)
		if err != nil {
			return err
		}
		for j := 0; j < entriesPerSector; j++ {
			f.miniFat = append(f.miniFat, SectorIndex(le.Uint32(sector[4*j:])))
		}
	}
	return nil
}

// followChain walks a sector chain from start through table until the
// end-of-chain sentinel, returning the sectors visited in order.
//
// In strict mode it fails with a ChainError when a lookup leaves the
// table's bounds or revisits a sector (ChainInvalid), when the chain
// ends before covering need bytes (ChainTooShort), or when it covers
// more than a full sector beyond need (ChainLengthMismatch). need may
// be 0 to disable the length checks, e.g. for the directory stream
// whose length is not declared anywhere.
//
// In non-strict mode the walk stops at the first anomaly and returns
// whatever prefix of the chain was valid, together with the error that
// strict mode would have raised, so the caller can record a warning.
func (f *File) followChain(start SectorIndex, table []SectorIndex, tableName string, need, sectorSize int, strict bool) ([]SectorIndex, error) {
	var chain []SectorIndex
	if start == EndOfChain || start == FreeSector {
		if need > 0 {
			err := &ChainError{Kind: ChainTooShort, Table: tableName, Sector: start,
				Detail: fmt.Sprintf("empty chain cannot cover %d bytes", need)}
			if strict {
				return nil, err
			}
			return chain, err
		}
		return chain, nil
	}

	visited := make(map[SectorIndex]bool, 16)
	sid := start
	for sid != EndOfChain {
		if sid > MaxRegularSector {
			err := &ChainError{Kind: ChainInvalid, Table: tableName, Sector: sid,
				Detail: "reserved sector value inside chain"}
			if strict {
				return nil, err
			}
			return chain, err
		}
		if int(sid) >= len(table) {
			err := &ChainError{Kind: ChainInvalid, Table: tableName, Sector: sid,
				Detail: fmt.Sprintf("sector index beyond table length %d", len(table))}
			if strict {
				return nil, err
			}
			return chain, err
		}
		if visited[sid] {
			err := &ChainError{Kind: ChainInvalid, Table: tableName, Sector: sid,
				Detail: "cycle: sector already visited"}
			if strict {
				return nil, err
			}
			return chain, err
		}
		visited[sid] = true
		chain = append(chain, sid)
		sid = table[sid]
	}

	if need > 0 {
		covered := len(chain) * sectorSize
		if covered < need {
			err := &ChainError{Kind: ChainTooShort, Table: tableName, Sector: start,
				Detail: fmt.Sprintf("chain covers %d bytes, stream declares %d", covered, need)}
			if strict {
				return nil, err
			}
			return chain, err
		}
		if covered >= need+sectorSize+sectorSize {
			// One sector of slack is normal rounding; more than that
			// means the declared length and the chain disagree.
			err := &ChainError{Kind: ChainLengthMismatch, Table: tableName, Sector: start,
				Detail: fmt.Sprintf("chain covers %d bytes, stream declares only %d", covered, need)}
			if strict {
				return nil, err
			}
			return chain, err
		}
	}
	return chain, nil
}
