package cfb

import (
	"encoding/binary"
	"unicode/utf16"
)

// EntryType is the object type of a directory entry.
type EntryType byte

const (
	EntryUnknown EntryType = 0x00
	EntryStorage EntryType = 0x01
	EntryStream  EntryType = 0x02
	EntryRoot    EntryType = 0x05
)

func (t EntryType) String() string {
	switch t {
	case EntryStorage:
		return "storage"
	case EntryStream:
		return "stream"
	case EntryRoot:
		return "root"
	}
	return "unknown"
}

// DirEntry is one 128-byte directory entry: a named storage or stream.
type DirEntry struct {
	Name       string
	Type       EntryType
	Start      SectorIndex
	Size       uint64
	LeftSib    uint32
	RightSib   uint32
	Child      uint32
	CreatedNS  int64 // 100ns intervals since 1601-01-01, as stored
	ModifiedNS int64
}

// decodeDirEntry decodes one directory entry from a 128-byte slice.
// A zero name length with type unknown marks an unused slot and
// returns nil.
func decodeDirEntry(raw []byte, v3 bool) *DirEntry {
	le := binary.LittleEndian
	nameByteLen := int(le.Uint16(raw[64:66]))
	typ := EntryType(raw[66])
	if typ == EntryUnknown || nameByteLen < 2 || nameByteLen > 64 || nameByteLen%2 != 0 {
		return nil
	}

	units := make([]uint16, nameByteLen/2)
	for i := range units {
		units[i] = le.Uint16(raw[2*i:])
	}
	// Trim the UTF-16 null terminator the format requires.
	if units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}

	size := le.Uint64(raw[120:128])
	if v3 {
		// Version 3 writers leave garbage in the upper 32 bits.
		size &= 0xFFFFFFFF
	}

	return &DirEntry{
		Name:       string(utf16.Decode(units)),
		Type:       typ,
		Start:      SectorIndex(le.Uint32(raw[116:120])),
		Size:       size,
		LeftSib:    le.Uint32(raw[68:72]),
		RightSib:   le.Uint32(raw[72:76]),
		Child:      le.Uint32(raw[76:80]),
		CreatedNS:  int64(le.Uint64(raw[100:108])),
		ModifiedNS: int64(le.Uint64(raw[108:116])),
	}
}

// buildDirectory reads the directory stream, which is itself a chain
// within the FAT, and decodes every allocated entry. The directory is
// essential structure: any failure here is fatal for the whole parse.
func (f *File) buildDirectory() error {
	h := f.header
	sectors, err := f.followChain(h.firstDirSector, f.fat, "fat", 0, h.sectorSize(), true)
	if err != nil {
		return err
	}
	entriesPerSector := h.sectorSize() / dirEntrySize
	v3 := h.majorVersion == 3
	for _, sid := range sectors {
		sector, err := f.readSector(sid)
		if err != nil {
			return err
		}
		for i := 0; i < entriesPerSector; i++ {
			entry := decodeDirEntry(sector[i*dirEntrySize:(i+1)*dirEntrySize], v3)
			if entry == nil {
				continue
			}
			f.dir = append(f.dir, entry)
			if entry.Type == EntryRoot && f.root == nil {
				f.root = entry
			}
		}
	}
	return nil
}
