package cfb

import (
	"errors"
	"fmt"

	"github.com/mtakeda/olebiff/warn"
)

// buildMiniStream assembles the root entry's stream, within which all
// mini-sector data lives. Missing or short mini streams are tolerated
// in lenient mode (small files often have none at all); strict mode
// requires the declared length to be fully covered.
func (f *File) buildMiniStream(col *warn.Collector) error {
	if f.root == nil || f.root.Size == 0 {
		return nil
	}
	h := f.header
	sectors, err := f.followChain(f.root.Start, f.fat, "fat", int(f.root.Size), h.sectorSize(), true)
	if err != nil {
		if col.Strict() {
			return err
		}
		col.Add(warn.CfbMiniStreamTruncated, "root",
			"mini stream chain incomplete: %v", err)
		sectors, _ = f.followChain(f.root.Start, f.fat, "fat", int(f.root.Size), h.sectorSize(), false)
	}
	buf := make([]byte, 0, len(sectors)*h.sectorSize())
	for _, sid := range sectors {
		sector, err := f.readSector(sid)
		if err != nil {
			if col.Strict() {
				return err
			}
			col.Add(warn.CfbMiniStreamTruncated, "root",
				"mini stream sector unreadable: %v", err)
			break
		}
		buf = append(buf, sector...)
	}
	if uint64(len(buf)) > f.root.Size {
		buf = buf[:f.root.Size]
	}
	f.miniStream = buf
	return nil
}

// chainWarnCode maps a chain failure to its stable warning code.
func chainWarnCode(err *ChainError) warn.Code {
	if err.Table == "minifat" {
		switch err.Kind {
		case ChainTooShort:
			return warn.CfbMiniFatChainTooShort
		case ChainLengthMismatch:
			return warn.CfbMiniFatChainLenMismatch
		default:
			return warn.CfbMiniFatChainInvalid
		}
	}
	switch err.Kind {
	case ChainTooShort:
		return warn.CfbFatChainTooShort
	case ChainLengthMismatch:
		return warn.CfbFatChainLengthMismatch
	default:
		return warn.CfbFatChainInvalid
	}
}

// GetStream returns the contents of the named stream, located by
// case-insensitive name match. Streams smaller than the mini-stream
// cutoff are routed through the MiniFAT; all others through the FAT.
//
// The chain is first walked strictly. On a chain failure with a
// lenient collector, the walk is retried in non-strict mode: the
// result is whatever the valid chain prefix covers, truncated or
// zero-padded to the declared length, and warnings record both the
// failure and the retry. With a nil or strict collector the chain
// failure is returned as-is.
func (f *File) GetStream(name string, col *warn.Collector) ([]byte, error) {
	entry := f.FindEntry(name)
	if entry == nil {
		return nil, &StreamNotFoundError{Name: name}
	}
	return f.ReadEntry(entry, col)
}

// ReadEntry reads the stream belonging to an already-resolved
// directory entry, with the same lenient-retry behaviour as GetStream.
func (f *File) ReadEntry(entry *DirEntry, col *warn.Collector) ([]byte, error) {
	mini := entry.Size < uint64(f.header.miniCutoff)
	buf, err := f.assembleStream(entry, mini, true)
	if err == nil {
		return buf, nil
	}
	var chainErr *ChainError
	if !errors.As(err, &chainErr) || col.Strict() || col == nil {
		return nil, err
	}

	where := fmt.Sprintf("stream %q", entry.Name)
	col.Add(chainWarnCode(chainErr), where, "%v", chainErr)
	col.Add(warn.CfbNonStrictRetry, where,
		"retrying chain walk in non-strict mode")

	buf, retryErr := f.assembleStream(entry, mini, false)
	if retryErr != nil {
		// Non-strict assembly never fails on chain anomalies, so a
		// failure here means the entry itself is unusable.
		return nil, retryErr
	}
	return buf, nil
}

// assembleStream walks the appropriate chain and concatenates sector
// contents, truncating to the declared byte length. In non-strict mode
// anomalies stop the walk early and the result is zero-padded to the
// declared length, capped at the file image size, instead of failing.
func (f *File) assembleStream(entry *DirEntry, mini, strict bool) ([]byte, error) {
	h := f.header
	need := int(entry.Size)
	if !strict && entry.Size > uint64(len(f.data)) {
		// No stream can hold more bytes than the whole file image;
		// larger declared sizes are directory corruption. Padding stops
		// at the image size so a forged entry cannot demand gigabytes.
		need = len(f.data)
	}

	var (
		table      []SectorIndex
		tableName  string
		sectorSize int
	)
	if mini {
		table, tableName, sectorSize = f.miniFat, "minifat", h.miniSectorSize()
	} else {
		table, tableName, sectorSize = f.fat, "fat", h.sectorSize()
	}

	chain, err := f.followChain(entry.Start, table, tableName, need, sectorSize, strict)
	if err != nil && strict {
		return nil, err
	}

	buf := make([]byte, 0, need+sectorSize)
	for _, sid := range chain {
		var sector []byte
		if mini {
			sector = f.readMiniSector(sid)
			if sector == nil {
				if strict {
					return nil, &ChainError{Kind: ChainInvalid, Table: "minifat", Sector: sid,
						Detail: "mini sector beyond mini stream"}
				}
				break
			}
		} else {
			var rerr error
			sector, rerr = f.readSector(sid)
			if rerr != nil {
				if strict {
					return nil, rerr
				}
				break
			}
		}
		buf = append(buf, sector...)
		if len(buf) >= need {
			break
		}
	}

	if len(buf) < need {
		if strict {
			return nil, &ChainError{Kind: ChainTooShort, Table: tableName, Sector: entry.Start,
				Detail: fmt.Sprintf("assembled %d bytes of declared %d", len(buf), need)}
		}
		buf = append(buf, make([]byte, need-len(buf))...)
	}
	return buf[:need], nil
}

// readMiniSector returns one 64-byte mini sector out of the assembled
// mini stream, or nil if it lies beyond it.
func (f *File) readMiniSector(sid SectorIndex) []byte {
	size := f.header.miniSectorSize()
	off := int(sid) * size
	if off < 0 || off+size > len(f.miniStream) {
		return nil
	}
	return f.miniStream[off : off+size]
}
