// Package cfb reads Compound File Binary (OLE2) containers, the
// virtual FAT filesystem underlying legacy .xls, .doc and .ppt files.
//
// A File is built once from a fully-buffered byte slice and is
// immutable afterwards; named streams are fetched with GetStream.
// Chain validation is strict by default. When a lenient warn.Collector
// is supplied, chain failures on individual streams are retried in a
// non-strict mode that truncates or zero-pads, recording warnings
// instead of failing the stream.
package cfb

import (
	"strings"

	"github.com/mtakeda/olebiff/warn"
)

// File is a parsed compound-file container. It is immutable after
// Parse and safe for concurrent readers; distinct parses share no
// state.
type File struct {
	data    []byte
	header  *header
	fat     []SectorIndex
	miniFat []SectorIndex
	dir     []*DirEntry
	root    *DirEntry

	// miniStream is the root entry's stream, which packs all
	// mini-sector data. Assembled once during Parse.
	miniStream []byte
}

// Parse builds the container model from raw file bytes. Header,
// FAT/DIFAT, directory and mini-stream problems are structural and
// always fatal; col (which may be nil) only receives warnings from
// later per-stream reads and from tolerated mini-stream truncation.
func Parse(data []byte, col *warn.Collector) (*File, error) {
	h, err := decodeHeader(data)
	if err != nil {
		return nil, err
	}
	f := &File{data: data, header: h}

	if h.miniCutoff != 4096 {
		// MS-CFB says MUST be 0x1000; tolerate deviants but flag them.
		if col.Strict() {
			return nil, &HeaderError{Field: "miniStreamCutoff", Detail: "must be 4096"}
		}
		col.Add(warn.CfbMiniCutoffNonstandard, "header",
			"mini-stream cutoff is %d, expected 4096", h.miniCutoff)
	}

	if err := f.buildFAT(); err != nil {
		return nil, err
	}
	if err := f.buildMiniFAT(); err != nil {
		return nil, err
	}
	if err := f.buildDirectory(); err != nil {
		return nil, err
	}
	if err := f.buildMiniStream(col); err != nil {
		return nil, err
	}
	return f, nil
}

// SectorSize returns the regular sector size in bytes (512 or 4096).
func (f *File) SectorSize() int {
	return f.header.sectorSize()
}

// MiniStreamCutoff returns the size below which streams are stored in
// the mini stream.
func (f *File) MiniStreamCutoff() uint64 {
	return uint64(f.header.miniCutoff)
}

// Entries returns the directory entries in storage order.
func (f *File) Entries() []*DirEntry {
	return f.dir
}

// FindEntry resolves a directory entry by case-insensitive name.
// Compound-file name comparison is case-insensitive in practice even
// though names are stored in their original case.
func (f *File) FindEntry(name string) *DirEntry {
	for _, e := range f.dir {
		if e.Type == EntryStream && strings.EqualFold(e.Name, name) {
			return e
		}
	}
	return nil
}
