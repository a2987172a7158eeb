package biff

// SSTRecord is the decoded shared string table.
type SSTRecord struct {
	TotalRefs int
	Strings   []string
}

// sstCursor walks a merged SST payload while tracking the physical
// CONTINUE boundaries. When a string's character data is split across
// a boundary, the continuation re-declares its own option byte and may
// switch between compressed and UTF-16 encoding mid-string; a naive
// read over the merged bytes would garble every string after the
// first split.
type sstCursor struct {
	data       []byte
	boundaries []int
	pos        int
}

// limit returns the end of the physical record containing pos.
func (c *sstCursor) limit() int {
	for _, b := range c.boundaries {
		if b > c.pos {
			return b
		}
	}
	return len(c.data)
}

func (c *sstCursor) u8() (byte, error) {
	if err := checkBounds(c.data, c.pos, 1); err != nil {
		return 0, err
	}
	v := c.data[c.pos]
	c.pos++
	return v, nil
}

func (c *sstCursor) u16() (uint16, error) {
	v, err := U16(c.data, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 2
	return v, nil
}

func (c *sstCursor) u32() (uint32, error) {
	v, err := U32(c.data, c.pos)
	if err != nil {
		return 0, err
	}
	c.pos += 4
	return v, nil
}

// readChars reads cch characters starting in the current physical
// record, re-reading the option byte at every boundary the character
// data crosses.
func (c *sstCursor) readChars(cch int, highByte bool) (string, error) {
	var out string
	remaining := cch
	for remaining > 0 {
		limit := c.limit()
		avail := limit - c.pos
		take := remaining
		if highByte {
			if take > avail/2 {
				take = avail / 2
			}
		} else if take > avail {
			take = avail
		}
		if take == 0 {
			return "", decodeErrf("SST", "string data exhausted with %d of %d characters unread", remaining, cch)
		}
		s, next, err := decodeChars(c.data, c.pos, take, highByte)
		if err != nil {
			return "", err
		}
		out += s
		c.pos = next
		remaining -= take
		if remaining > 0 {
			// Crossing into a CONTINUE record: it begins with a fresh
			// option byte for the rest of this string.
			if c.pos != limit {
				return "", decodeErrf("SST", "odd byte left before record boundary at %d", limit)
			}
			flags, err := c.u8()
			if err != nil {
				return "", err
			}
			if flags&strFlagReserved != 0 || flags&(strFlagRichText|strFlagExtended) != 0 {
				return "", decodeErrf("SST", "continuation option byte 0x%02x invalid", flags)
			}
			highByte = flags&strFlagHighByte != 0
		}
	}
	return out, nil
}

// ParseSSTRecord decodes a merged SST record. boundaries are the
// offsets of the absorbed CONTINUE records within data, as produced by
// ContinueBoundaries. Unlike the strict string decoders, SST accepts
// rich-text and phonetic variants (BIFF8 writers routinely emit them
// there) and skips the extension blocks the flags declare.
func ParseSSTRecord(data []byte, boundaries []int) (*SSTRecord, error) {
	c := &sstCursor{data: data, boundaries: boundaries}
	total, err := c.u32()
	if err != nil {
		return nil, decodeErrf("SST", "%v", err)
	}
	unique, err := c.u32()
	if err != nil {
		return nil, decodeErrf("SST", "%v", err)
	}

	rec := &SSTRecord{TotalRefs: int(total), Strings: make([]string, 0, unique)}
	for i := uint32(0); i < unique; i++ {
		cch, err := c.u16()
		if err != nil {
			return nil, decodeErrf("SST", "string %d length: %v", i, err)
		}
		flags, err := c.u8()
		if err != nil {
			return nil, decodeErrf("SST", "string %d flags: %v", i, err)
		}
		if flags&strFlagReserved != 0 {
			return nil, decodeErrf("SST", "string %d has reserved flag bits in 0x%02x", i, flags)
		}

		var runs uint16
		var extSize uint32
		if flags&strFlagRichText != 0 {
			if runs, err = c.u16(); err != nil {
				return nil, decodeErrf("SST", "string %d run count: %v", i, err)
			}
		}
		if flags&strFlagExtended != 0 {
			if extSize, err = c.u32(); err != nil {
				return nil, decodeErrf("SST", "string %d extension size: %v", i, err)
			}
		}

		s, err := c.readChars(int(cch), flags&strFlagHighByte != 0)
		if err != nil {
			return nil, err
		}
		rec.Strings = append(rec.Strings, s)

		skip := 4*int(runs) + int(extSize)
		if err := checkBounds(c.data, c.pos, skip); err != nil {
			return nil, decodeErrf("SST", "string %d extension data: %v", i, err)
		}
		c.pos += skip
	}
	return rec, nil
}
