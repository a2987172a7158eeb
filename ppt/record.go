package ppt

import (
	"fmt"

	"github.com/mtakeda/olebiff/biff"
)

// Record type codes used for text and structure extraction. The full
// format defines hundreds; everything else is either recursed (for
// containers) or skipped.
const (
	TypeSlidePersistAtom uint16 = 0x03F3
	TypeTextCharsAtom    uint16 = 0x0FA0
	TypeTextBytesAtom    uint16 = 0x0FA8
	TypeCString          uint16 = 0x0FBA
)

// RecordHeader is the fixed 8-byte header opening every record: a
// packed version/instance word, a type code and a payload length.
// A version nibble of 0xF marks a container whose payload is itself a
// record sequence.
type RecordHeader struct {
	Version  uint8
	Instance uint16
	Type     uint16
	Length   uint32
}

// IsContainer reports whether the record's payload holds child
// records.
func (h RecordHeader) IsContainer() bool {
	return h.Version == 0x0F
}

// RecordTruncatedError reports a record whose header or declared
// payload extends past the end of the containing byte range.
type RecordTruncatedError struct {
	Offset    int
	Type      uint16
	Declared  int
	Remaining int
}

func (e *RecordTruncatedError) Error() string {
	return fmt.Sprintf("ppt: record 0x%04X at offset 0x%x declares %d payload bytes but only %d remain",
		e.Type, e.Offset, e.Declared, e.Remaining)
}

// ReadRecord reads one record header at off and returns the header,
// its payload, and the offset just past the record. The payload
// aliases the input.
func ReadRecord(data []byte, off int) (RecordHeader, []byte, int, error) {
	verInstance, err := biff.U16(data, off)
	if err != nil {
		return RecordHeader{}, nil, off, &RecordTruncatedError{Offset: off, Remaining: len(data) - off}
	}
	typ, _ := biff.U16(data, off+2)
	length, lerr := biff.U32(data, off+4)
	if lerr != nil {
		return RecordHeader{}, nil, off, &RecordTruncatedError{Offset: off, Type: typ, Remaining: len(data) - off}
	}

	h := RecordHeader{
		Version:  uint8(verInstance & 0x000F),
		Instance: verInstance >> 4,
		Type:     typ,
		Length:   length,
	}
	start := off + 8
	if start+int(length) > len(data) {
		return h, nil, off, &RecordTruncatedError{
			Offset:    off,
			Type:      typ,
			Declared:  int(length),
			Remaining: len(data) - start,
		}
	}
	return h, data[start : start+int(length)], start + int(length), nil
}
