package biff

import "fmt"

// Record is one logical BIFF record. After CONTINUE merging, Data
// holds the full logical payload (the sum of all merged physical
// payloads) while Length preserves the first physical record's
// declared length.
type Record struct {
	Type   uint16
	Length int
	Data   []byte
}

// Name returns the record type's MS-XLS name.
func (r Record) Name() string {
	return RecordName(r.Type)
}

// RecordTruncatedError reports a record header whose declared payload
// extends past the end of the stream. Drivers treat this as
// recoverable: iteration stops and everything decoded so far is kept.
type RecordTruncatedError struct {
	Offset    int
	Type      uint16
	Declared  int
	Remaining int
}

func (e *RecordTruncatedError) Error() string {
	return fmt.Sprintf("biff: %s record at offset 0x%x declares %d payload bytes but only %d remain",
		RecordName(e.Type), e.Offset, e.Declared, e.Remaining)
}

// ReadRecord reads one physical record at off: a 2-byte type code, a
// 2-byte payload length, then the payload. It returns the record and
// the offset just past it. The payload aliases the input buffer; the
// caller must not mutate it.
func ReadRecord(data []byte, off int) (Record, int, error) {
	code, err := U16(data, off)
	if err != nil {
		return Record{}, off, err
	}
	length, err := U16(data, off+2)
	if err != nil {
		return Record{}, off, err
	}
	payloadStart := off + 4
	if payloadStart+int(length) > len(data) {
		return Record{}, off, &RecordTruncatedError{
			Offset:    off,
			Type:      code,
			Declared:  int(length),
			Remaining: len(data) - payloadStart,
		}
	}
	rec := Record{
		Type:   code,
		Length: int(length),
		Data:   data[payloadStart : payloadStart+int(length)],
	}
	return rec, payloadStart + int(length), nil
}

// ReadRecordWithContinues reads the record at off and absorbs every
// immediately following CONTINUE record into it, modelling BIFF8's
// rule that a payload longer than MaxRecordPayload is split across
// physical records. It returns the merged record, the consumed
// CONTINUE records in order (for diagnostics, and for decoders such
// as SST that need the physical boundaries), and the offset just past
// the last consumed record.
//
// When the first record has no CONTINUE successors the merged record
// is identical to a plain ReadRecord and its Data still aliases the
// input; merging allocates only when at least one CONTINUE is
// absorbed.
func ReadRecordWithContinues(data []byte, off int) (Record, []Record, int, error) {
	first, next, err := ReadRecord(data, off)
	if err != nil {
		return Record{}, nil, off, err
	}

	var continues []Record
	merged := first
	for {
		peek, err := U16(data, next)
		if err != nil || peek != TypeContinue {
			break
		}
		cont, afterCont, err := ReadRecord(data, next)
		if err != nil {
			// A truncated trailing CONTINUE: surface it so the driver
			// can keep the merged prefix and stop.
			return merged, continues, next, err
		}
		if len(continues) == 0 {
			merged.Data = append(append([]byte{}, first.Data...), cont.Data...)
		} else {
			merged.Data = append(merged.Data, cont.Data...)
		}
		continues = append(continues, cont)
		next = afterCont
	}
	return merged, continues, next, nil
}

// ContinueBoundaries returns the offsets within a merged record's Data
// at which each absorbed CONTINUE record begins. Decoders whose
// payloads re-declare state at physical boundaries (SST) need these.
func ContinueBoundaries(first Record, continues []Record) []int {
	if len(continues) == 0 {
		return nil
	}
	bounds := make([]int, 0, len(continues))
	pos := first.Length
	for _, c := range continues {
		bounds = append(bounds, pos)
		pos += c.Length
	}
	return bounds
}
