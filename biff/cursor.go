package biff

import (
	"encoding/binary"
	"fmt"
	"math"
)

// OutOfBoundsError reports a primitive read past the end of a buffer.
// Primitive readers never recover; classifying the failure is the
// caller's job.
type OutOfBoundsError struct {
	Offset int
	Width  int
	Length int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("biff: read of %d bytes at offset %d exceeds buffer length %d", e.Width, e.Offset, e.Length)
}

func checkBounds(data []byte, off, width int) error {
	if off < 0 || width < 0 || off+width > len(data) {
		return &OutOfBoundsError{Offset: off, Width: width, Length: len(data)}
	}
	return nil
}

// U16 reads a little-endian uint16 at off.
func U16(data []byte, off int) (uint16, error) {
	if err := checkBounds(data, off, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(data[off:]), nil
}

// U32 reads a little-endian uint32 at off.
func U32(data []byte, off int) (uint32, error) {
	if err := checkBounds(data, off, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data[off:]), nil
}

// I32 reads a little-endian int32 at off.
func I32(data []byte, off int) (int32, error) {
	v, err := U32(data, off)
	return int32(v), err
}

// Float64 reads a little-endian IEEE 754 double at off.
func Float64(data []byte, off int) (float64, error) {
	if err := checkBounds(data, off, 8); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(data[off:])), nil
}

// GUID reads a 16-byte GUID at off and formats it in the usual
// braced registry form.
func GUID(data []byte, off int) (string, error) {
	if err := checkBounds(data, off, 16); err != nil {
		return "", err
	}
	b := data[off : off+16]
	le := binary.LittleEndian
	return fmt.Sprintf("{%08X-%04X-%04X-%02X%02X-%02X%02X%02X%02X%02X%02X}",
		le.Uint32(b), le.Uint16(b[4:]), le.Uint16(b[6:]),
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15]), nil
}
