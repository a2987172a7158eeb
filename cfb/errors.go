package cfb

import (
	"errors"
	"fmt"
)

// ErrNotCompoundFile is returned when the input does not start with
// the compound-file signature.
var ErrNotCompoundFile = errors.New("cfb: not a compound file (bad signature)")

// ChainKind classifies a sector-chain validation failure.
type ChainKind int

const (
	// ChainInvalid means a chain lookup left the table's bounds, hit a
	// reserved sentinel other than end-of-chain, or revisited a sector
	// (a cycle).
	ChainInvalid ChainKind = iota

	// ChainTooShort means the chain reached end-of-chain before
	// covering the stream's declared byte length.
	ChainTooShort

	// ChainLengthMismatch means the chain covers substantially more
	// sectors than the declared length requires.
	ChainLengthMismatch
)

func (k ChainKind) String() string {
	switch k {
	case ChainInvalid:
		return "invalid"
	case ChainTooShort:
		return "too short"
	case ChainLengthMismatch:
		return "length mismatch"
	}
	return fmt.Sprintf("ChainKind(%d)", int(k))
}

// ChainError reports a failure while walking a FAT or MiniFAT chain.
type ChainError struct {
	Kind   ChainKind
	Table  string // "fat" or "minifat"
	Sector SectorIndex
	Detail string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("cfb: %s chain %s at sector %d: %s", e.Table, e.Kind, e.Sector, e.Detail)
}

// StreamNotFoundError is returned by GetStream when no directory
// entry matches the requested name.
type StreamNotFoundError struct {
	Name string
}

func (e *StreamNotFoundError) Error() string {
	return fmt.Sprintf("cfb: stream %q not found", e.Name)
}

// HeaderError reports a structural problem in the 512-byte header.
// Header problems are always fatal: nothing past a bad header can be
// trusted.
type HeaderError struct {
	Field  string
	Detail string
}

func (e *HeaderError) Error() string {
	return fmt.Sprintf("cfb: bad header field %s: %s", e.Field, e.Detail)
}
