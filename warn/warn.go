// Package warn collects structured, non-fatal parse diagnostics.
//
// Legacy Office files in the wild are frequently damaged in small ways
// that do not prevent extracting a useful document. Parsers in this
// module report such local anomalies through a Collector instead of
// returning an error, so a single corrupt record never discards an
// otherwise readable file. Every warning carries a stable Code that
// downstream tooling may branch on.
package warn

import "fmt"

// Code identifies a warning category. The set of codes is a stable,
// documented contract: codes are never renamed or reused.
type Code string

const (
	// CFB container layer.
	CfbFatChainInvalid         Code = "CFB_FAT_CHAIN_INVALID"
	CfbFatChainTooShort        Code = "CFB_FAT_CHAIN_TOO_SHORT"
	CfbFatChainLengthMismatch  Code = "CFB_FAT_CHAIN_LENGTH_MISMATCH"
	CfbMiniFatChainInvalid     Code = "CFB_MINIFAT_CHAIN_INVALID"
	CfbMiniFatChainTooShort    Code = "CFB_MINIFAT_CHAIN_TOO_SHORT"
	CfbMiniFatChainLenMismatch Code = "CFB_MINIFAT_CHAIN_LENGTH_MISMATCH"
	CfbMiniStreamTruncated     Code = "CFB_MINISTREAM_TRUNCATED"
	CfbNonStrictRetry          Code = "CFB_NON_STRICT_RETRY"
	CfbMiniCutoffNonstandard   Code = "CFB_MINI_CUTOFF_NONSTANDARD"

	// XLS / BIFF workbook layer.
	XlsRecordSkipped   Code = "XLS_RECORD_SKIPPED"
	XlsRecordTruncated Code = "XLS_RECORD_TRUNCATED"
	XlsStringFallback  Code = "XLS_STRING_FALLBACK"
	XlsSheetSkipped    Code = "XLS_SHEET_SKIPPED"

	// DOC layer.
	DocStreamNotFound Code = "DOC_STREAM_NOT_FOUND"
	DocTextTruncated  Code = "DOC_TEXT_TRUNCATED"

	// PPT layer.
	PptRecordTruncated   Code = "PPT_RECORD_TRUNCATED"
	PptBlipHeaderGuessed Code = "PPT_BLIP_HEADER_GUESSED"

	// Shared metadata layer.
	MetaPropertiesUnreadable Code = "META_PROPERTIES_UNREADABLE"
)

// Warning is one collected diagnostic. Where is a structural path
// identifying the failing entity, e.g. "Workbook/record[12]@0x1a40".
// Meta carries optional structured detail keyed by short names.
type Warning struct {
	Code    Code
	Message string
	Where   string
	Meta    map[string]string
}

func (w Warning) String() string {
	if w.Where == "" {
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
	return fmt.Sprintf("%s at %s: %s", w.Code, w.Where, w.Message)
}

// Mode selects how a parse driver treats recoverable anomalies.
type Mode int

const (
	// Lenient converts local failures into warnings plus best-effort
	// substitutes. This is the default for every top-level entry point.
	Lenient Mode = iota

	// Strict treats any anomaly as fatal.
	Strict
)

// Collector accumulates warnings for one parse. It is passed by
// pointer to every decode call that may recover; there is no ambient
// or global state. A Collector is not safe for concurrent use, which
// matches the single-threaded parse model: one Collector per parse.
type Collector struct {
	mode     Mode
	warnings []Warning
}

// NewCollector returns an empty collector in the given mode.
func NewCollector(mode Mode) *Collector {
	return &Collector{mode: mode}
}

// Strict reports whether anomalies should abort instead of being
// collected. Call sites check this before substituting a fallback.
func (c *Collector) Strict() bool {
	return c != nil && c.mode == Strict
}

// Add records a warning. Call sites recovering from an anomaly check
// Strict first and escalate the underlying error instead; purely
// informational warnings are recorded in either mode.
func (c *Collector) Add(code Code, where, format string, args ...interface{}) {
	if c == nil {
		return
	}
	c.warnings = append(c.warnings, Warning{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Where:   where,
	})
}

// AddMeta records a warning with structured detail attached.
func (c *Collector) AddMeta(code Code, where string, meta map[string]string, format string, args ...interface{}) {
	if c == nil {
		return
	}
	c.warnings = append(c.warnings, Warning{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Where:   where,
		Meta:    meta,
	})
}

// Warnings returns the collected warnings in the order they were
// recorded. The returned slice is owned by the collector.
func (c *Collector) Warnings() []Warning {
	if c == nil {
		return nil
	}
	return c.warnings
}

// Len returns the number of collected warnings.
func (c *Collector) Len() int {
	if c == nil {
		return 0
	}
	return len(c.warnings)
}
