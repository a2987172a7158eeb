package xls

import (
	"fmt"
	"math"
	"time"

	"github.com/mtakeda/olebiff/biff"
)

const (
	serialTooLarge1900 = 2958466 // first serial past 9999-12-31
	serialTooLarge1904 = 2958466 - 1462
)

var (
	epoch1904       = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	epoch1900       = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	epoch1900Minus1 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

// DateError reports a serial date number that cannot be converted.
type DateError struct {
	Serial float64
	Detail string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("xls: serial date %v: %s", e.Serial, e.Detail)
}

// SerialToTime converts an Excel serial date number to a time.Time in
// UTC under the given date system.
//
// In the 1900 system, serials in [1, 61) fall in the zone poisoned by
// Excel's phantom 1900-02-29 (Lotus 1-2-3 compatibility); dates there
// are ambiguous by one day. Serials of 60 or more are adjusted by one
// day to compensate for the phantom leap day, matching what Excel
// itself displays.
func SerialToTime(serial float64, system biff.DateSystem) (time.Time, error) {
	if serial < 0 {
		return time.Time{}, &DateError{Serial: serial, Detail: "negative"}
	}
	var epoch time.Time
	tooLarge := serialTooLarge1900
	switch system {
	case biff.DateSystem1904:
		epoch = epoch1904
		tooLarge = serialTooLarge1904
	case biff.DateSystem1900:
		if serial < 60 {
			epoch = epoch1900
		} else {
			epoch = epoch1900Minus1
		}
	default:
		return time.Time{}, &DateError{Serial: serial, Detail: fmt.Sprintf("unknown date system %q", system)}
	}
	days := int(serial)
	if days >= tooLarge {
		return time.Time{}, &DateError{Serial: serial, Detail: "year 10000 or later"}
	}

	// Excel stores times at millisecond resolution.
	frac := serial - float64(days)
	ms := int(math.Round(frac * 86400000.0))
	return epoch.AddDate(0, 0, days).
		Add(time.Duration(ms/1000)*time.Second + time.Duration(ms%1000)*time.Millisecond), nil
}

// builtinDateFormats are the standard number format indexes Excel
// reserves for date and time formats; cells whose XF points at one of
// these hold serial dates.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true,
	20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true,
	33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true, 50: true, 51: true, 52: true,
	53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

// formatLooksLikeDate classifies a custom number format string by
// scanning for date/time tokens outside quoted and bracketed
// sections.
func formatLooksLikeDate(fmtStr string) bool {
	inQuote := false
	inBracket := false
	for _, r := range fmtStr {
		switch {
		case inQuote:
			if r == '"' {
				inQuote = false
			}
		case inBracket:
			if r == ']' {
				inBracket = false
			}
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == 'y' || r == 'Y' || r == 'm' || r == 'M' || r == 'd' || r == 'D' ||
			r == 'h' || r == 'H' || r == 's' || r == 'S':
			return true
		}
	}
	return false
}
