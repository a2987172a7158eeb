// Package props reads the standard OLE property set streams that
// Office writes alongside a document: SummaryInformation (title,
// author, timestamps) and DocumentSummaryInformation (company,
// category). Decoding is delegated to richardlehane/msoleps.
package props

import (
	"bytes"

	"github.com/richardlehane/msoleps"

	"github.com/mtakeda/olebiff/cfb"
	"github.com/mtakeda/olebiff/warn"
)

// The stream names begin with 0x05, marking them as reserved for
// property sets.
const (
	SummaryStream    = "\x05SummaryInformation"
	DocSummaryStream = "\x05DocumentSummaryInformation"
)

// Read extracts every property from both property set streams into a
// flat name -> printable value map. Metadata is never essential: a
// missing stream is silently skipped and an unreadable one is reported
// on the collector, so Read cannot fail the surrounding parse. The
// result is nil when no property was found.
func Read(f *cfb.File, col *warn.Collector) map[string]string {
	var out map[string]string
	for _, name := range []string{SummaryStream, DocSummaryStream} {
		entry := f.FindEntry(name)
		if entry == nil {
			continue
		}
		raw, err := f.ReadEntry(entry, col)
		if err != nil {
			col.Add(warn.MetaPropertiesUnreadable, printableName(name), "stream unreadable: %v", err)
			continue
		}
		r := msoleps.New()
		if err := r.Reset(bytes.NewReader(raw)); err != nil {
			col.Add(warn.MetaPropertiesUnreadable, printableName(name), "property set undecodable: %v", err)
			continue
		}
		for _, p := range r.Property {
			if p.Name == "" {
				continue
			}
			if out == nil {
				out = make(map[string]string)
			}
			out[p.Name] = p.String()
		}
	}
	return out
}

// printableName replaces the leading 0x05 marker so warning paths stay
// readable.
func printableName(stream string) string {
	if len(stream) > 0 && stream[0] == 0x05 {
		return "\\x05" + stream[1:]
	}
	return stream
}
