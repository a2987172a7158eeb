package ppt

import (
	"fmt"

	"github.com/mtakeda/olebiff/warn"
)

// BLIP record type codes in the Pictures stream (OfficeArt).
const (
	blipTypeEMF  uint16 = 0xF01A
	blipTypeWMF  uint16 = 0xF01B
	blipTypePICT uint16 = 0xF01C
	blipTypeJPEG uint16 = 0xF01D
	blipTypePNG  uint16 = 0xF01E
	blipTypeDIB  uint16 = 0xF01F
	blipTypeTIFF uint16 = 0xF029
	blipTypeJPG2 uint16 = 0xF02A
)

const (
	blipUIDSize      = 16
	blipMetafileInfo = 34 // compressed-size/bounds/compression header
	blipRasterTag    = 1
)

// Picture locates one embedded image's raw bytes within the Pictures
// stream. The image data itself is not decoded.
type Picture struct {
	Format     string // "emf", "wmf", "pict", "jpeg", "png", "dib", "tiff"
	DataOffset int    // of the image bytes within the Pictures stream
	DataSize   int
}

var blipFormats = map[uint16]string{
	blipTypeEMF:  "emf",
	blipTypeWMF:  "wmf",
	blipTypePICT: "pict",
	blipTypeJPEG: "jpeg",
	blipTypePNG:  "png",
	blipTypeDIB:  "dib",
	blipTypeTIFF: "tiff",
	blipTypeJPG2: "jpeg",
}

// walkPictures scans the Pictures stream, a flat sequence of BLIP
// records, and records where each image's bytes live.
//
// Every BLIP payload opens with one MD4 UID, or two when the low
// instance bit signals that the writer stored a secondary UID; raster
// formats then add a one-byte tag, while metafile formats add a
// 34-byte compression-info header. The two-sizes-by-one-bit rule is a
// simplification of the format's per-variant layouts and is known not
// to cover every metafile compression variant, so metafile pictures
// carry a PPT_BLIP_HEADER_GUESSED warning.
func (p *Presentation) walkPictures(data []byte, col *warn.Collector) error {
	off := 0
	for i := 0; off < len(data); i++ {
		h, payload, next, err := ReadRecord(data, off)
		if err != nil {
			if col.Strict() {
				return err
			}
			col.Add(warn.PptRecordTruncated, fmt.Sprintf("Pictures/record[%d]@0x%x", i, off), "%v", err)
			return nil
		}

		format, ok := blipFormats[h.Type]
		if !ok {
			off = next
			continue
		}

		headerSize := blipUIDSize
		if h.Instance&1 != 0 {
			headerSize += blipUIDSize
		}
		switch h.Type {
		case blipTypeEMF, blipTypeWMF, blipTypePICT:
			headerSize += blipMetafileInfo
			col.Add(warn.PptBlipHeaderGuessed, fmt.Sprintf("Pictures/record[%d]@0x%x", i, off),
				"%s header size %d assumed from instance flag", format, headerSize)
		default:
			headerSize += blipRasterTag
		}

		if headerSize > len(payload) {
			if col.Strict() {
				return &RecordTruncatedError{Offset: off, Type: h.Type, Declared: headerSize, Remaining: len(payload)}
			}
			col.Add(warn.PptRecordTruncated, fmt.Sprintf("Pictures/record[%d]@0x%x", i, off),
				"BLIP payload %d bytes, header alone needs %d", len(payload), headerSize)
			off = next
			continue
		}

		dataStart := off + 8 + headerSize
		p.Pictures = append(p.Pictures, Picture{
			Format:     format,
			DataOffset: dataStart,
			DataSize:   len(payload) - headerSize,
		})
		off = next
	}
	return nil
}
