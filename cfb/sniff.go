package cfb

import (
	"archive/zip"
	"bytes"
	"strings"
)

// ZipSignature is the magic cookie for ZIP files, which is what the
// modern OOXML formats (.xlsx/.docx/.pptx) actually are.
var ZipSignature = []byte("PK\x03\x04")

// FormatDescriptions provides human-readable names for the formats
// Sniff can report.
var FormatDescriptions = map[string]string{
	"cfb":  "OLE2 compound file (legacy .xls/.doc/.ppt)",
	"xlsx": "Excel xlsx file (OOXML)",
	"docx": "Word docx file (OOXML)",
	"pptx": "PowerPoint pptx file (OOXML)",
	"zip":  "Unknown ZIP file",
	"":     "Unknown file type",
}

// Sniff inspects the leading bytes of content and reports the file's
// container format, or an empty string if it cannot be determined. The
// return value can always be looked up in FormatDescriptions. OOXML
// files are identified only so callers can produce a useful "wrong
// tool" message; this module does not parse them.
func Sniff(content []byte) string {
	if len(content) < 8 {
		return ""
	}
	if bytes.HasPrefix(content, Signature) {
		return "cfb"
	}
	if !bytes.HasPrefix(content, ZipSignature) {
		return ""
	}

	zf, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "zip"
	}
	// Some third-party writers use backslashes and odd casing.
	names := make(map[string]bool, len(zf.File))
	for _, f := range zf.File {
		names[strings.ToLower(strings.ReplaceAll(f.Name, "\\", "/"))] = true
	}
	switch {
	case names["xl/workbook.xml"] || names["xl/workbook.bin"]:
		return "xlsx"
	case names["word/document.xml"]:
		return "docx"
	case names["ppt/presentation.xml"]:
		return "pptx"
	}
	return "zip"
}
