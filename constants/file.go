package constants

import (
	"bytes"
	"strings"
)

// PDF is the only document format accepted for salary slips.
const PDF = "PDF"

// MIMETypePDF is the content type uploads must declare.
const MIMETypePDF = "application/pdf"

// MaxUploadBytes caps a single uploaded slip at 10MB.
const MaxUploadBytes = 10 << 20

// pdfMagic is the header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without dot) is ingestible.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

// HasPDFMagic reports whether data starts with the PDF header,
// tolerating a UTF-8 BOM or leading whitespace some generators emit.
func HasPDFMagic(data []byte) bool {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})
	data = bytes.TrimLeft(data, " \t\r\n")
	return bytes.HasPrefix(data, pdfMagic)
}
