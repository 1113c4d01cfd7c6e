package pdftext

import (
	"log/slog"

	"github.com/joseph-ayodele/payslip-tracker/internal/extract"
)

// DefaultChain returns the backends in fallback order: the ledongthuc reader,
// the pdfcpu content-stream reader, then poppler's pdftotext. An empty bin
// means "pdftotext" on PATH.
func DefaultChain(bin string, logger *slog.Logger) []extract.TextExtractor {
	return []extract.TextExtractor{
		NewPlainText(0, logger),
		NewContentStream(0, logger),
		NewPoppler(bin, nil, logger),
	}
}
