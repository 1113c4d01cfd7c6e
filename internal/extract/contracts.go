package extract

import (
	"context"
	"time"

	"github.com/joseph-ayodele/payslip-tracker/internal/salary"
)

// TextExtractor is Stage 1: PDF bytes -> text. Implementations are tried in
// order by the pipeline; each must be safe for concurrent use.
type TextExtractor interface {
	Name() string
	Extract(ctx context.Context, pdf []byte) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // constants.Backend*
	Duration time.Duration
	Warnings []string
}

// FieldExtractor is Stage 2: text -> salary fields.
type FieldExtractor interface {
	ExtractFields(text string) salary.ExtractedSalaryData
}
