package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/extract"
)

var _ extract.TextExtractor = (*PlainText)(nil)

// PlainText reads the text layer page by page with ledongthuc/pdf.
type PlainText struct {
	maxPages int
	logger   *slog.Logger
}

func NewPlainText(maxPages int, logger *slog.Logger) *PlainText {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlainText{maxPages: maxPages, logger: logger}
}

func (b *PlainText) Name() string { return constants.BackendPlainText }

func (b *PlainText) Extract(ctx context.Context, data []byte) (res extract.TextExtractionResult, err error) {
	defer recoverPanic(b.Name(), &err)
	start := time.Now()
	res.Method = b.Name()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return res, fmt.Errorf("open pdf: %w", err)
	}

	n := r.NumPage()
	if b.maxPages > 0 && n > b.maxPages {
		n = b.maxPages
	}
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		txt, perr := page.GetPlainText(nil)
		if perr != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("page %d: %v", i, perr))
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(txt)
		res.Pages++
	}

	res.Text = Normalize(sb.String())
	res.Duration = time.Since(start)
	b.logger.Debug("pdftext.plaintext.done", "pages", res.Pages, "chars", len(res.Text), "duration_ms", res.Duration.Milliseconds())
	if res.Text == "" {
		return res, ErrNoText
	}
	return res, nil
}
