package pdftext

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/extract"
)

var _ extract.TextExtractor = (*Poppler)(nil)

// Poppler shells out to pdftotext.
type Poppler struct {
	bin    string
	runner Runner
	logger *slog.Logger
}

// NewPoppler builds the pdftotext backend. bin defaults to "pdftotext"; a nil
// runner uses os/exec.
func NewPoppler(bin string, runner Runner, logger *slog.Logger) *Poppler {
	if logger == nil {
		logger = slog.Default()
	}
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = ExecRunner{Logger: logger}
	}
	return &Poppler{bin: bin, runner: runner, logger: logger}
}

func (b *Poppler) Name() string { return constants.BackendPoppler }

func (b *Poppler) Extract(ctx context.Context, data []byte) (extract.TextExtractionResult, error) {
	start := time.Now()
	res := extract.TextExtractionResult{Method: b.Name()}

	f, err := os.CreateTemp("", "payslip-*.pdf")
	if err != nil {
		return res, err
	}
	defer func(path string) {
		if err := os.Remove(path); err != nil {
			b.logger.Warn("failed to remove temp file", "path", path, "error", err)
		}
	}(f.Name())
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return res, fmt.Errorf("write temp pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		return res, fmt.Errorf("close temp pdf: %w", err)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := b.runner.Run(ctx, b.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", f.Name(), "-")
	if err != nil {
		if msg := popplerDiagnostics(errb); msg != "" {
			res.Warnings = append(res.Warnings, msg)
		}
		return res, fmt.Errorf("%s: %w", b.bin, err)
	}
	raw := string(out)
	// A form-feed \f is used as page separator by default
	res.Pages = 1 + strings.Count(strings.TrimRight(raw, "\f"), "\f")
	res.Text = Normalize(raw)
	res.Duration = time.Since(start)
	if res.Text == "" {
		return res, ErrNoText
	}
	return res, nil
}
