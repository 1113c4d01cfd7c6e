package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/extract"
	"github.com/joseph-ayodele/payslip-tracker/internal/salary"
)

// errNoFields marks a backend that produced text the rule table could not use.
var errNoFields = errors.New("no salary fields recognized")

// Config holds behavior flags for the pipeline.
type Config struct {
	// DevPlaceholder makes an exhausted chain return fixed sample data instead
	// of success:false. Development only.
	DevPlaceholder bool
}

// Pipeline runs text backends in order until one yields salary fields, then
// backfills, scores and assembles the record. It holds no per-call state and
// is safe for concurrent use.
type Pipeline struct {
	backends []extract.TextExtractor
	fields   extract.FieldExtractor
	cfg      Config
	logger   *slog.Logger
}

// New builds a pipeline; backends are tried in the given order
// (PRIMARY, SECONDARY, TERTIARY).
func New(cfg Config, fields extract.FieldExtractor, logger *slog.Logger, backends ...extract.TextExtractor) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if fields == nil {
		fields = extract.NewRuleExtractor()
	}
	return &Pipeline{backends: backends, fields: fields, cfg: cfg, logger: logger}
}

// ExtractSalarySlip is the pipeline entry point. The only error it returns is
// a format error for non-PDF input; backend exhaustion is reported in the
// result with Success=false.
func (p *Pipeline) ExtractSalarySlip(ctx context.Context, pdf []byte) (ExtractionResult, error) {
	if !constants.HasPDFMagic(pdf) {
		p.logger.Warn("pipeline.rejected", "reason", "not a pdf", "bytes", len(pdf))
		return ExtractionResult{}, common.FormatError("input does not start with a %PDF- header")
	}

	var (
		errs     []string
		attempts []Attempt
	)
	for i, b := range p.backends {
		state := backendState(i)
		start := time.Now()
		data, err := p.attempt(ctx, b, pdf)
		at := Attempt{State: state, Backend: b.Name(), Fields: data.Count(), Duration: time.Since(start)}
		if err != nil {
			at.Error = err.Error()
			attempts = append(attempts, at)
			errs = append(errs, fmt.Sprintf("%s (%s): %v", state, b.Name(), err))
			p.logger.Warn("pipeline.backend.failed", "file_id", common.FileIDFromContext(ctx), "state", state, "backend", b.Name(), "err", err)
			continue
		}
		attempts = append(attempts, at)
		res := p.finish(data)
		res.Method = b.Name()
		res.Attempts = attempts
		p.logger.Info("pipeline.backend.ok",
			"file_id", common.FileIDFromContext(ctx),
			"state", state,
			"backend", b.Name(),
			"fields", at.Fields,
			"confidence", *res.Confidence,
			"duration_ms", at.Duration.Milliseconds(),
		)
		return res, nil
	}

	if p.cfg.DevPlaceholder {
		p.logger.Warn("pipeline.placeholder", "state", StateTestFallback, "failed", len(errs))
		res := Placeholder()
		res.Attempts = attempts
		res.Warnings = errs
		return res, nil
	}

	if len(p.backends) == 0 {
		errs = append(errs, "no text extraction backend configured")
	}
	p.logger.Error("pipeline.exhausted", "file_id", common.FileIDFromContext(ctx), "state", StateDone, "errors", strings.Join(errs, "; "))
	return ExtractionResult{Success: false, Errors: errs, Attempts: attempts}, nil
}

// attempt runs one backend plus the field extractor. Empty text or an empty
// extraction counts as a failure so the chain moves on.
func (p *Pipeline) attempt(ctx context.Context, b extract.TextExtractor, pdf []byte) (salary.ExtractedSalaryData, error) {
	res, err := b.Extract(ctx, pdf)
	if err != nil {
		return salary.ExtractedSalaryData{}, err
	}
	if strings.TrimSpace(res.Text) == "" {
		return salary.ExtractedSalaryData{}, fmt.Errorf("empty text: %w", errNoFields)
	}
	data := p.fields.ExtractFields(res.Text)
	if data.IsEmpty() {
		return data, errNoFields
	}
	return data, nil
}

func (p *Pipeline) finish(data salary.ExtractedSalaryData) ExtractionResult {
	data = salary.Backfill(data)
	conf := salary.Score(data)
	slip := salary.Assemble(data)

	var warnings []string
	for _, v := range slip.Validate() {
		warnings = append(warnings, v.Error())
	}
	return ExtractionResult{
		Success:       true,
		ExtractedData: &data,
		Slip:          &slip,
		Confidence:    &conf,
		Warnings:      warnings,
	}
}
