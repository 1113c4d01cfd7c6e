package slips

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/async"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/export"
	"github.com/joseph-ayodele/payslip-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
	"github.com/joseph-ayodele/payslip-tracker/internal/salary"
)

var _ async.Processor = (*Service)(nil)

// SaveRequest is the body of a save call. The slip is usually an extraction
// result the user reviewed and corrected.
type SaveRequest struct {
	Slip           salary.SalarySlip `json:"slip"`
	SourceFileName string            `json:"sourceFileName,omitempty"`
	FileID         string            `json:"fileId,omitempty"`
	Confidence     float64           `json:"confidence,omitempty"`
	Method         string            `json:"method,omitempty"`
	Placeholder    bool              `json:"placeholder,omitempty"`
}

// Options tunes a Service. Zero values are usable.
type Options struct {
	// Timeout bounds one pipeline run; zero means no bound.
	Timeout time.Duration
	// AutoSave stores slips from background runs (watcher) without review.
	AutoSave bool
	// Jobs records every run in extract_jobs when set.
	Jobs repository.ExtractJobRepository
}

// Service loads stored PDFs, runs the extraction pipeline and manages saved slips.
type Service struct {
	files    ingest.Ingestor
	pipeline *pipeline.Pipeline
	slips    repository.SalarySlipRepository
	jobs     repository.ExtractJobRepository
	exporter *export.Service
	opts     Options
	logger   *slog.Logger
}

func NewService(
	files ingest.Ingestor,
	p *pipeline.Pipeline,
	slips repository.SalarySlipRepository,
	logger *slog.Logger,
	opts Options,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		files:    files,
		pipeline: p,
		slips:    slips,
		jobs:     opts.Jobs,
		exporter: export.NewService(slips, logger),
		opts:     opts,
		logger:   logger,
	}
}

// Upload stores a document for later extraction.
func (s *Service) Upload(ctx context.Context, filename string, r io.Reader) (ingest.IngestionResult, error) {
	return s.files.Ingest(ctx, filename, r)
}

// Extract runs the pipeline over a stored file.
func (s *Service) Extract(ctx context.Context, fileID string) (pipeline.ExtractionResult, error) {
	_, res, err := s.run(ctx, fileID)
	return res, err
}

// ExtractBytes runs the pipeline over PDF bytes that were never stored.
func (s *Service) ExtractBytes(ctx context.Context, pdf []byte) (pipeline.ExtractionResult, error) {
	ctx, cancel := common.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()
	return s.pipeline.ExtractSalarySlip(ctx, pdf)
}

// ProcessFile is the background entry point used by the worker queue. With
// AutoSave, usable non-placeholder results are stored; a slip that is
// already stored is not an error.
func (s *Service) ProcessFile(ctx context.Context, fileID string) (uuid.UUID, error) {
	jobID, res, err := s.run(ctx, fileID)
	if err != nil {
		return jobID, err
	}
	if !res.Success {
		return jobID, errors.New(strings.Join(res.Errors, "; "))
	}
	if !s.opts.AutoSave || res.Placeholder {
		return jobID, nil
	}
	if res.Slip.EmployeeID == "" || res.Slip.PaymentDate == "" {
		s.logger.Warn("slips.autosave.skipped", "file_id", fileID, "reason", "missing employeeId or paymentDate")
		return jobID, nil
	}
	_, err = s.slips.Create(ctx, &repository.SalarySlipRecord{
		FileID:     fileID,
		Slip:       *res.Slip,
		Confidence: *res.Confidence,
		Method:     res.Method,
	})
	if errors.Is(err, common.ErrDuplicate) {
		return jobID, nil
	}
	return jobID, err
}

func (s *Service) run(ctx context.Context, fileID string) (uuid.UUID, pipeline.ExtractionResult, error) {
	ctx = common.WithFileID(ctx, fileID)
	pdf, err := s.files.Open(ctx, fileID)
	if err != nil {
		return uuid.Nil, pipeline.ExtractionResult{}, err
	}

	jobID := uuid.Nil
	if s.jobs != nil {
		job, err := s.jobs.Start(ctx, fileID)
		if err != nil {
			return uuid.Nil, pipeline.ExtractionResult{}, err
		}
		jobID = job.ID
	}

	runCtx, cancel := common.WithTimeout(ctx, s.opts.Timeout)
	res, err := s.pipeline.ExtractSalarySlip(runCtx, pdf)
	cancel()

	s.finishJob(ctx, jobID, res, err)
	if err != nil {
		s.logger.Warn("slips.extract.rejected", "file_id", fileID, "error", err)
		return jobID, res, err
	}
	s.logger.Info("slips.extract.done",
		"file_id", fileID,
		"job_id", jobID,
		"success", res.Success,
		"method", res.Method,
		"placeholder", res.Placeholder,
	)
	return jobID, res, nil
}

func (s *Service) finishJob(ctx context.Context, jobID uuid.UUID, res pipeline.ExtractionResult, runErr error) {
	if s.jobs == nil || jobID == uuid.Nil {
		return
	}
	out := repository.JobOutcome{
		Method:     res.Method,
		Confidence: res.Confidence,
		Attempts:   res.Attempts,
	}
	switch {
	case runErr != nil:
		out.Status = constants.JobStatusFailed
		out.ErrorMessage = runErr.Error()
	case !res.Success:
		out.Status = constants.JobStatusFailed
		out.ErrorMessage = strings.Join(res.Errors, "; ")
	case res.Placeholder:
		out.Status = constants.JobStatusPlaceholder
	default:
		out.Status = constants.JobStatusExtracted
	}
	// the job row should be closed even when the caller has gone away
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.jobs.Finish(ctx, jobID, out); err != nil {
		s.logger.Error("slips.job.finish.failed", "job_id", jobID, "error", err)
	}
}

// Save validates a raw JSON save request and stores the slip.
func (s *Service) Save(ctx context.Context, raw []byte) (*repository.SalarySlipRecord, error) {
	req, err := validateSaveRequest(raw)
	if err != nil {
		s.logger.Warn("slips.save.invalid", "error", err)
		return nil, err
	}

	v := common.NewValidator()
	v.Field("slip.paymentDate", req.Slip.PaymentDate, common.ISODate)
	v.Field("slip.targetPeriod.start", req.Slip.TargetPeriod.Start, common.ISODate)
	v.Field("slip.targetPeriod.end", req.Slip.TargetPeriod.End, common.ISODate)
	if err := v.Error(); err != nil {
		return nil, err
	}
	for _, finding := range req.Slip.Validate() {
		s.logger.Warn("slips.save.inconsistent", "employee_id", req.Slip.EmployeeID, "field", finding.Field, "message", finding.Message)
	}

	return s.slips.Create(ctx, &repository.SalarySlipRecord{
		FileID:         req.FileID,
		SourceFileName: req.SourceFileName,
		Slip:           req.Slip,
		Confidence:     req.Confidence,
		Method:         req.Method,
		Placeholder:    req.Placeholder,
	})
}

// Get loads one saved slip; id must be a UUID.
func (s *Service) Get(ctx context.Context, id string) (*repository.SalarySlipRecord, error) {
	uid, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, common.NewAppError(common.CodeValidation, "id must be a UUID", common.ErrInvalidInput)
	}
	return s.slips.Get(ctx, uid)
}

// List returns saved slips, newest payment first.
func (s *Service) List(ctx context.Context, f repository.ListFilter) ([]*repository.SalarySlipRecord, error) {
	v := common.NewValidator()
	v.Field("from", f.From, common.ISODate)
	v.Field("to", f.To, common.ISODate)
	v.Check(f.Limit >= 0 && f.Limit <= 1000, "limit", f.Limit, "must be between 0 and 1000")
	v.Check(f.Offset >= 0, "offset", f.Offset, "must not be negative")
	if err := v.Error(); err != nil {
		return nil, err
	}
	if f.Limit == 0 {
		f.Limit = 100
	}
	return s.slips.List(ctx, f)
}

// ExportXLSX returns a workbook of the slips matching f.
func (s *Service) ExportXLSX(ctx context.Context, f repository.ListFilter) ([]byte, error) {
	return s.exporter.ExportSlipsXLSX(ctx, f)
}
