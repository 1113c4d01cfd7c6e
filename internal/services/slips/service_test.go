package slips

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/extract"
	"github.com/joseph-ayodele/payslip-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

const slipText = `株式会社サンプル商事
社員番号：A12345
2025年1月25日支給
基本給：300,000
支給合計：300,000
健康保険料：12,500
厚生年金保険料：25,000
雇用保険料：1,500
所得税：8,500
住民税：12,000
`

type textBackend struct{ text string }

func (b textBackend) Name() string { return "stub" }

func (b textBackend) Extract(context.Context, []byte) (extract.TextExtractionResult, error) {
	return extract.TextExtractionResult{Text: b.text, Method: "stub"}, nil
}

type fixture struct {
	svc   *Service
	store *repository.Store
	jobs  repository.ExtractJobRepository
}

func newFixture(t *testing.T, text string, opts Options) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "slips.db"), logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(store.Close)
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	jobs := repository.NewExtractJobRepository(store, logger)
	opts.Jobs = jobs
	files := ingest.NewFSIngestor(t.TempDir(), repository.NewFileRepository(store, logger), logger)
	p := pipeline.New(pipeline.Config{}, nil, logger, textBackend{text: text})
	return fixture{
		svc:   NewService(files, p, repository.NewSalarySlipRepository(store, logger), logger, opts),
		store: store,
		jobs:  jobs,
	}
}

func upload(t *testing.T, svc *Service) string {
	t.Helper()
	res, err := svc.Upload(context.Background(), "jan.pdf", bytes.NewReader([]byte("%PDF-1.7\nstub\n")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return res.FileID
}

func TestExtractRecordsJob(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, slipText, Options{})
	ctx := context.Background()
	fileID := upload(t, fx.svc)

	res, err := fx.svc.Extract(ctx, fileID)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !res.Success || res.Slip.NetPay != 240500 {
		t.Fatalf("unexpected result: %+v", res)
	}

	jobs, err := fx.jobs.ListByFile(ctx, fileID)
	if err != nil || len(jobs) != 1 {
		t.Fatalf("want one job, got %d err=%v", len(jobs), err)
	}
	if jobs[0].Status != constants.JobStatusExtracted || jobs[0].Method != "stub" {
		t.Fatalf("job mismatch: %+v", jobs[0])
	}

	if _, err := fx.svc.Extract(ctx, strings.Repeat("0", 64)); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound for unknown file, got %v", err)
	}
}

func TestExtractFailureMarksJobFailed(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, "nothing useful", Options{})
	ctx := context.Background()
	fileID := upload(t, fx.svc)

	res, err := fx.svc.Extract(ctx, fileID)
	if err != nil || res.Success {
		t.Fatalf("want unsuccessful result without error, got %+v err=%v", res, err)
	}
	jobs, _ := fx.jobs.ListByFile(ctx, fileID)
	if len(jobs) != 1 || jobs[0].Status != constants.JobStatusFailed || jobs[0].ErrorMessage == "" {
		t.Fatalf("job mismatch: %+v", jobs)
	}
}

func TestProcessFileAutoSave(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, slipText, Options{AutoSave: true})
	ctx := context.Background()
	fileID := upload(t, fx.svc)

	if _, err := fx.svc.ProcessFile(ctx, fileID); err != nil {
		t.Fatalf("process: %v", err)
	}
	// a second run over the same slip is absorbed
	if _, err := fx.svc.ProcessFile(ctx, fileID); err != nil {
		t.Fatalf("reprocess: %v", err)
	}

	list, err := fx.svc.List(ctx, repository.ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Slip.EmployeeID != "A12345" || list[0].FileID != fileID {
		t.Fatalf("want one autosaved slip, got %+v", list)
	}
}

func TestSave(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, slipText, Options{})
	ctx := context.Background()

	body := `{
		"sourceFileName": "jan.pdf",
		"confidence": 1,
		"slip": {
			"employeeId": "A12345",
			"paymentDate": "2025-01-25",
			"targetPeriod": {"start": "2024-12-01", "end": "2024-12-31"},
			"earnings": {"baseSalary": 300000, "total": 300000},
			"deductions": {"incomeTax": 8500, "total": 59500},
			"netPay": 240500
		}
	}`
	rec, err := fx.svc.Save(ctx, []byte(body))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := fx.svc.Get(ctx, rec.ID.String())
	if err != nil || got.Slip.NetPay != 240500 || got.Slip.Deductions.IncomeTax != 8500 {
		t.Fatalf("get mismatch: %+v err=%v", got, err)
	}
	if got.SourceFileName != "jan.pdf" {
		t.Fatalf("want=jan.pdf got=%q", got.SourceFileName)
	}

	if _, err := fx.svc.Save(ctx, []byte(body)); !errors.Is(err, common.ErrDuplicate) {
		t.Fatalf("want ErrDuplicate got %v", err)
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, slipText, Options{})
	ctx := context.Background()

	cases := []struct {
		name string
		body string
		want string
	}{
		{"not json", `{`, "valid JSON"},
		{"missing slip", `{}`, "slip"},
		{"bad employee id", `{"slip":{"employeeId":"A-1","paymentDate":"2025-01-25","earnings":{"total":1},"deductions":{"total":0},"netPay":1}}`, "employeeId"},
		{"negative amount", `{"slip":{"employeeId":"A1","paymentDate":"2025-01-25","earnings":{"total":-1},"deductions":{"total":0},"netPay":1}}`, "earnings"},
		{"impossible date", `{"slip":{"employeeId":"A1","paymentDate":"2025-02-30","earnings":{"total":1},"deductions":{"total":0},"netPay":1}}`, "paymentDate"},
	}
	for _, c := range cases {
		_, err := fx.svc.Save(ctx, []byte(c.body))
		if !errors.Is(err, common.ErrValidation) {
			t.Fatalf("%s: want ErrValidation got %v", c.name, err)
		}
		if !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: error %q should mention %q", c.name, err, c.want)
		}
	}
}

func TestGetAndListValidation(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, slipText, Options{})
	ctx := context.Background()

	if _, err := fx.svc.Get(ctx, "not-a-uuid"); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput got %v", err)
	}
	if _, err := fx.svc.List(ctx, repository.ListFilter{From: "yesterday"}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation got %v", err)
	}
}

func TestExportXLSX(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, slipText, Options{AutoSave: true})
	ctx := context.Background()
	if _, err := fx.svc.ProcessFile(ctx, upload(t, fx.svc)); err != nil {
		t.Fatalf("process: %v", err)
	}
	b, err := fx.svc.ExportXLSX(ctx, repository.ListFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	// xlsx is a zip archive
	if !bytes.HasPrefix(b, []byte("PK")) {
		t.Fatalf("export is not an xlsx archive")
	}
}
