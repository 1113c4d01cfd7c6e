package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
	"github.com/joseph-ayodele/payslip-tracker/internal/salary"
)

type fakeSlips struct {
	recs []*repository.SalarySlipRecord
}

func (f *fakeSlips) Create(context.Context, *repository.SalarySlipRecord) (*repository.SalarySlipRecord, error) {
	return nil, nil
}

func (f *fakeSlips) Get(context.Context, uuid.UUID) (*repository.SalarySlipRecord, error) {
	return nil, nil
}

func (f *fakeSlips) List(context.Context, repository.ListFilter) ([]*repository.SalarySlipRecord, error) {
	out := make([]*repository.SalarySlipRecord, len(f.recs))
	copy(out, f.recs)
	return out, nil
}

func record(date string, net int64) *repository.SalarySlipRecord {
	return &repository.SalarySlipRecord{
		ID: uuid.New(),
		Slip: salary.SalarySlip{
			EmployeeID:   "A12345",
			EmployeeName: "山田 太郎",
			PaymentDate:  date,
			Earnings:     salary.Earnings{BaseSalary: net, Total: net},
			NetPay:       net,
		},
		Confidence: 1,
		Method:     "pdftotext",
	}
}

func TestExportSlipsXLSX(t *testing.T) {
	t.Parallel()

	repo := &fakeSlips{recs: []*repository.SalarySlipRecord{
		record("2025-02-25", 200000),
		record("2025-01-25", 100000),
	}}
	svc := NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))

	b, err := svc.ExportSlipsXLSX(context.Background(), repository.ListFilter{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("want header + 2 slips + totals, got %d rows", len(rows))
	}
	if rows[0][0] != "Payment Date" || rows[0][len(Headers)-1] != "Method" {
		t.Fatalf("header mismatch: %v", rows[0])
	}
	if rows[1][0] != "2025-01-25" || rows[2][0] != "2025-02-25" {
		t.Fatalf("want oldest first, got %s then %s", rows[1][0], rows[2][0])
	}
	if rows[1][2] != "山田 太郎" || rows[1][17] != "100000" {
		t.Fatalf("row content mismatch: %v", rows[1])
	}
	if rows[3][0] != "Total" {
		t.Fatalf("totals row missing: %v", rows[3])
	}
	formula, err := f.GetCellFormula(SheetName, "R4")
	if err != nil || formula != "SUM(R2:R3)" {
		t.Fatalf("net pay total formula got %q err=%v", formula, err)
	}
}

func TestWorkbookEmpty(t *testing.T) {
	t.Parallel()

	b, err := Workbook(nil)
	if err != nil {
		t.Fatalf("workbook: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(SheetName)
	if len(rows) != 1 {
		t.Fatalf("want header only, got %d rows", len(rows))
	}
}
