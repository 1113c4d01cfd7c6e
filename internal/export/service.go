package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/payslip-tracker/internal/repository"
)

// SheetName is the worksheet holding one row per stored slip.
const SheetName = "SalarySlips"

// Headers are the column titles of the slips sheet, in order.
var Headers = []string{
	"Payment Date",
	"Employee ID",
	"Employee Name",
	"Company",
	"Period Start",
	"Period End",
	"Base Salary",
	"Overtime Pay",
	"Fixed Overtime",
	"Transportation",
	"Total Payment",
	"Health Insurance",
	"Welfare Pension",
	"Employment Insurance",
	"Income Tax",
	"Resident Tax",
	"Total Deductions",
	"Net Pay",
	"Confidence",
	"Method",
}

// Service is a tiny façade over the slips repository that produces XLSX bytes.
type Service struct {
	slips  repository.SalarySlipRepository
	logger *slog.Logger
}

func NewService(slips repository.SalarySlipRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{slips: slips, logger: logger}
}

// ExportSlipsXLSX returns a workbook of the slips matching f, oldest first,
// followed by a totals row.
func (s *Service) ExportSlipsXLSX(ctx context.Context, f repository.ListFilter) ([]byte, error) {
	start := time.Now()

	recs, err := s.slips.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query salary slips: %w", err)
	}
	// List returns newest first; the sheet runs oldest first.
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}

	buf, err := Workbook(recs)
	if err != nil {
		return nil, err
	}
	s.logger.Info("export.xlsx.ok",
		"employee_id", f.EmployeeID,
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf, nil
}

// Workbook renders recs into XLSX bytes in the given order.
func Workbook(recs []*repository.SalarySlipRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(SheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if style, err := f.NewStyle(&excelize.Style{NumFmt: 3}); err == nil { // #,##0
		_ = f.SetColStyle(SheetName, "G:R", style)
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(Headers), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	row := 2
	for _, r := range recs {
		s := r.Slip
		values := []any{
			s.PaymentDate,
			s.EmployeeID,
			s.EmployeeName,
			s.CompanyName,
			s.TargetPeriod.Start,
			s.TargetPeriod.End,
			s.Earnings.BaseSalary,
			s.Earnings.OvertimePay + s.Earnings.OvertimePayOver60 + s.Earnings.LateNightPay,
			s.Earnings.FixedOvertimeAllowance,
			s.Earnings.TransportationAllowance,
			s.Earnings.Total,
			s.Deductions.HealthInsurance,
			s.Deductions.WelfareInsurance,
			s.Deductions.EmploymentInsurance,
			s.Deductions.IncomeTax,
			s.Deductions.ResidentTax,
			s.Deductions.Total,
			s.NetPay,
			r.Confidence,
			r.Method,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", row, err)
		}
		row++
	}

	if len(recs) > 0 {
		label, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(SheetName, label, "Total")
		// amount columns G..R
		for col := 7; col <= 18; col++ {
			name, _ := excelize.ColumnNumberToName(col)
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellFormula(SheetName, cell, fmt.Sprintf("SUM(%s2:%s%d)", name, name, row-1))
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 14) // date
	_ = f.SetColWidth(SheetName, "B", "B", 12)
	_ = f.SetColWidth(SheetName, "C", "D", 24)
	_ = f.SetColWidth(SheetName, "E", "F", 12)
	_ = f.SetColWidth(SheetName, "G", "R", 14) // amounts
	_ = f.SetColWidth(SheetName, "T", "T", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
