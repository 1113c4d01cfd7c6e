// Package report renders extraction results as markdown for people to read.
package report

import (
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/glamour"

	"github.com/joseph-ayodele/payslip-tracker/internal/pipeline"
	"github.com/joseph-ayodele/payslip-tracker/internal/salary"
)

// Yen formats an integer yen amount, e.g. ¥326,767.
func Yen(v int64) string {
	return money.New(v, money.JPY).Display()
}

type line struct {
	label string
	value int64
}

// Markdown summarizes res. source is shown in the heading when non-empty.
func Markdown(res pipeline.ExtractionResult, source string) string {
	var b strings.Builder

	title := "Salary slip"
	if source != "" {
		title += ": " + source
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	if !res.Success || res.Slip == nil {
		b.WriteString("**Extraction failed.**\n\n")
		for _, e := range res.Errors {
			fmt.Fprintf(&b, "- %s\n", e)
		}
		return b.String()
	}

	if res.Placeholder {
		fmt.Fprintf(&b, "> %s\n\n", res.Message)
	}
	s := res.Slip
	conf := 0.0
	if res.Confidence != nil {
		conf = *res.Confidence
	}
	fmt.Fprintf(&b, "- **Company:** %s\n", orDash(s.CompanyName))
	fmt.Fprintf(&b, "- **Employee:** %s (%s)\n", orDash(s.EmployeeName), orDash(s.EmployeeID))
	fmt.Fprintf(&b, "- **Paid on:** %s\n", orDash(s.PaymentDate))
	if s.TargetPeriod.Start != "" || s.TargetPeriod.End != "" {
		fmt.Fprintf(&b, "- **Period:** %s to %s\n", orDash(s.TargetPeriod.Start), orDash(s.TargetPeriod.End))
	}
	fmt.Fprintf(&b, "- **Backend:** %s, confidence %.0f%%\n\n", orDash(res.Method), conf*100)

	writeTable(&b, "Earnings", earnings(s), s.Earnings.Total, "Total payment")
	writeTable(&b, "Deductions", deductions(s), s.Deductions.Total, "Total deductions")
	fmt.Fprintf(&b, "**Net pay: %s**\n", Yen(s.NetPay))

	if a := s.Attendance; a != (salary.Attendance{}) {
		b.WriteString("\n## Attendance\n\n")
		fmt.Fprintf(&b, "- Overtime: %gh (over 60h: %gh)\n", a.OvertimeHours, a.OvertimeHoursOver60)
		fmt.Fprintf(&b, "- Late night: %gh\n", a.LateNightHours)
		fmt.Fprintf(&b, "- Paid leave remaining: %g days\n", a.PaidLeaveDays)
	}

	if len(res.Warnings) > 0 {
		b.WriteString("\n## Warnings\n\n")
		for _, w := range res.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

func earnings(s *salary.SalarySlip) []line {
	e := s.Earnings
	return []line{
		{"Base salary", e.BaseSalary},
		{"Overtime", e.OvertimePay},
		{"Overtime over 60h", e.OvertimePayOver60},
		{"Late night", e.LateNightPay},
		{"Fixed overtime allowance", e.FixedOvertimeAllowance},
		{"Expense reimbursement", e.ExpenseReimbursement},
		{"Transportation", e.TransportationAllowance},
		{"Stock purchase incentive", e.StockPurchaseIncentive},
	}
}

func deductions(s *salary.SalarySlip) []line {
	d := s.Deductions
	return []line{
		{"Health insurance", d.HealthInsurance},
		{"Welfare pension", d.WelfareInsurance},
		{"Employment insurance", d.EmploymentInsurance},
		{"Income tax", d.IncomeTax},
		{"Resident tax", d.ResidentTax},
		{"Other", d.OtherDeductions},
	}
}

// writeTable skips zero lines; slips print only what applies.
func writeTable(b *strings.Builder, heading string, lines []line, total int64, totalLabel string) {
	fmt.Fprintf(b, "## %s\n\n| Item | Amount |\n|---|---:|\n", heading)
	for _, l := range lines {
		if l.value == 0 {
			continue
		}
		fmt.Fprintf(b, "| %s | %s |\n", l.label, Yen(l.value))
	}
	fmt.Fprintf(b, "| **%s** | **%s** |\n\n", totalLabel, Yen(total))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Render formats markdown for a terminal. style is a glamour standard style
// name ("dark", "light", "notty"); "auto" picks one from the terminal.
func Render(md, style string, width int) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" || style == "auto" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("glamour renderer: %w", err)
	}
	return r.Render(md)
}
